package calendar

import (
	"context"
	"time"
)

// Repository reads the holiday calendar.
type Repository interface {
	ListByRange(ctx context.Context, start, end time.Time) ([]NonWorkingDay, error)
}
