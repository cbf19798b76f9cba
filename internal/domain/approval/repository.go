package approval

import (
	"context"
	"time"
)

// Repository reads imported approval records.
type Repository interface {
	// ListByRange returns records in [start, end]. An empty workerIDs means every worker.
	ListByRange(ctx context.Context, workerIDs []string, start, end time.Time) ([]Record, error)
}
