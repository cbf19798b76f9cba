package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/calendar"
	"github.com/cmlabs-hris/hris-reconciliation/internal/pkg/database"
)

type holidayRepository struct {
	db *database.DB
}

// ListByRange implements calendar.Repository.
func (r *holidayRepository) ListByRange(ctx context.Context, start, end time.Time) ([]calendar.NonWorkingDay, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT date, reason, name
		FROM non_working_days
		WHERE date BETWEEN $1 AND $2
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, attendance.DateKey(start), attendance.DateKey(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query non-working days: %w", err)
	}
	defer rows.Close()

	var days []calendar.NonWorkingDay
	for rows.Next() {
		var d calendar.NonWorkingDay
		if err := rows.Scan(&d.Date, &d.Reason, &d.Name); err != nil {
			return nil, fmt.Errorf("failed to scan non-working day: %w", err)
		}
		d.Date = attendance.Day(d.Date)
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate non-working days: %w", err)
	}

	return days, nil
}

func NewHolidayRepository(db *database.DB) calendar.Repository {
	return &holidayRepository{db: db}
}
