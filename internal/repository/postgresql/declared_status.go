package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-reconciliation/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type declaredStatusRepository struct {
	db *database.DB
}

// ListByRange implements attendance.DeclaredStatusRepository.
func (r *declaredStatusRepository) ListByRange(ctx context.Context, workerIDs []string, start, end time.Time) ([]attendance.DeclaredStatus, error) {
	q := GetQuerier(ctx, r.db)

	where, args := rangeWhere("date", workerIDs, start, end)
	query := `
		SELECT id::text, worker_id, date, kind, am_mode, pm_mode, overtime_hours::text,
			   review_state, submitted_at, created_at, updated_at
		FROM declared_statuses
		WHERE ` + where + `
		ORDER BY worker_id, date
	`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query declared statuses: %w", err)
	}
	defer rows.Close()

	var statuses []attendance.DeclaredStatus
	for rows.Next() {
		var (
			d        attendance.DeclaredStatus
			am, pm   *string
			overtime *string
		)
		if err := rows.Scan(
			&d.ID, &d.WorkerID, &d.Date, &d.Kind, &am, &pm, &overtime,
			&d.Review, &d.SubmittedAt, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan declared status: %w", err)
		}
		if am != nil {
			mode := attendance.Mode(*am)
			d.AMMode = &mode
		}
		if pm != nil {
			mode := attendance.Mode(*pm)
			d.PMMode = &mode
		}
		if overtime != nil {
			hours, err := decimal.NewFromString(*overtime)
			if err != nil {
				return nil, fmt.Errorf("failed to parse overtime hours for %s on %s: %w", d.WorkerID, attendance.DateKey(d.Date), err)
			}
			d.OvertimeHours = &hours
		}
		d.Date = attendance.Day(d.Date)
		statuses = append(statuses, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate declared statuses: %w", err)
	}

	return statuses, nil
}

// rangeWhere builds the shared "date in range, optionally for these workers" filter.
func rangeWhere(dateColumn string, workerIDs []string, start, end time.Time) (string, []interface{}) {
	where := fmt.Sprintf("%s BETWEEN $1 AND $2", dateColumn)
	args := []interface{}{attendance.DateKey(start), attendance.DateKey(end)}
	if len(workerIDs) > 0 {
		where += " AND worker_id = ANY($3)"
		args = append(args, workerIDs)
	}
	return where, args
}

func NewDeclaredStatusRepository(db *database.DB) attendance.DeclaredStatusRepository {
	return &declaredStatusRepository{db: db}
}
