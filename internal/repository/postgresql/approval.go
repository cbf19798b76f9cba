package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/approval"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-reconciliation/internal/pkg/database"
)

type approvalRepository struct {
	db *database.DB
}

// ListByRange implements approval.Repository.
func (r *approvalRepository) ListByRange(ctx context.Context, workerIDs []string, start, end time.Time) ([]approval.Record, error) {
	q := GetQuerier(ctx, r.db)

	where, args := rangeWhere("date", workerIDs, start, end)
	query := `
		SELECT id::text, worker_id, date, type, approved, imported_at
		FROM approval_records
		WHERE ` + where + `
		ORDER BY worker_id, date, imported_at
	`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query approval records: %w", err)
	}
	defer rows.Close()

	var records []approval.Record
	for rows.Next() {
		var rec approval.Record
		if err := rows.Scan(&rec.ID, &rec.WorkerID, &rec.Date, &rec.Type, &rec.Approved, &rec.ImportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval record: %w", err)
		}
		rec.Date = attendance.Day(rec.Date)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate approval records: %w", err)
	}

	return records, nil
}

func NewApprovalRepository(db *database.DB) approval.Repository {
	return &approvalRepository{db: db}
}
