package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-reconciliation/internal/pkg/database"
)

type workerRepository struct {
	db *database.DB
}

// ListActiveInRange implements attendance.WorkerRepository.
func (r *workerRepository) ListActiveInRange(ctx context.Context, start, end time.Time) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT worker_id FROM declared_statuses WHERE date BETWEEN $1 AND $2
		UNION
		SELECT worker_id FROM physical_presences WHERE date BETWEEN $1 AND $2
		ORDER BY worker_id
	`

	rows, err := q.Query(ctx, query, attendance.DateKey(start), attendance.DateKey(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query active workers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan worker id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate active workers: %w", err)
	}

	return ids, nil
}

func NewWorkerRepository(db *database.DB) attendance.WorkerRepository {
	return &workerRepository{db: db}
}
