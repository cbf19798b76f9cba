package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-reconciliation/internal/pkg/database"
)

type physicalPresenceRepository struct {
	db *database.DB
}

// ListByRange implements attendance.PresenceRepository.
func (r *physicalPresenceRepository) ListByRange(ctx context.Context, workerIDs []string, start, end time.Time) ([]attendance.PhysicalPresence, error) {
	q := GetQuerier(ctx, r.db)

	where, args := rangeWhere("date", workerIDs, start, end)
	query := `
		SELECT id::text, worker_id, date, present, first_seen, last_seen, duration_minutes, imported_at
		FROM physical_presences
		WHERE ` + where + `
		ORDER BY worker_id, date
	`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query physical presences: %w", err)
	}
	defer rows.Close()

	var presences []attendance.PhysicalPresence
	for rows.Next() {
		var p attendance.PhysicalPresence
		if err := rows.Scan(
			&p.ID, &p.WorkerID, &p.Date, &p.Present, &p.FirstSeen, &p.LastSeen, &p.DurationMinutes, &p.ImportedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan physical presence: %w", err)
		}
		p.Date = attendance.Day(p.Date)
		presences = append(presences, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate physical presences: %w", err)
	}

	return presences, nil
}

func NewPhysicalPresenceRepository(db *database.DB) attendance.PresenceRepository {
	return &physicalPresenceRepository{db: db}
}
