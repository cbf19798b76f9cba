package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/mismatch"
	"github.com/cmlabs-hris/hris-reconciliation/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type mismatchRepository struct {
	db *database.DB
}

const mismatchColumns = `
	id::text, run_id::text, worker_id, date, category, severity, detail, recommendation,
	explanation, decision, decision_note, decided_by, created_at, explained_at, decided_at
`

func scanMismatch(row pgx.Row) (mismatch.Mismatch, error) {
	var m mismatch.Mismatch
	err := row.Scan(
		&m.ID, &m.RunID, &m.WorkerID, &m.Date, &m.Category, &m.Severity, &m.Detail, &m.Recommendation,
		&m.Explanation, &m.Decision, &m.DecisionNote, &m.DecidedBy, &m.CreatedAt, &m.ExplainedAt, &m.DecidedAt,
	)
	m.Date = attendance.Day(m.Date)
	return m, err
}

// InsertIfAbsent implements mismatch.Repository.
func (r *mismatchRepository) InsertIfAbsent(ctx context.Context, records []mismatch.Mismatch) ([]mismatch.Mismatch, error) {
	if len(records) == 0 {
		return nil, nil
	}

	query := `
		INSERT INTO mismatch_records (
			id, run_id, worker_id, date, category, severity, detail, recommendation, decision
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT ON CONSTRAINT uq_mismatch_worker_date_category DO NOTHING
		RETURNING created_at
	`

	var created []mismatch.Mismatch
	err := WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, m := range records {
			batch.Queue(query,
				m.ID, m.RunID, m.WorkerID, attendance.DateKey(m.Date), m.Category, m.Severity,
				m.Detail, m.Recommendation, m.Decision,
			)
		}

		results := tx.SendBatch(ctx, batch)
		for _, m := range records {
			err := results.QueryRow().Scan(&m.CreatedAt)
			if errors.Is(err, pgx.ErrNoRows) {
				// already recorded by an earlier run
				continue
			}
			if err != nil {
				results.Close()
				return fmt.Errorf("failed to insert mismatch %s: %w", m.Key(), err)
			}
			created = append(created, m)
		}
		return results.Close()
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// GetByID implements mismatch.Repository.
func (r *mismatchRepository) GetByID(ctx context.Context, id string) (mismatch.Mismatch, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + mismatchColumns + ` FROM mismatch_records WHERE id::text = $1`

	m, err := scanMismatch(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mismatch.Mismatch{}, mismatch.ErrMismatchNotFound
		}
		return mismatch.Mismatch{}, fmt.Errorf("failed to get mismatch by id %s: %w", id, err)
	}

	return m, nil
}

// List implements mismatch.Repository.
func (r *mismatchRepository) List(ctx context.Context, filter mismatch.MismatchFilter) ([]mismatch.Mismatch, int64, error) {
	q := GetQuerier(ctx, r.db)

	// Build WHERE clause
	baseWhere := "1=1"
	args := []interface{}{}
	argIdx := 1

	if filter.WorkerID != nil && *filter.WorkerID != "" {
		baseWhere += fmt.Sprintf(" AND worker_id = $%d", argIdx)
		args = append(args, *filter.WorkerID)
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}
	if filter.Category != nil && *filter.Category != "" {
		baseWhere += fmt.Sprintf(" AND category = $%d", argIdx)
		args = append(args, *filter.Category)
		argIdx++
	}
	if filter.Severity != nil && *filter.Severity != "" {
		baseWhere += fmt.Sprintf(" AND severity = $%d", argIdx)
		args = append(args, *filter.Severity)
		argIdx++
	}

	// State is derived from decision and explanation
	if filter.State != nil {
		switch mismatch.State(*filter.State) {
		case mismatch.StatePending:
			baseWhere += " AND decision = 'pending' AND explanation IS NULL"
		case mismatch.StateExplained:
			baseWhere += " AND decision = 'pending' AND explanation IS NOT NULL"
		case mismatch.StateApproved, mismatch.StateRejected:
			baseWhere += fmt.Sprintf(" AND decision = $%d", argIdx)
			args = append(args, *filter.State)
			argIdx++
		}
	}

	countQuery := `SELECT COUNT(*) FROM mismatch_records WHERE ` + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count mismatches: %w", err)
	}

	// Build ORDER BY
	orderByField := "date"
	switch filter.SortBy {
	case "severity":
		orderByField = "CASE severity WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END"
	case "created_at":
		orderByField = "created_at"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM mismatch_records
		WHERE %s
		ORDER BY %s %s, worker_id ASC, category ASC
		LIMIT $%d OFFSET $%d
	`, mismatchColumns, baseWhere, orderByField, sortOrder, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query mismatches: %w", err)
	}
	defer rows.Close()

	var mismatches []mismatch.Mismatch
	for rows.Next() {
		m, err := scanMismatch(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan mismatch: %w", err)
		}
		mismatches = append(mismatches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate mismatches: %w", err)
	}

	return mismatches, total, nil
}

// SaveExplanation implements mismatch.Repository.
func (r *mismatchRepository) SaveExplanation(ctx context.Context, id string, explanation string, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE mismatch_records
		SET explanation = $2, explained_at = $3
		WHERE id::text = $1 AND decision = 'pending'
	`

	tag, err := q.Exec(ctx, query, id, explanation, at)
	if err != nil {
		return fmt.Errorf("failed to save mismatch explanation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.transitionError(ctx, id)
	}

	return nil
}

// SaveDecision implements mismatch.Repository.
func (r *mismatchRepository) SaveDecision(ctx context.Context, id string, decision mismatch.Decision, note *string, decidedBy string, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE mismatch_records
		SET decision = $2, decision_note = $3, decided_by = $4, decided_at = $5
		WHERE id::text = $1 AND decision = 'pending' AND explanation IS NOT NULL
	`

	tag, err := q.Exec(ctx, query, id, decision, note, decidedBy, at)
	if err != nil {
		return fmt.Errorf("failed to save mismatch decision: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.transitionError(ctx, id)
	}

	return nil
}

// transitionError explains why a conditional update touched no row.
func (r *mismatchRepository) transitionError(ctx context.Context, id string) error {
	m, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	switch m.State() {
	case mismatch.StateApproved, mismatch.StateRejected:
		return mismatch.ErrMismatchAlreadyDecided
	case mismatch.StatePending:
		return mismatch.ErrExplanationRequired
	}
	return fmt.Errorf("mismatch %s is in state %s", id, m.State())
}

func NewMismatchRepository(db *database.DB) mismatch.Repository {
	return &mismatchRepository{db: db}
}
