package mismatch

import (
	"context"
	"time"
)

// Repository persists mismatch records.
type Repository interface {
	// InsertIfAbsent atomically inserts each record unless one already exists for
	// its (worker, date, category). Existing rows are never touched. Returns the
	// records that were actually created, with ID and CreatedAt filled in.
	InsertIfAbsent(ctx context.Context, records []Mismatch) ([]Mismatch, error)

	GetByID(ctx context.Context, id string) (Mismatch, error)

	List(ctx context.Context, filter MismatchFilter) ([]Mismatch, int64, error)

	// SaveExplanation stores the worker explanation while the decision is still pending.
	// Returns ErrMismatchAlreadyDecided when the record has left pending.
	SaveExplanation(ctx context.Context, id string, explanation string, at time.Time) error

	// SaveDecision records the manager decision on an explained, undecided record.
	SaveDecision(ctx context.Context, id string, decision Decision, note *string, decidedBy string, at time.Time) error
}

// EventPublisher notifies the external dispatcher about newly created mismatches.
type EventPublisher interface {
	PublishCreated(ctx context.Context, m Mismatch) error
}
