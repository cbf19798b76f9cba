package attendance

import (
	"context"
	"time"
)

// DeclaredStatusRepository reads worker submissions. The reconciliation core never writes through it.
type DeclaredStatusRepository interface {
	// ListByRange returns declarations in [start, end]. An empty workerIDs means every worker.
	ListByRange(ctx context.Context, workerIDs []string, start, end time.Time) ([]DeclaredStatus, error)
}

// PresenceRepository reads imported physical presence records.
type PresenceRepository interface {
	// ListByRange returns presence records in [start, end]. An empty workerIDs means every worker.
	ListByRange(ctx context.Context, workerIDs []string, start, end time.Time) ([]PhysicalPresence, error)
}

// WorkerRepository resolves the worker scope of a run.
type WorkerRepository interface {
	// ListActiveInRange returns every worker with a declaration or a presence record in [start, end], sorted.
	ListActiveInRange(ctx context.Context, start, end time.Time) ([]string, error)
}
