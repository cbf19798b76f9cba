package reconciliation

import (
	"context"
	"time"
)

// Service is the single trigger surface of the reconciliation core.
type Service interface {
	// RunReconciliation reconciles the requested range and worker scope
	RunReconciliation(ctx context.Context, req RunRequest) (RunSummary, error)
}

// RunLocker serialises runs over the same scope across processes.
type RunLocker interface {
	// Acquire returns acquired=false when another holder owns key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error)
}
