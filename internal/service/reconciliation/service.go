package reconciliation

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/mismatch"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/reconciliation"
	"github.com/cmlabs-hris/hris-reconciliation/internal/pkg/validator"
	"github.com/google/uuid"
)

const (
	TriggerManual   = reconciliation.TriggerManual
	TriggerSchedule = reconciliation.TriggerSchedule
)

type Options struct {
	// MaxRangeDays bounds the inclusive length of a run. Zero disables the check.
	MaxRangeDays int
	LockTTL      time.Duration
}

type ReconciliationServiceImpl struct {
	engine    *Engine
	workers   attendance.WorkerRepository
	locker    reconciliation.RunLocker
	publisher mismatch.EventPublisher
	opts      Options
}

// NewReconciliationService wires the engine with its run-level collaborators.
// locker and publisher may be nil, in which case runs are not serialised across
// processes and no events are emitted.
func NewReconciliationService(
	engine *Engine,
	workers attendance.WorkerRepository,
	locker reconciliation.RunLocker,
	publisher mismatch.EventPublisher,
	opts Options,
) reconciliation.Service {
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Minute
	}
	return &ReconciliationServiceImpl{
		engine:    engine,
		workers:   workers,
		locker:    locker,
		publisher: publisher,
		opts:      opts,
	}
}

// RunReconciliation implements reconciliation.Service.
func (s *ReconciliationServiceImpl) RunReconciliation(ctx context.Context, req reconciliation.RunRequest) (reconciliation.RunSummary, error) {
	if err := req.Validate(); err != nil {
		return reconciliation.RunSummary{}, err
	}

	start, _ := validator.IsValidDate(req.StartDate)
	end, _ := validator.IsValidDate(req.EndDate)
	days := int(end.Sub(start).Hours()/24) + 1
	if s.opts.MaxRangeDays > 0 && days > s.opts.MaxRangeDays {
		return reconciliation.RunSummary{}, reconciliation.ErrRangeTooLarge
	}

	trigger := req.Trigger
	if trigger == "" {
		trigger = TriggerManual
	}

	workerIDs := normalizeWorkerIDs(req.WorkerIDs)

	if s.locker != nil {
		key := lockKey(req.StartDate, req.EndDate, workerIDs)
		release, acquired, err := s.locker.Acquire(ctx, key, s.opts.LockTTL)
		switch {
		case err != nil:
			slog.Warn("Failed to acquire reconciliation lock, running without it", "key", key, "error", err)
		case !acquired:
			return reconciliation.RunSummary{}, reconciliation.ErrRunInProgress
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					slog.Warn("Failed to release reconciliation lock", "key", key, "error", err)
				}
			}()
		}
	}

	if len(workerIDs) == 0 {
		ids, err := s.workers.ListActiveInRange(ctx, start, end)
		if err != nil {
			return reconciliation.RunSummary{}, err
		}
		workerIDs = ids
	}

	runID := uuid.NewString()
	slog.Info("Reconciliation run started",
		"run_id", runID,
		"trigger", trigger,
		"start_date", req.StartDate,
		"end_date", req.EndDate,
		"worker_count", len(workerIDs),
	)

	result, err := s.engine.Run(ctx, runID, workerIDs, start, end)
	result.Summary.Trigger = trigger
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			slog.Warn("Reconciliation run cancelled", "run_id", runID, "error", err)
		} else {
			slog.Error("Reconciliation run failed", "run_id", runID, "error", err)
		}
		return result.Summary, err
	}

	s.publish(ctx, result.Created)

	sm := result.Summary
	slog.Info("Reconciliation run finished",
		"run_id", runID,
		"trigger", trigger,
		"worker_days_processed", sm.WorkerDaysProcessed,
		"non_working_days_skipped", sm.NonWorkingDaysSkipped,
		"worker_days_failed", sm.WorkerDaysFailed,
		"suppressed", sm.MismatchesSuppressed,
		"created", sm.MismatchesCreated,
		"existing", sm.MismatchesExisting,
		"capped", sm.MismatchesCapped,
		"duration", sm.FinishedAt.Sub(sm.StartedAt),
	)
	return sm, nil
}

// publish emits an event for each newly created high-severity mismatch.
// Delivery failures are logged and never fail the run.
func (s *ReconciliationServiceImpl) publish(ctx context.Context, created []mismatch.Mismatch) {
	if s.publisher == nil {
		return
	}
	for _, m := range created {
		if m.Severity != mismatch.SeverityHigh {
			continue
		}
		if err := s.publisher.PublishCreated(ctx, m); err != nil {
			slog.Warn("Failed to publish mismatch event", "mismatch_id", m.ID, "worker_id", m.WorkerID, "error", err)
		}
	}
}

func normalizeWorkerIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func lockKey(start, end string, workerIDs []string) string {
	scope := "all"
	if len(workerIDs) > 0 {
		scope = uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.Join(workerIDs, ","))).String()
	}
	return "reconciliation:" + start + ":" + end + ":" + scope
}
