package reconciliation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/approval"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/calendar"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/mismatch"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/reconciliation"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Engine runs the reconciliation pipeline:
//
//	load -> compare -> resolve approvals -> classify -> limit -> persist
//
// Every stage but persist is a pure function of the loaded snapshot, so a run
// over the same inputs produces the same candidates.
type Engine struct {
	cfg        Config
	comparator *Comparator

	declared   attendance.DeclaredStatusRepository
	presence   attendance.PresenceRepository
	approvals  approval.Repository
	calendar   calendar.Repository
	mismatches mismatch.Repository
}

func NewEngine(
	cfg Config,
	declared attendance.DeclaredStatusRepository,
	presence attendance.PresenceRepository,
	approvals approval.Repository,
	calendar calendar.Repository,
	mismatches mismatch.Repository,
) *Engine {
	return &Engine{
		cfg:        cfg,
		comparator: NewComparator(cfg),
		declared:   declared,
		presence:   presence,
		approvals:  approvals,
		calendar:   calendar,
		mismatches: mismatches,
	}
}

// RunResult is the outcome of one engine run.
type RunResult struct {
	Summary reconciliation.RunSummary
	Created []mismatch.Mismatch
}

// DayOutcome is the evaluation of a single worker-day.
type DayOutcome struct {
	Candidates []mismatch.Mismatch
	Suppressed int
	NonWorking bool
}

type workerDay struct {
	workerID string
	date     time.Time
}

// snapshot indexes the loaded records by worker and date.
type snapshot struct {
	oracle    *Oracle
	declared  map[string]attendance.DeclaredStatus
	presence  map[string]attendance.PhysicalPresence
	approvals map[string][]approval.Record
}

func dayKey(workerID string, date time.Time) string {
	return workerID + "|" + attendance.DateKey(date)
}

// Run reconciles every (worker, date) pair in workerIDs x [start, end].
// When ctx is cancelled before persistence the partial summary is returned with
// Interrupted set and nothing is written.
func (e *Engine) Run(ctx context.Context, runID string, workerIDs []string, start, end time.Time) (RunResult, error) {
	start, end = attendance.Day(start), attendance.Day(end)
	summary := reconciliation.RunSummary{
		RunID:       runID,
		StartDate:   attendance.DateKey(start),
		EndDate:     attendance.DateKey(end),
		WorkerCount: len(workerIDs),
		StartedAt:   time.Now().UTC(),
	}
	result := RunResult{Summary: summary}
	if len(workerIDs) == 0 {
		result.Summary.FinishedAt = time.Now().UTC()
		return result, nil
	}

	snap, err := e.load(ctx, workerIDs, start, end)
	if err != nil {
		result.Summary.FinishedAt = time.Now().UTC()
		if ctx.Err() != nil {
			result.Summary.Interrupted = true
			return result, ctx.Err()
		}
		return result, err
	}

	var jobs []workerDay
	for _, w := range workerIDs {
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			jobs = append(jobs, workerDay{workerID: w, date: d})
		}
	}

	outcomes := make([]DayOutcome, len(jobs))
	failures := make([]error, len(jobs))

	var g errgroup.Group
	g.SetLimit(e.cfg.Parallelism)
	for i, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				failures[i] = ctx.Err()
				return nil
			}
			outcomes[i], failures[i] = e.evaluate(snap, job)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		result.Summary.Interrupted = true
		result.Summary.FinishedAt = time.Now().UTC()
		slog.Warn("Reconciliation run interrupted", "run_id", runID, "error", err)
		return result, err
	}

	var candidates []mismatch.Mismatch
	for i, out := range outcomes {
		if failures[i] != nil {
			result.Summary.WorkerDaysFailed++
			slog.Warn("Failed to reconcile worker-day",
				"run_id", runID,
				"worker_id", jobs[i].workerID,
				"date", attendance.DateKey(jobs[i].date),
				"error", failures[i],
			)
			continue
		}
		result.Summary.WorkerDaysProcessed++
		if out.NonWorking {
			result.Summary.NonWorkingDaysSkipped++
		}
		result.Summary.MismatchesSuppressed += out.Suppressed
		candidates = append(candidates, out.Candidates...)
	}

	kept, dropped := Limit(candidates, e.cfg.CategoryLimit, e.cfg.LimitScope)
	result.Summary.MismatchesCapped = len(dropped)
	for _, m := range dropped {
		slog.Info("Mismatch discarded by category limit",
			"run_id", runID,
			"worker_id", m.WorkerID,
			"date", attendance.DateKey(m.Date),
			"category", m.Category,
			"severity", m.Severity,
			"limit", e.cfg.CategoryLimit,
			"scope", e.cfg.LimitScope,
		)
	}

	if len(kept) > 0 {
		for i := range kept {
			kept[i].ID = uuid.NewString()
			kept[i].RunID = runID
			kept[i].Decision = mismatch.DecisionPending
		}
		created, err := e.mismatches.InsertIfAbsent(ctx, kept)
		if err != nil {
			result.Summary.FinishedAt = time.Now().UTC()
			return result, fmt.Errorf("failed to persist mismatches: %w", err)
		}
		result.Created = created
		result.Summary.MismatchesCreated = len(created)
		result.Summary.MismatchesExisting = len(kept) - len(created)
	}

	result.Summary.FinishedAt = time.Now().UTC()
	return result, nil
}

func (e *Engine) load(ctx context.Context, workerIDs []string, start, end time.Time) (*snapshot, error) {
	var (
		declared  []attendance.DeclaredStatus
		presence  []attendance.PhysicalPresence
		approvals []approval.Record
		holidays  []calendar.NonWorkingDay
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		declared, err = e.declared.ListByRange(gctx, workerIDs, start, end)
		if err != nil {
			return fmt.Errorf("failed to load declared statuses: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		presence, err = e.presence.ListByRange(gctx, workerIDs, start, end)
		if err != nil {
			return fmt.Errorf("failed to load physical presence: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		approvals, err = e.approvals.ListByRange(gctx, workerIDs, start, end)
		if err != nil {
			return fmt.Errorf("failed to load approval records: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		holidays, err = e.calendar.ListByRange(gctx, start, end)
		if err != nil {
			return fmt.Errorf("failed to load holiday calendar: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &snapshot{
		oracle:    NewOracle(e.cfg.Weekend, holidays),
		declared:  make(map[string]attendance.DeclaredStatus, len(declared)),
		presence:  make(map[string]attendance.PhysicalPresence, len(presence)),
		approvals: make(map[string][]approval.Record),
	}
	for _, d := range declared {
		snap.declared[dayKey(d.WorkerID, d.Date)] = d
	}
	for _, p := range presence {
		snap.presence[dayKey(p.WorkerID, p.Date)] = p
	}
	for _, a := range approvals {
		k := dayKey(a.WorkerID, a.Date)
		snap.approvals[k] = append(snap.approvals[k], a)
	}
	return snap, nil
}

func (e *Engine) evaluate(snap *snapshot, job workerDay) (out DayOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while reconciling: %v", r)
		}
	}()

	k := dayKey(job.workerID, job.date)
	var (
		declared *attendance.DeclaredStatus
		presence *attendance.PhysicalPresence
	)
	if d, ok := snap.declared[k]; ok {
		declared = &d
	}
	if p, ok := snap.presence[k]; ok {
		presence = &p
	}
	return e.EvaluateDay(job.workerID, job.date, declared, presence, snap.approvals[k], snap.oracle)
}

// EvaluateDay runs compare, resolve and classify for one worker-day. declared
// and presence are nil when no record exists. A stored status that fails
// validation is returned as an error so the caller can count the day as failed.
func (e *Engine) EvaluateDay(
	workerID string,
	date time.Time,
	declared *attendance.DeclaredStatus,
	presence *attendance.PhysicalPresence,
	approvals []approval.Record,
	oracle *Oracle,
) (DayOutcome, error) {
	var status attendance.Status
	if declared != nil {
		s, err := declared.Status()
		if err != nil {
			return DayOutcome{}, err
		}
		status = s
	}

	day := DayContext{
		WorkerID: workerID,
		Date:     date,
		Declared: "no declaration",
		Observed: e.comparator.describePresence(presence),
	}
	if status != nil {
		day.Declared = status.String()
	}

	if reason, ok := oracle.Reason(date); ok {
		out := DayOutcome{NonWorking: true}
		label := string(reason.Reason)
		if reason.Name != "" {
			label += ": " + reason.Name
		}
		if ds := e.comparator.CheckNonWorkingDay(status, label); len(ds) > 0 {
			day.Observed = label
			out.Candidates = Build(day, ds)
		}
		return out, nil
	}

	ds := e.comparator.Compare(status, presence)
	ds = append(ds, e.comparator.CheckTiming(status, presence)...)
	ds = append(ds, e.comparator.CheckOvertime(declared, presence)...)

	reportable, suppressed := Resolve(ds, declared, approvals)
	return DayOutcome{
		Candidates: Build(day, reportable),
		Suppressed: suppressed,
	}, nil
}
