package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/reconciliation"
)

const nightlyReconciliationJob = "nightly_reconciliation"

type ReconciliationJobs struct {
	service      reconciliation.Service
	runHour      int
	lookbackDays int
	loc          *time.Location

	// now is swapped in tests
	now func() time.Time

	mu      sync.Mutex
	lastRun string
}

// NewReconciliationJobs schedules a sweep over the last lookbackDays days, once a day at runHour local time.
func NewReconciliationJobs(service reconciliation.Service, runHour, lookbackDays int, loc *time.Location) *ReconciliationJobs {
	if loc == nil {
		loc = time.UTC
	}
	if lookbackDays < 1 {
		lookbackDays = 1
	}
	return &ReconciliationJobs{
		service:      service,
		runHour:      runHour,
		lookbackDays: lookbackDays,
		loc:          loc,
		now:          time.Now,
	}
}

func (j *ReconciliationJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(nightlyReconciliationJob, 1*time.Hour, j.NightlyReconciliation)
}

// NightlyReconciliation reconciles [today - lookback, today - 1]. It only acts
// during the configured hour and at most once per local day.
func (j *ReconciliationJobs) NightlyReconciliation(ctx context.Context) error {
	now := j.now().In(j.loc)
	if now.Hour() != j.runHour {
		return nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	todayKey := today.Format("2006-01-02")

	j.mu.Lock()
	done := j.lastRun == todayKey
	j.mu.Unlock()
	if done {
		return nil
	}

	req := reconciliation.RunRequest{
		StartDate: today.AddDate(0, 0, -j.lookbackDays).Format("2006-01-02"),
		EndDate:   today.AddDate(0, 0, -1).Format("2006-01-02"),
		Trigger:   reconciliation.TriggerSchedule,
	}

	slog.Info("Cron: Starting nightly reconciliation", "start_date", req.StartDate, "end_date", req.EndDate)

	summary, err := j.service.RunReconciliation(ctx, req)
	if errors.Is(err, reconciliation.ErrRunInProgress) {
		slog.Info("Cron: Reconciliation already running for this range, skipping", "start_date", req.StartDate, "end_date", req.EndDate)
		return nil
	}
	if err != nil {
		return fmt.Errorf("nightly reconciliation %s..%s: %w", req.StartDate, req.EndDate, err)
	}

	j.mu.Lock()
	j.lastRun = todayKey
	j.mu.Unlock()

	slog.Info("Cron: Nightly reconciliation finished",
		"run_id", summary.RunID,
		"worker_days_processed", summary.WorkerDaysProcessed,
		"mismatches_created", summary.MismatchesCreated,
		"worker_days_failed", summary.WorkerDaysFailed,
	)
	return nil
}
