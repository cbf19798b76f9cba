package reconciliation

import (
	"time"

	"github.com/cmlabs-hris/hris-reconciliation/internal/pkg/validator"
)

// Run triggers
const (
	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
)

// RunRequest triggers a reconciliation sweep over [StartDate, EndDate].
// An empty WorkerIDs reconciles every worker with data in the range.
type RunRequest struct {
	StartDate string   `json:"start_date"` // YYYY-MM-DD
	EndDate   string   `json:"end_date"`   // YYYY-MM-DD
	WorkerIDs []string `json:"worker_ids,omitempty"`
	Trigger   string   `json:"-"` // manual, schedule
}

func (r *RunRequest) Validate() error {
	var errs validator.ValidationErrors

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}

	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}

	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	for _, id := range r.WorkerIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{
				Field:   "worker_ids",
				Message: "worker_ids must not contain empty values",
			})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// RunSummary reports what a sweep did instead of a single pass/fail flag.
type RunSummary struct {
	RunID                 string    `json:"run_id"`
	Trigger               string    `json:"trigger"`
	StartDate             string    `json:"start_date"`
	EndDate               string    `json:"end_date"`
	WorkerCount           int       `json:"worker_count"`
	WorkerDaysProcessed   int       `json:"worker_days_processed"`
	NonWorkingDaysSkipped int       `json:"non_working_days_skipped"`
	WorkerDaysFailed      int       `json:"worker_days_failed"`
	MismatchesSuppressed  int       `json:"mismatches_suppressed"`
	MismatchesCreated     int       `json:"mismatches_created"`
	MismatchesExisting    int       `json:"mismatches_existing"`
	MismatchesCapped      int       `json:"mismatches_capped"`
	Interrupted           bool      `json:"interrupted"`
	StartedAt             time.Time `json:"started_at"`
	FinishedAt            time.Time `json:"finished_at"`
}
