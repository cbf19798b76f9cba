package mismatch

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/attendance"
)

// Category is the fixed classification of a mismatch. Add cases here, never free text.
type Category string

const (
	CategoryStatusVsPresenceConflict Category = "status_vs_presence_conflict"
	CategoryMissingApprovalRecord    Category = "missing_approval_record"
	CategoryMissingSubmission        Category = "missing_submission"
	CategoryTimingViolation          Category = "timing_violation"
	CategoryOvertimeVariance         Category = "overtime_variance"
	CategoryNonWorkingDaySubmission  Category = "non_working_day_submission"
	CategoryHalfDayPeriodConflict    Category = "half_day_period_conflict"
)

// AllCategories returns every category in display order
func AllCategories() []Category {
	return []Category{
		CategoryStatusVsPresenceConflict,
		CategoryMissingApprovalRecord,
		CategoryMissingSubmission,
		CategoryTimingViolation,
		CategoryOvertimeVariance,
		CategoryNonWorkingDaySubmission,
		CategoryHalfDayPeriodConflict,
	}
}

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rank orders severities; higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Decision is the manager decision on a mismatch.
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// State is the review state derived from explanation and decision.
//
//	pending -> explained -> approved | rejected
type State string

const (
	StatePending   State = "pending"
	StateExplained State = "explained"
	StateApproved  State = "approved"
	StateRejected  State = "rejected"
)

// Finding is one period or check that contributed to a mismatch.
type Finding struct {
	Period   attendance.Period `json:"period,omitempty"`
	Declared string            `json:"declared"`
	Observed string            `json:"observed"`
	Note     string            `json:"note"`
}

// Detail is stored as JSONB.
type Detail struct {
	Declared string    `json:"declared"`
	Observed string    `json:"observed"`
	Findings []Finding `json:"findings"`
}

// Value implements driver.Valuer for database storage
func (d Detail) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner for database retrieval
func (d *Detail) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	}
	return errors.New("failed to scan mismatch detail: invalid type")
}

// Mismatch is a persisted, classified discrepancy. Unique per (WorkerID, Date, Category).
type Mismatch struct {
	ID             string
	RunID          string
	WorkerID       string
	Date           time.Time
	Category       Category
	Severity       Severity
	Detail         Detail
	Recommendation string
	Explanation    *string
	Decision       Decision
	DecisionNote   *string
	DecidedBy      *string
	CreatedAt      time.Time
	ExplainedAt    *time.Time
	DecidedAt      *time.Time
}

// State derives the review state.
func (m Mismatch) State() State {
	switch m.Decision {
	case DecisionApproved:
		return StateApproved
	case DecisionRejected:
		return StateRejected
	}
	if m.Explanation != nil {
		return StateExplained
	}
	return StatePending
}

// Key is the uniqueness key of a mismatch.
func (m Mismatch) Key() string {
	return m.WorkerID + "|" + attendance.DateKey(m.Date) + "|" + string(m.Category)
}
