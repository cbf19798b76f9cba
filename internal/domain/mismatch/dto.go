package mismatch

import (
	"strings"

	"github.com/cmlabs-hris/hris-reconciliation/internal/pkg/validator"
)

// ========================================
// MISMATCH DTOs
// ========================================

type MismatchResponse struct {
	ID             string  `json:"id"`
	RunID          string  `json:"run_id"`
	WorkerID       string  `json:"worker_id"`
	Date           string  `json:"date"`
	Category       string  `json:"category"`
	Severity       string  `json:"severity"`
	State          string  `json:"state"`
	Detail         Detail  `json:"detail"`
	Recommendation string  `json:"recommendation"`
	Explanation    *string `json:"explanation,omitempty"`
	Decision       string  `json:"decision"`
	DecisionNote   *string `json:"decision_note,omitempty"`
	DecidedBy      *string `json:"decided_by,omitempty"`
	CreatedAt      string  `json:"created_at"`
	ExplainedAt    *string `json:"explained_at,omitempty"`
	DecidedAt      *string `json:"decided_at,omitempty"`
}

type MismatchFilter struct {
	WorkerID  *string `json:"worker_id,omitempty"`
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Category  *string `json:"category,omitempty"`
	Severity  *string `json:"severity,omitempty"`
	State     *string `json:"state,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // date, severity, created_at
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *MismatchFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Category != nil {
		valid := make([]string, 0, len(AllCategories()))
		for _, c := range AllCategories() {
			valid = append(valid, string(c))
		}
		if !validator.IsInSlice(*f.Category, valid) {
			errs = append(errs, validator.ValidationError{
				Field:   "category",
				Message: "category must be one of: " + strings.Join(valid, ", "),
			})
		}
	}

	if f.Severity != nil {
		if !validator.IsInSlice(*f.Severity, []string{"high", "medium", "low"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "severity",
				Message: "severity must be one of: high, medium, low",
			})
		}
	}

	if f.State != nil {
		if !validator.IsInSlice(*f.State, []string{"pending", "explained", "approved", "rejected"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "state",
				Message: "state must be one of: pending, explained, approved, rejected",
			})
		}
	}

	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.SortBy != "" {
		if !validator.IsInSlice(f.SortBy, []string{"date", "severity", "created_at"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: date, severity, created_at",
			})
		}
	} else {
		f.SortBy = "date"
	}

	if f.SortOrder != "" {
		if !validator.IsInSlice(strings.ToLower(f.SortOrder), []string{"asc", "desc"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc"
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListMismatchResponse struct {
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
	Showing    string             `json:"showing"`
	Mismatches []MismatchResponse `json:"mismatches"`
}

// SubmitExplanationRequest is sent by the worker the mismatch belongs to
type SubmitExplanationRequest struct {
	ID          string `json:"-"`
	Explanation string `json:"explanation"`
}

func (r *SubmitExplanationRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Explanation) {
		errs = append(errs, validator.ValidationError{
			Field:   "explanation",
			Message: "explanation is required",
		})
	} else if len(r.Explanation) > 2000 {
		errs = append(errs, validator.ValidationError{
			Field:   "explanation",
			Message: "explanation must not exceed 2000 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// DecideMismatchRequest is sent by a manager
type DecideMismatchRequest struct {
	ID       string  `json:"-"`
	Decision string  `json:"decision"` // approved, rejected
	Note     *string `json:"note,omitempty"`
}

func (r *DecideMismatchRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsInSlice(strings.ToLower(r.Decision), []string{"approved", "rejected"}) {
		errs = append(errs, validator.ValidationError{
			Field:   "decision",
			Message: "decision must be one of: approved, rejected",
		})
	}

	if strings.ToLower(r.Decision) == "rejected" && (r.Note == nil || validator.IsEmpty(*r.Note)) {
		errs = append(errs, validator.ValidationError{
			Field:   "note",
			Message: "rejection note is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
