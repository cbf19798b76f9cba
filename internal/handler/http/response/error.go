package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/mismatch"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/reconciliation"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/user"
	"github.com/cmlabs-hris/hris-reconciliation/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// User domain errors
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, user.ErrManagerAccessRequired):
		Forbidden(w, "Manager access required")

	// Mismatch domain errors
	case errors.Is(err, mismatch.ErrMismatchNotFound):
		NotFound(w, "Mismatch not found")
	case errors.Is(err, mismatch.ErrMismatchAlreadyDecided):
		Conflict(w, "Mismatch already approved or rejected")
	case errors.Is(err, mismatch.ErrExplanationRequired):
		Conflict(w, "Mismatch must be explained before a decision")
	case errors.Is(err, mismatch.ErrNotMismatchOwner):
		Forbidden(w, "Mismatch belongs to another worker")
	case errors.Is(err, mismatch.ErrInvalidDecision):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, mismatch.ErrWorkerIdentityRequired):
		Forbidden(w, "Employee ID not found in token")
	case errors.Is(err, mismatch.ErrReviewerIdentityMissing):
		Unauthorized(w, "User ID not found in token")

	// Reconciliation domain errors
	case errors.Is(err, reconciliation.ErrRangeTooLarge):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, reconciliation.ErrRunInProgress):
		Conflict(w, "A reconciliation run for this range is already in progress")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrInvalidStatus), errors.Is(err, attendance.ErrHalfDaySamePeriods):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
