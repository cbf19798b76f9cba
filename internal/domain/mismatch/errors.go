package mismatch

import "errors"

// Mismatch domain errors
var (
	ErrMismatchNotFound        = errors.New("mismatch record not found")
	ErrMismatchAlreadyDecided  = errors.New("mismatch has already been approved or rejected")
	ErrExplanationRequired     = errors.New("mismatch must be explained before a decision")
	ErrNotMismatchOwner        = errors.New("mismatch belongs to another worker")
	ErrInvalidDecision         = errors.New("decision must be approved or rejected")
	ErrWorkerIdentityRequired  = errors.New("employee_id claim is required")
	ErrReviewerIdentityMissing = errors.New("user_id claim is required")
)
