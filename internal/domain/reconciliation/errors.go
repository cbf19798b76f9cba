package reconciliation

import "errors"

// Reconciliation domain errors
var (
	ErrRangeTooLarge = errors.New("reconciliation range exceeds the allowed number of days")
	ErrRunInProgress = errors.New("a reconciliation run for this scope is already in progress")
)
