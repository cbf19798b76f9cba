package attendance

import "errors"

// Attendance domain errors
var (
	// Declaration data-quality errors
	ErrInvalidStatus      = errors.New("invalid declared status")
	ErrHalfDaySamePeriods = errors.New("half-day status must have different AM and PM sub-types")
)
