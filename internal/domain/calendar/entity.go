package calendar

import "time"

// Reason explains why a date is not a working day.
type Reason string

const (
	ReasonWeekend Reason = "weekend"
	ReasonHoliday Reason = "holiday"
)

// NonWorkingDay is an admin-maintained entry of the holiday calendar.
type NonWorkingDay struct {
	Date   time.Time
	Reason Reason
	Name   string
}
