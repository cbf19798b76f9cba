package reconciliation

import (
	"time"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/calendar"
)

// Oracle answers whether a date is a weekend or a configured holiday.
// It is read-only after construction and safe for concurrent use.
type Oracle struct {
	weekend  map[time.Weekday]bool
	holidays map[string]calendar.NonWorkingDay
}

func NewOracle(weekend []time.Weekday, days []calendar.NonWorkingDay) *Oracle {
	o := &Oracle{
		weekend:  make(map[time.Weekday]bool, len(weekend)),
		holidays: make(map[string]calendar.NonWorkingDay, len(days)),
	}
	for _, d := range weekend {
		o.weekend[d] = true
	}
	for _, d := range days {
		o.holidays[attendance.DateKey(d.Date)] = d
	}
	return o
}

func (o *Oracle) IsNonWorkingDay(date time.Time) bool {
	_, ok := o.Reason(date)
	return ok
}

// Reason reports why date is not a working day. A named holiday wins over the weekend.
func (o *Oracle) Reason(date time.Time) (calendar.NonWorkingDay, bool) {
	day := attendance.Day(date)
	if h, ok := o.holidays[attendance.DateKey(day)]; ok {
		if h.Reason == "" {
			h.Reason = calendar.ReasonHoliday
		}
		return h, true
	}
	if o.weekend[day.Weekday()] {
		return calendar.NonWorkingDay{Date: day, Reason: calendar.ReasonWeekend, Name: day.Weekday().String()}, true
	}
	return calendar.NonWorkingDay{}, false
}
