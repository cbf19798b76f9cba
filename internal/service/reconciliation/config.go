package reconciliation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Clock is a time of day in minutes since midnight.
type Clock int

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid clock %q: bad hour", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock %q: bad minute", s)
	}
	return Clock(h*60 + m), nil
}

// MustClock is ParseClock for constants.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// clockOf returns the local time of day of t.
func clockOf(t time.Time, loc *time.Location) Clock {
	local := t.In(loc)
	return Clock(local.Hour()*60 + local.Minute())
}

// Window is a [Start, End] time-of-day range.
type Window struct {
	Start Clock
	End   Clock
}

// ParseWindow parses "HH:MM-HH:MM".
func ParseWindow(s string) (Window, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return Window{}, fmt.Errorf("invalid window %q: want HH:MM-HH:MM", s)
	}
	start, err := ParseClock(parts[0])
	if err != nil {
		return Window{}, err
	}
	end, err := ParseClock(parts[1])
	if err != nil {
		return Window{}, err
	}
	if end <= start {
		return Window{}, fmt.Errorf("invalid window %q: end must be after start", s)
	}
	return Window{Start: start, End: end}, nil
}

func (w Window) Contains(c Clock) bool {
	return c >= w.Start && c <= w.End
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// LimitScope selects what the per-category cap counts against.
type LimitScope string

const (
	LimitPerWorker LimitScope = "worker"
	LimitPerRun    LimitScope = "run"
)

// ParseWeekend parses a comma separated list of weekday names.
func ParseWeekend(s string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, name := range strings.Split(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		found := false
		for d := time.Sunday; d <= time.Saturday; d++ {
			if strings.ToLower(d.String()) == name {
				days = append(days, d)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("invalid weekday %q", name)
		}
	}
	return days, nil
}

// Config holds every threshold the engine uses. It is passed by value so tests
// can exercise boundaries without global state.
type Config struct {
	AMWindow             Window
	PMWindow             Window
	LateArrivalAfter     Clock
	EarlyDepartureBefore Clock

	OvertimeVarianceThreshold decimal.Decimal // hours
	StandardWorkHours         decimal.Decimal

	CategoryLimit int
	LimitScope    LimitScope

	Weekend  []time.Weekday
	Location *time.Location

	Parallelism int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		AMWindow:                  Window{Start: MustClock("09:00"), End: MustClock("13:00")},
		PMWindow:                  Window{Start: MustClock("14:00"), End: MustClock("18:00")},
		LateArrivalAfter:          MustClock("11:00"),
		EarlyDepartureBefore:      MustClock("15:00"),
		OvertimeVarianceThreshold: decimal.NewFromFloat(0.5),
		StandardWorkHours:         decimal.NewFromInt(8),
		CategoryLimit:             2,
		LimitScope:                LimitPerWorker,
		Weekend:                   []time.Weekday{time.Saturday, time.Sunday},
		Location:                  time.UTC,
		Parallelism:               4,
	}
}

// Validate checks the thresholds are consistent with each other.
func (c Config) Validate() error {
	if c.PMWindow.Start < c.AMWindow.End {
		return fmt.Errorf("PM window %s overlaps AM window %s", c.PMWindow, c.AMWindow)
	}
	if !c.AMWindow.Contains(c.LateArrivalAfter) {
		return fmt.Errorf("late arrival threshold %s must fall inside AM window %s", c.LateArrivalAfter, c.AMWindow)
	}
	if !c.PMWindow.Contains(c.EarlyDepartureBefore) {
		return fmt.Errorf("early departure threshold %s must fall inside PM window %s", c.EarlyDepartureBefore, c.PMWindow)
	}
	if c.OvertimeVarianceThreshold.IsNegative() {
		return fmt.Errorf("overtime variance threshold must not be negative")
	}
	if !c.StandardWorkHours.IsPositive() {
		return fmt.Errorf("standard work hours must be positive")
	}
	if c.CategoryLimit < 1 {
		return fmt.Errorf("category limit must be at least 1")
	}
	if c.LimitScope != LimitPerWorker && c.LimitScope != LimitPerRun {
		return fmt.Errorf("limit scope must be %q or %q", LimitPerWorker, LimitPerRun)
	}
	if c.Location == nil {
		return fmt.Errorf("location is required")
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1")
	}
	return nil
}
