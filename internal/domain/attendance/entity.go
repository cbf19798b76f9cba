package attendance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Mode is what a worker declares for a whole day or for one half-day period.
type Mode string

const (
	ModeInOffice     Mode = "in_office"
	ModeWorkFromHome Mode = "wfh"
	ModeLeave        Mode = "leave"
	ModeAbsent       Mode = "absent"
)

func (m Mode) valid() bool {
	switch m {
	case ModeInOffice, ModeWorkFromHome, ModeLeave, ModeAbsent:
		return true
	}
	return false
}

// Kind is the stored status code of a declaration.
type Kind string

const (
	KindInOfficeFull     Kind = "in_office_full"
	KindInOfficeHalf     Kind = "in_office_half"
	KindWorkFromHomeFull Kind = "wfh_full"
	KindWorkFromHomeHalf Kind = "wfh_half"
	KindLeaveFull        Kind = "leave_full"
	KindLeaveHalf        Kind = "leave_half"
	KindAbsent           Kind = "absent"
)

// ReviewState is the manager review state of a daily submission.
type ReviewState string

const (
	ReviewPending  ReviewState = "pending"
	ReviewApproved ReviewState = "approved"
	ReviewRejected ReviewState = "rejected"
)

// Period identifies which part of a day a finding applies to.
type Period string

const (
	PeriodFullDay Period = ""
	PeriodAM      Period = "am"
	PeriodPM      Period = "pm"
)

// Status is the closed set of declarable day statuses: FullDay or HalfDay.
// Values can only be built through FullDayStatus, HalfDayStatus or ParseStatus.
type Status interface {
	Kind() Kind
	String() string
	isStatus()
}

// FullDay is a single mode for the whole day.
type FullDay struct {
	mode Mode
}

func (FullDay) isStatus() {}

func (f FullDay) Mode() Mode { return f.mode }

func (f FullDay) Kind() Kind {
	switch f.mode {
	case ModeInOffice:
		return KindInOfficeFull
	case ModeWorkFromHome:
		return KindWorkFromHomeFull
	case ModeLeave:
		return KindLeaveFull
	default:
		return KindAbsent
	}
}

func (f FullDay) String() string { return string(f.Kind()) }

// HalfDay splits the day into an AM and a PM mode that always differ.
type HalfDay struct {
	kind Kind
	am   Mode
	pm   Mode
}

func (HalfDay) isStatus() {}

func (h HalfDay) Kind() Kind { return h.kind }
func (h HalfDay) AM() Mode   { return h.am }
func (h HalfDay) PM() Mode   { return h.pm }

func (h HalfDay) String() string {
	return fmt.Sprintf("%s (AM %s / PM %s)", h.kind, h.am, h.pm)
}

// FullDayStatus builds the full-day status for mode.
func FullDayStatus(mode Mode) (FullDay, error) {
	if !mode.valid() {
		return FullDay{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidStatus, mode)
	}
	return FullDay{mode: mode}, nil
}

// HalfDayStatus builds a half-day status. AM and PM must differ, and the mode
// the kind is named after must appear in at least one of the periods.
func HalfDayStatus(kind Kind, am, pm Mode) (HalfDay, error) {
	var primary Mode
	switch kind {
	case KindInOfficeHalf:
		primary = ModeInOffice
	case KindWorkFromHomeHalf:
		primary = ModeWorkFromHome
	case KindLeaveHalf:
		primary = ModeLeave
	default:
		return HalfDay{}, fmt.Errorf("%w: %q is not a half-day kind", ErrInvalidStatus, kind)
	}
	if !am.valid() || !pm.valid() {
		return HalfDay{}, fmt.Errorf("%w: unknown period mode (am=%q, pm=%q)", ErrInvalidStatus, am, pm)
	}
	if am == pm {
		return HalfDay{}, ErrHalfDaySamePeriods
	}
	if am != primary && pm != primary {
		return HalfDay{}, fmt.Errorf("%w: %s requires %s in one period", ErrInvalidStatus, kind, primary)
	}
	return HalfDay{kind: kind, am: am, pm: pm}, nil
}

// ParseStatus is the single validation point for stored or submitted statuses.
func ParseStatus(kind Kind, am, pm *Mode) (Status, error) {
	switch kind {
	case KindInOfficeFull:
		return FullDay{mode: ModeInOffice}, nil
	case KindWorkFromHomeFull:
		return FullDay{mode: ModeWorkFromHome}, nil
	case KindLeaveFull:
		return FullDay{mode: ModeLeave}, nil
	case KindAbsent:
		return FullDay{mode: ModeAbsent}, nil
	case KindInOfficeHalf, KindWorkFromHomeHalf, KindLeaveHalf:
		if am == nil || pm == nil {
			return nil, fmt.Errorf("%w: %s requires both AM and PM sub-types", ErrInvalidStatus, kind)
		}
		return HalfDayStatus(kind, *am, *pm)
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidStatus, kind)
}

// DeclaredStatus is what a worker submitted for one date.
type DeclaredStatus struct {
	ID            string
	WorkerID      string
	Date          time.Time
	Kind          Kind
	AMMode        *Mode
	PMMode        *Mode
	OvertimeHours *decimal.Decimal
	Review        ReviewState
	SubmittedAt   time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Status validates the stored columns and returns the typed status.
func (d DeclaredStatus) Status() (Status, error) {
	return ParseStatus(d.Kind, d.AMMode, d.PMMode)
}

// PhysicalPresence is the capture-system record for one worker-day.
type PhysicalPresence struct {
	ID              string
	WorkerID        string
	Date            time.Time
	Present         bool
	FirstSeen       *time.Time
	LastSeen        *time.Time
	DurationMinutes int
	ImportedAt      time.Time
}

// Duration is the computed time on site.
func (p PhysicalPresence) Duration() time.Duration {
	if p.DurationMinutes > 0 {
		return time.Duration(p.DurationMinutes) * time.Minute
	}
	if p.FirstSeen != nil && p.LastSeen != nil && p.LastSeen.After(*p.FirstSeen) {
		return p.LastSeen.Sub(*p.FirstSeen)
	}
	return 0
}

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey formats a date as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
