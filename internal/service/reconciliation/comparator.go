package reconciliation

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/approval"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

// Case identifies the sub-case a raw discrepancy came from. Category and
// severity are looked up from it by the classifier.
type Case string

const (
	CaseOfficeNoPresence           Case = "office_no_presence"
	CaseRemoteButPresent           Case = "remote_but_present"
	CaseLeaveButPresent            Case = "leave_but_present"
	CaseAbsentButPresent           Case = "absent_but_present"
	CaseRemoteUnconfirmed          Case = "remote_unconfirmed"
	CaseLeaveUnconfirmed           Case = "leave_unconfirmed"
	CasePresenceWithoutDeclaration Case = "presence_without_declaration"
	CaseLateArrival                Case = "late_arrival"
	CaseEarlyDeparture             Case = "early_departure"
	CaseOvertimeVariance           Case = "overtime_variance"
	CaseNonWorkingDaySubmission    Case = "non_working_day_submission"
)

// Discrepancy is a raw, unclassified finding for one worker-day or one half-day period.
type Discrepancy struct {
	Case     Case
	Period   attendance.Period
	Declared string
	Observed string
	Note     string
}

// Tentative discrepancies are decided by the approval resolver.
func (d Discrepancy) Tentative() bool {
	return d.Case == CaseRemoteUnconfirmed || d.Case == CaseLeaveUnconfirmed
}

// RequiredApproval is the approval type that would justify a tentative discrepancy.
func (d Discrepancy) RequiredApproval() approval.Type {
	if d.Case == CaseLeaveUnconfirmed {
		return approval.TypeLeave
	}
	return approval.TypeWorkFromHome
}

// Comparator decides whether a declaration agrees with the physical presence signal.
type Comparator struct {
	cfg Config
}

func NewComparator(cfg Config) *Comparator {
	return &Comparator{cfg: cfg}
}

// Compare runs the status-versus-presence comparison. status is nil when no
// declaration exists; presence is nil when the capture system has no record.
func (c *Comparator) Compare(status attendance.Status, presence *attendance.PhysicalPresence) []Discrepancy {
	present := presence != nil && presence.Present
	observed := c.describePresence(presence)

	switch s := status.(type) {
	case nil:
		if present {
			return []Discrepancy{{
				Case:     CasePresenceWithoutDeclaration,
				Declared: "no declaration",
				Observed: observed,
				Note:     "physical presence with no declared status",
			}}
		}
	case attendance.FullDay:
		if d, ok := compareMode(s.Mode(), attendance.PeriodFullDay, present); ok {
			d.Declared = s.String()
			d.Observed = observed
			return []Discrepancy{d}
		}
	case attendance.HalfDay:
		var out []Discrepancy
		for _, p := range []struct {
			period attendance.Period
			mode   attendance.Mode
		}{
			{attendance.PeriodAM, s.AM()},
			{attendance.PeriodPM, s.PM()},
		} {
			if d, ok := compareMode(p.mode, p.period, present); ok {
				d.Declared = string(p.mode)
				d.Observed = observed
				out = append(out, d)
			}
		}
		return out
	}
	return nil
}

func compareMode(mode attendance.Mode, period attendance.Period, present bool) (Discrepancy, bool) {
	d := Discrepancy{Period: period}
	switch mode {
	case attendance.ModeInOffice:
		if present {
			return d, false
		}
		d.Case = CaseOfficeNoPresence
		d.Note = periodNote(period, "declared office presence but no physical record", "marked in office but no physical record")
	case attendance.ModeWorkFromHome:
		if present {
			d.Case = CaseRemoteButPresent
			d.Note = periodNote(period, "declared remote but physically present", "marked WFH but presence recorded")
		} else {
			d.Case = CaseRemoteUnconfirmed
			d.Note = periodNote(period, "remote claim unconfirmed", "marked WFH without an approval record")
		}
	case attendance.ModeLeave:
		if present {
			d.Case = CaseLeaveButPresent
			d.Note = periodNote(period, "declared leave but physically present", "marked leave but presence recorded")
		} else {
			d.Case = CaseLeaveUnconfirmed
			d.Note = periodNote(period, "leave claim unconfirmed", "marked leave without an approval record")
		}
	case attendance.ModeAbsent:
		if !present {
			return d, false
		}
		if period == attendance.PeriodFullDay {
			d.Case = CasePresenceWithoutDeclaration
			d.Note = "physical presence with no declared status"
		} else {
			d.Case = CaseAbsentButPresent
			d.Note = periodNote(period, "", "marked absent but presence recorded")
		}
	default:
		return d, false
	}
	return d, true
}

func periodNote(period attendance.Period, fullDay, halfDay string) string {
	if period == attendance.PeriodFullDay {
		return fullDay
	}
	return strings.ToUpper(string(period)) + " " + halfDay
}

// CheckTiming layers late-arrival and early-departure checks on periods declared in office.
func (c *Comparator) CheckTiming(status attendance.Status, presence *attendance.PhysicalPresence) []Discrepancy {
	if presence == nil || !presence.Present {
		return nil
	}

	var (
		period      attendance.Period
		lateAfter   Clock
		earlyBefore Clock
	)
	switch s := status.(type) {
	case attendance.FullDay:
		if s.Mode() != attendance.ModeInOffice {
			return nil
		}
		period = attendance.PeriodFullDay
		lateAfter = c.cfg.LateArrivalAfter
		earlyBefore = c.cfg.EarlyDepartureBefore
	case attendance.HalfDay:
		// AM and PM always differ, so at most one period is in office.
		if s.AM() == attendance.ModeInOffice {
			period = attendance.PeriodAM
			lateAfter = c.cfg.LateArrivalAfter
			earlyBefore = c.cfg.AMWindow.End
		} else if s.PM() == attendance.ModeInOffice {
			period = attendance.PeriodPM
			lateAfter = c.cfg.PMWindow.Start + (c.cfg.LateArrivalAfter - c.cfg.AMWindow.Start)
			earlyBefore = c.cfg.EarlyDepartureBefore
		} else {
			return nil
		}
	default:
		return nil
	}

	declared := string(attendance.ModeInOffice)
	var out []Discrepancy
	if presence.FirstSeen != nil {
		if first := clockOf(*presence.FirstSeen, c.cfg.Location); first > lateAfter {
			out = append(out, Discrepancy{
				Case:     CaseLateArrival,
				Period:   period,
				Declared: declared,
				Observed: "first seen " + first.String(),
				Note:     fmt.Sprintf("late arrival: first seen %s, after %s", first, lateAfter),
			})
		}
	}
	if presence.LastSeen != nil {
		if last := clockOf(*presence.LastSeen, c.cfg.Location); last < earlyBefore {
			out = append(out, Discrepancy{
				Case:     CaseEarlyDeparture,
				Period:   period,
				Declared: declared,
				Observed: "last seen " + last.String(),
				Note:     fmt.Sprintf("early departure: last seen %s, before %s", last, earlyBefore),
			})
		}
	}
	return out
}

// CheckOvertime compares declared extra hours with the overtime implied by presence duration.
func (c *Comparator) CheckOvertime(declared *attendance.DeclaredStatus, presence *attendance.PhysicalPresence) []Discrepancy {
	if declared == nil || declared.OvertimeHours == nil {
		return nil
	}

	computed := decimal.Zero
	if presence != nil && presence.Present {
		worked := decimal.NewFromInt(int64(presence.Duration() / time.Minute)).Div(decimal.NewFromInt(60))
		computed = worked.Sub(c.cfg.StandardWorkHours)
		if computed.IsNegative() {
			computed = decimal.Zero
		}
	}

	variance := declared.OvertimeHours.Sub(computed).Abs()
	if !variance.GreaterThan(c.cfg.OvertimeVarianceThreshold) {
		return nil
	}
	return []Discrepancy{{
		Case:     CaseOvertimeVariance,
		Declared: "overtime " + declared.OvertimeHours.StringFixed(2) + "h",
		Observed: "computed overtime " + computed.StringFixed(2) + "h",
		Note: fmt.Sprintf("overtime variance %sh exceeds %sh",
			variance.StringFixed(2), c.cfg.OvertimeVarianceThreshold.StringFixed(2)),
	}}
}

// CheckNonWorkingDay flags a declaration submitted for a weekend or holiday.
func (c *Comparator) CheckNonWorkingDay(status attendance.Status, reason string) []Discrepancy {
	if status == nil {
		return nil
	}
	return []Discrepancy{{
		Case:     CaseNonWorkingDaySubmission,
		Declared: status.String(),
		Observed: reason,
		Note:     "status submitted for a non-working day (" + reason + ")",
	}}
}

func (c *Comparator) describePresence(p *attendance.PhysicalPresence) string {
	if p == nil {
		return "no physical record"
	}
	if !p.Present {
		return "absent"
	}
	var b strings.Builder
	b.WriteString("present")
	if p.FirstSeen != nil && p.LastSeen != nil {
		fmt.Fprintf(&b, " %s-%s", clockOf(*p.FirstSeen, c.cfg.Location), clockOf(*p.LastSeen, c.cfg.Location))
	}
	if d := p.Duration(); d > 0 {
		fmt.Fprintf(&b, " (%s)", d.Truncate(time.Minute))
	}
	return b.String()
}
