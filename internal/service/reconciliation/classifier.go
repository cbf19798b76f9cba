package reconciliation

import (
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/mismatch"
)

type classKey struct {
	c       Case
	halfDay bool
}

type classification struct {
	category mismatch.Category
	severity mismatch.Severity
}

// severityTable is the fixed category and severity assignment per sub-case.
var severityTable = map[classKey]classification{
	{CaseOfficeNoPresence, false}: {mismatch.CategoryStatusVsPresenceConflict, mismatch.SeverityHigh},
	{CaseRemoteButPresent, false}: {mismatch.CategoryStatusVsPresenceConflict, mismatch.SeverityHigh},
	{CaseLeaveButPresent, false}:  {mismatch.CategoryStatusVsPresenceConflict, mismatch.SeverityHigh},

	{CaseOfficeNoPresence, true}: {mismatch.CategoryHalfDayPeriodConflict, mismatch.SeverityMedium},
	{CaseRemoteButPresent, true}: {mismatch.CategoryHalfDayPeriodConflict, mismatch.SeverityMedium},
	{CaseLeaveButPresent, true}:  {mismatch.CategoryHalfDayPeriodConflict, mismatch.SeverityMedium},
	{CaseAbsentButPresent, true}: {mismatch.CategoryHalfDayPeriodConflict, mismatch.SeverityMedium},

	{CaseRemoteUnconfirmed, false}: {mismatch.CategoryMissingApprovalRecord, mismatch.SeverityMedium},
	{CaseLeaveUnconfirmed, false}:  {mismatch.CategoryMissingApprovalRecord, mismatch.SeverityMedium},
	{CaseRemoteUnconfirmed, true}:  {mismatch.CategoryMissingApprovalRecord, mismatch.SeverityLow},
	{CaseLeaveUnconfirmed, true}:   {mismatch.CategoryMissingApprovalRecord, mismatch.SeverityLow},

	{CasePresenceWithoutDeclaration, false}: {mismatch.CategoryMissingSubmission, mismatch.SeverityHigh},

	{CaseLateArrival, false}:    {mismatch.CategoryTimingViolation, mismatch.SeverityLow},
	{CaseLateArrival, true}:     {mismatch.CategoryTimingViolation, mismatch.SeverityLow},
	{CaseEarlyDeparture, false}: {mismatch.CategoryTimingViolation, mismatch.SeverityLow},
	{CaseEarlyDeparture, true}:  {mismatch.CategoryTimingViolation, mismatch.SeverityLow},

	{CaseOvertimeVariance, false}: {mismatch.CategoryOvertimeVariance, mismatch.SeverityLow},

	{CaseNonWorkingDaySubmission, false}: {mismatch.CategoryNonWorkingDaySubmission, mismatch.SeverityLow},
}

// defaultClassification applies to any sub-case missing from the table.
var defaultClassification = classification{mismatch.CategoryStatusVsPresenceConflict, mismatch.SeverityMedium}

// Classify maps one discrepancy to its category and severity.
func Classify(d Discrepancy) (mismatch.Category, mismatch.Severity) {
	cl, ok := severityTable[classKey{d.Case, d.Period != attendance.PeriodFullDay}]
	if !ok {
		cl = defaultClassification
	}
	return cl.category, cl.severity
}

var recommendations = map[mismatch.Category]string{
	mismatch.CategoryStatusVsPresenceConflict: "Update status to match physical record.",
	mismatch.CategoryMissingApprovalRecord:    "Attach an approved leave or work-from-home record, or ask your manager to approve the daily submission.",
	mismatch.CategoryMissingSubmission:        "Submit status for this date.",
	mismatch.CategoryTimingViolation:          "Explain the late arrival or early departure, or correct the presence record.",
	mismatch.CategoryOvertimeVariance:         "Correct the declared overtime hours to match recorded presence.",
	mismatch.CategoryNonWorkingDaySubmission:  "Withdraw the submission, or confirm the non-working day was worked.",
}

// Recommend returns the deterministic recommendation for a category.
func Recommend(category mismatch.Category, findings []mismatch.Finding) string {
	if category == mismatch.CategoryHalfDayPeriodConflict {
		var periods []string
		for _, f := range findings {
			if f.Period != attendance.PeriodFullDay {
				periods = append(periods, strings.ToUpper(string(f.Period)))
			}
		}
		return "Update the " + strings.Join(periods, " and ") + " period status to match physical record."
	}
	return recommendations[category]
}

// DayContext carries the whole-day labels shared by every mismatch of a worker-day.
type DayContext struct {
	WorkerID string
	Date     time.Time
	Declared string
	Observed string
}

// Build turns reportable discrepancies into mismatch candidates, one per category.
// Several discrepancies of the same category are merged; the highest severity wins.
func Build(day DayContext, ds []Discrepancy) []mismatch.Mismatch {
	var (
		order  []mismatch.Category
		byCat  = make(map[mismatch.Category]*mismatch.Mismatch)
		date   = attendance.Day(day.Date)
		result []mismatch.Mismatch
	)

	for _, d := range ds {
		category, severity := Classify(d)
		m, ok := byCat[category]
		if !ok {
			m = &mismatch.Mismatch{
				WorkerID: day.WorkerID,
				Date:     date,
				Category: category,
				Severity: severity,
				Decision: mismatch.DecisionPending,
				Detail: mismatch.Detail{
					Declared: day.Declared,
					Observed: day.Observed,
				},
			}
			byCat[category] = m
			order = append(order, category)
		}
		if severity.Rank() > m.Severity.Rank() {
			m.Severity = severity
		}
		m.Detail.Findings = append(m.Detail.Findings, mismatch.Finding{
			Period:   d.Period,
			Declared: d.Declared,
			Observed: d.Observed,
			Note:     d.Note,
		})
	}

	for _, category := range order {
		m := byCat[category]
		sort.SliceStable(m.Detail.Findings, func(i, j int) bool {
			return periodRank(m.Detail.Findings[i].Period) < periodRank(m.Detail.Findings[j].Period)
		})
		m.Recommendation = Recommend(category, m.Detail.Findings)
		result = append(result, *m)
	}
	return result
}

func periodRank(p attendance.Period) int {
	switch p {
	case attendance.PeriodAM:
		return 1
	case attendance.PeriodPM:
		return 2
	}
	return 0
}
