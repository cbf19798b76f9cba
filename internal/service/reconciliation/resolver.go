package reconciliation

import (
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/approval"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/attendance"
)

// Suppressed reports whether a tentative discrepancy is justified, either by an
// approved record of the matching type or by the manager having approved the
// daily submission. Non-tentative discrepancies are never suppressed: presence
// is physical ground truth.
func Suppressed(d Discrepancy, declared *attendance.DeclaredStatus, approvals []approval.Record) bool {
	if !d.Tentative() {
		return false
	}
	if declared != nil && declared.Review == attendance.ReviewApproved {
		return true
	}
	want := d.RequiredApproval()
	for _, a := range approvals {
		if a.Approved && a.Type == want {
			return true
		}
	}
	return false
}

// Resolve drops suppressed discrepancies and promotes the rest to reportable.
func Resolve(ds []Discrepancy, declared *attendance.DeclaredStatus, approvals []approval.Record) (reportable []Discrepancy, suppressed int) {
	for _, d := range ds {
		if Suppressed(d, declared, approvals) {
			suppressed++
			continue
		}
		reportable = append(reportable, d)
	}
	return reportable, suppressed
}
