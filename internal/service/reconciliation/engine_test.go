package reconciliation

import (
	"context"
	"errors"
	"testing"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/approval"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/calendar"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/mismatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runDays(t *testing.T, e *Engine, workers []string, start, end string) RunResult {
	t.Helper()
	res, err := e.Run(context.Background(), "run-1", workers, day(start), day(end))
	require.NoError(t, err)
	return res
}

// Declared remote, physically present
func TestEngine_Run_RemoteButPresent(t *testing.T) {
	s := newMemStore()
	s.declared = append(s.declared, declare("W1", "2025-09-09", attendance.KindWorkFromHomeFull))
	s.presence = append(s.presence, present("W1", "2025-09-09", "09:00", "17:00"))

	res := runDays(t, newTestEngine(DefaultConfig(), s), []string{"W1"}, "2025-09-09", "2025-09-09")

	got := s.forDay("W1", "2025-09-09")
	require.Len(t, got, 1)
	assert.Equal(t, mismatch.CategoryStatusVsPresenceConflict, got[0].Category)
	assert.Equal(t, mismatch.SeverityHigh, got[0].Severity)
	assert.Equal(t, "run-1", got[0].RunID)
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, mismatch.StatePending, got[0].State())
	assert.Equal(t, 1, res.Summary.MismatchesCreated)
	assert.Equal(t, 1, res.Summary.WorkerDaysProcessed)
}

// In-office declaration on a Saturday
func TestEngine_Run_NonWorkingDaySubmission(t *testing.T) {
	s := newMemStore()
	s.declared = append(s.declared, declare("W2", "2025-09-13", attendance.KindInOfficeFull))

	res := runDays(t, newTestEngine(DefaultConfig(), s), []string{"W2"}, "2025-09-13", "2025-09-13")

	got := s.forDay("W2", "2025-09-13")
	require.Len(t, got, 1)
	assert.Equal(t, mismatch.CategoryNonWorkingDaySubmission, got[0].Category)
	assert.Equal(t, 1, res.Summary.NonWorkingDaysSkipped)
}

// Half-day AM office / PM remote, presence until 13:30
func TestEngine_Run_HalfDayPeriodConflict(t *testing.T) {
	s := newMemStore()
	s.declared = append(s.declared, declareHalf("W3", "2025-08-29", attendance.KindInOfficeHalf, attendance.ModeInOffice, attendance.ModeWorkFromHome))
	s.presence = append(s.presence, present("W3", "2025-08-29", "08:55", "13:30"))

	runDays(t, newTestEngine(DefaultConfig(), s), []string{"W3"}, "2025-08-29", "2025-08-29")

	got := s.forDay("W3", "2025-08-29")
	require.Len(t, got, 1)
	assert.Equal(t, mismatch.CategoryHalfDayPeriodConflict, got[0].Category)
	require.Len(t, got[0].Detail.Findings, 1)
	assert.Equal(t, attendance.PeriodPM, got[0].Detail.Findings[0].Period)
	assert.Equal(t, "PM marked WFH but presence recorded", got[0].Detail.Findings[0].Note)
}

// Leave without an approval record and with a pending review
func TestEngine_Run_MissingApprovalRecord(t *testing.T) {
	s := newMemStore()
	s.declared = append(s.declared, declare("W4", "2025-09-02", attendance.KindLeaveFull))
	s.presence = append(s.presence, absent("W4", "2025-09-02"))

	res := runDays(t, newTestEngine(DefaultConfig(), s), []string{"W4"}, "2025-09-02", "2025-09-02")

	got := s.forDay("W4", "2025-09-02")
	require.Len(t, got, 1)
	assert.Equal(t, mismatch.CategoryMissingApprovalRecord, got[0].Category)
	assert.Equal(t, mismatch.SeverityMedium, got[0].Severity)
	assert.Equal(t, 0, res.Summary.MismatchesSuppressed)
}

// Presence with no declaration
func TestEngine_Run_MissingSubmission(t *testing.T) {
	s := newMemStore()
	s.presence = append(s.presence, present("W5", "2025-09-15", "09:00", "17:00"))

	runDays(t, newTestEngine(DefaultConfig(), s), []string{"W5"}, "2025-09-15", "2025-09-15")

	got := s.forDay("W5", "2025-09-15")
	require.Len(t, got, 1)
	assert.Equal(t, mismatch.CategoryMissingSubmission, got[0].Category)
	assert.Equal(t, mismatch.SeverityHigh, got[0].Severity)
	assert.Equal(t, "Submit status for this date.", got[0].Recommendation)
}

func TestEngine_Run_IsIdempotent(t *testing.T) {
	s := newMemStore()
	s.declared = append(s.declared,
		declare("W1", "2025-09-09", attendance.KindWorkFromHomeFull),
		declare("W1", "2025-09-10", attendance.KindLeaveFull),
	)
	s.presence = append(s.presence,
		present("W1", "2025-09-09", "09:00", "17:00"),
		present("W2", "2025-09-10", "09:00", "17:00"),
	)
	e := newTestEngine(DefaultConfig(), s)

	first := runDays(t, e, []string{"W1", "W2"}, "2025-09-08", "2025-09-12")
	before := len(s.all())
	second := runDays(t, e, []string{"W1", "W2"}, "2025-09-08", "2025-09-12")

	assert.Equal(t, 3, first.Summary.MismatchesCreated)
	assert.Equal(t, before, len(s.all()))
	assert.Equal(t, 0, second.Summary.MismatchesCreated)
	assert.Equal(t, 3, second.Summary.MismatchesExisting)
	assert.Empty(t, second.Created)
}

func TestEngine_Run_DoesNotTouchDecidedRecords(t *testing.T) {
	s := newMemStore()
	s.declared = append(s.declared, declare("W1", "2025-09-09", attendance.KindWorkFromHomeFull))
	s.presence = append(s.presence, present("W1", "2025-09-09", "09:00", "17:00"))
	e := newTestEngine(DefaultConfig(), s)

	runDays(t, e, []string{"W1"}, "2025-09-09", "2025-09-09")
	key := s.all()[0].Key()
	explanation := "badge reader was down"
	settled := s.mismatches[key]
	settled.Explanation = &explanation
	settled.Decision = mismatch.DecisionApproved
	s.mismatches[key] = settled

	runDays(t, e, []string{"W1"}, "2025-09-09", "2025-09-09")

	assert.Equal(t, mismatch.StateApproved, s.mismatches[key].State())
	assert.Equal(t, settled.ID, s.mismatches[key].ID)
}

func TestEngine_Run_NonWorkingDayOnlyReportsSubmission(t *testing.T) {
	s := newMemStore()
	s.holidays = []calendar.NonWorkingDay{{Date: day("2025-09-10"), Reason: calendar.ReasonHoliday, Name: "Founders Day"}}
	s.declared = append(s.declared,
		// Would be a presence conflict on a working day
		declare("W1", "2025-09-10", attendance.KindWorkFromHomeFull),
		declare("W1", "2025-09-14", attendance.KindLeaveFull),
	)
	s.presence = append(s.presence,
		present("W1", "2025-09-10", "12:00", "13:00"),
		present("W2", "2025-09-13", "09:00", "17:00"),
		present("W2", "2025-09-10", "09:00", "17:00"),
	)
	cfg := DefaultConfig()
	cfg.CategoryLimit = 10

	res := runDays(t, newTestEngine(cfg, s), []string{"W1", "W2"}, "2025-09-10", "2025-09-14")

	for _, m := range s.all() {
		d := attendance.DateKey(m.Date)
		if d == "2025-09-10" || d == "2025-09-13" || d == "2025-09-14" {
			assert.Equal(t, mismatch.CategoryNonWorkingDaySubmission, m.Category, m.Key())
			assert.Equal(t, "W1", m.WorkerID, m.Key())
		}
	}
	assert.Len(t, s.forDay("W1", "2025-09-10"), 1)
	assert.Len(t, s.forDay("W1", "2025-09-14"), 1)
	assert.Empty(t, s.forDay("W2", "2025-09-13"))
	assert.Equal(t, 6, res.Summary.NonWorkingDaysSkipped)
	assert.Equal(t, 10, res.Summary.WorkerDaysProcessed)
}

func TestEngine_Run_ApprovalSuppression(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(s *memStore, d *attendance.DeclaredStatus)
		expect int
	}{
		{
			name: "approved wfh record",
			setup: func(s *memStore, d *attendance.DeclaredStatus) {
				s.approvals = append(s.approvals, approval.Record{WorkerID: "W1", Date: day("2025-09-09"), Type: approval.TypeWorkFromHome, Approved: true})
			},
		},
		{
			name: "manager approved the submission",
			setup: func(s *memStore, d *attendance.DeclaredStatus) {
				d.Review = attendance.ReviewApproved
			},
		},
		{
			name: "leave record does not cover wfh",
			setup: func(s *memStore, d *attendance.DeclaredStatus) {
				s.approvals = append(s.approvals, approval.Record{WorkerID: "W1", Date: day("2025-09-09"), Type: approval.TypeLeave, Approved: true})
			},
			expect: 1,
		},
		{
			name: "unapproved wfh record",
			setup: func(s *memStore, d *attendance.DeclaredStatus) {
				s.approvals = append(s.approvals, approval.Record{WorkerID: "W1", Date: day("2025-09-09"), Type: approval.TypeWorkFromHome})
			},
			expect: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newMemStore()
			d := declare("W1", "2025-09-09", attendance.KindWorkFromHomeFull)
			s.presence = append(s.presence, absent("W1", "2025-09-09"))
			tt.setup(s, &d)
			s.declared = append(s.declared, d)

			res := runDays(t, newTestEngine(DefaultConfig(), s), []string{"W1"}, "2025-09-09", "2025-09-09")

			assert.Len(t, s.all(), tt.expect)
			assert.Equal(t, 1-tt.expect, res.Summary.MismatchesSuppressed)
			for _, m := range s.all() {
				assert.Equal(t, mismatch.CategoryMissingApprovalRecord, m.Category)
			}
		})
	}
}

func TestEngine_Run_PresenceOverridesApproval(t *testing.T) {
	for _, kind := range []attendance.Kind{attendance.KindWorkFromHomeFull, attendance.KindLeaveFull} {
		t.Run(string(kind), func(t *testing.T) {
			s := newMemStore()
			d := declare("W1", "2025-09-09", kind)
			d.Review = attendance.ReviewApproved
			s.declared = append(s.declared, d)
			s.presence = append(s.presence, present("W1", "2025-09-09", "09:00", "17:00"))
			s.approvals = append(s.approvals,
				approval.Record{WorkerID: "W1", Date: day("2025-09-09"), Type: approval.TypeWorkFromHome, Approved: true},
				approval.Record{WorkerID: "W1", Date: day("2025-09-09"), Type: approval.TypeLeave, Approved: true},
			)

			runDays(t, newTestEngine(DefaultConfig(), s), []string{"W1"}, "2025-09-09", "2025-09-09")

			got := s.all()
			require.Len(t, got, 1)
			assert.Equal(t, mismatch.CategoryStatusVsPresenceConflict, got[0].Category)
		})
	}
}

func TestEngine_Run_CategoryCap(t *testing.T) {
	s := newMemStore()
	for _, d := range []string{"2025-09-08", "2025-09-09", "2025-09-10", "2025-09-11", "2025-09-12"} {
		s.presence = append(s.presence, present("W1", d, "09:00", "17:00"))
	}

	res := runDays(t, newTestEngine(DefaultConfig(), s), []string{"W1"}, "2025-09-08", "2025-09-12")

	got := s.all()
	assert.Len(t, got, 2)
	assert.Equal(t, 2, res.Summary.MismatchesCreated)
	assert.Equal(t, 3, res.Summary.MismatchesCapped)
	assert.Len(t, s.forDay("W1", "2025-09-08"), 1)
	assert.Len(t, s.forDay("W1", "2025-09-09"), 1)
}

func TestEngine_Run_InvalidStatusFailsOnlyThatDay(t *testing.T) {
	s := newMemStore()
	bad := declareHalf("W1", "2025-09-09", attendance.KindWorkFromHomeHalf, attendance.ModeWorkFromHome, attendance.ModeWorkFromHome)
	s.declared = append(s.declared, bad)
	s.presence = append(s.presence,
		present("W1", "2025-09-09", "09:00", "17:00"),
		present("W2", "2025-09-09", "09:00", "17:00"),
	)

	res := runDays(t, newTestEngine(DefaultConfig(), s), []string{"W1", "W2"}, "2025-09-09", "2025-09-09")

	assert.Equal(t, 1, res.Summary.WorkerDaysFailed)
	assert.Equal(t, 1, res.Summary.WorkerDaysProcessed)
	assert.Empty(t, s.forDay("W1", "2025-09-09"))
	assert.Len(t, s.forDay("W2", "2025-09-09"), 1)
}

func TestEngine_Run_CancelledRunPersistsNothing(t *testing.T) {
	s := newMemStore()
	s.presence = append(s.presence, present("W5", "2025-09-15", "09:00", "17:00"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newTestEngine(DefaultConfig(), s).Run(ctx, "run-1", []string{"W5"}, day("2025-09-15"), day("2025-09-15"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, res.Summary.Interrupted)
	assert.Empty(t, s.all())
}

func TestEngine_Run_PersistFailure(t *testing.T) {
	s := newMemStore()
	s.presence = append(s.presence, present("W5", "2025-09-15", "09:00", "17:00"))
	s.insertErr = errors.New("connection reset")

	_, err := newTestEngine(DefaultConfig(), s).Run(context.Background(), "run-1", []string{"W5"}, day("2025-09-15"), day("2025-09-15"))

	assert.ErrorContains(t, err, "connection reset")
}

func TestEngine_Run_NoWorkers(t *testing.T) {
	s := newMemStore()

	res := runDays(t, newTestEngine(DefaultConfig(), s), nil, "2025-09-01", "2025-09-30")

	assert.Equal(t, 0, res.Summary.WorkerDaysProcessed)
	assert.Equal(t, "2025-09-01", res.Summary.StartDate)
	assert.Equal(t, "2025-09-30", res.Summary.EndDate)
}

func TestEngine_Run_TimingAndOvertimeOnAgreeingDay(t *testing.T) {
	s := newMemStore()
	d := declare("W1", "2025-09-09", attendance.KindInOfficeFull)
	d.OvertimeHours = hours("4")
	s.declared = append(s.declared, d)
	s.presence = append(s.presence, present("W1", "2025-09-09", "11:30", "17:30"))

	runDays(t, newTestEngine(DefaultConfig(), s), []string{"W1"}, "2025-09-09", "2025-09-09")

	got := s.forDay("W1", "2025-09-09")
	categories := make([]mismatch.Category, 0, len(got))
	for _, m := range got {
		categories = append(categories, m.Category)
		assert.Equal(t, mismatch.SeverityLow, m.Severity)
	}
	assert.ElementsMatch(t, []mismatch.Category{mismatch.CategoryTimingViolation, mismatch.CategoryOvertimeVariance}, categories)
}
