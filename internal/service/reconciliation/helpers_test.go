package reconciliation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/approval"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/calendar"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/mismatch"
	"github.com/shopspring/decimal"
)

// memStore backs every repository the engine reads from and writes to.
type memStore struct {
	mu         sync.Mutex
	declared   []attendance.DeclaredStatus
	presence   []attendance.PhysicalPresence
	approvals  []approval.Record
	holidays   []calendar.NonWorkingDay
	mismatches map[string]mismatch.Mismatch
	insertErr  error
}

func newMemStore() *memStore {
	return &memStore{mismatches: make(map[string]mismatch.Mismatch)}
}

func inScope(workerIDs []string, workerID string, date, start, end time.Time) bool {
	d := attendance.Day(date)
	if d.Before(start) || d.After(end) {
		return false
	}
	if len(workerIDs) == 0 {
		return true
	}
	for _, id := range workerIDs {
		if id == workerID {
			return true
		}
	}
	return false
}

type memDeclared struct{ s *memStore }

func (r memDeclared) ListByRange(ctx context.Context, workerIDs []string, start, end time.Time) ([]attendance.DeclaredStatus, error) {
	var out []attendance.DeclaredStatus
	for _, d := range r.s.declared {
		if inScope(workerIDs, d.WorkerID, d.Date, start, end) {
			out = append(out, d)
		}
	}
	return out, nil
}

type memPresence struct{ s *memStore }

func (r memPresence) ListByRange(ctx context.Context, workerIDs []string, start, end time.Time) ([]attendance.PhysicalPresence, error) {
	var out []attendance.PhysicalPresence
	for _, p := range r.s.presence {
		if inScope(workerIDs, p.WorkerID, p.Date, start, end) {
			out = append(out, p)
		}
	}
	return out, nil
}

type memApprovals struct{ s *memStore }

func (r memApprovals) ListByRange(ctx context.Context, workerIDs []string, start, end time.Time) ([]approval.Record, error) {
	var out []approval.Record
	for _, a := range r.s.approvals {
		if inScope(workerIDs, a.WorkerID, a.Date, start, end) {
			out = append(out, a)
		}
	}
	return out, nil
}

type memCalendar struct{ s *memStore }

func (r memCalendar) ListByRange(ctx context.Context, start, end time.Time) ([]calendar.NonWorkingDay, error) {
	return r.s.holidays, nil
}

type memWorkers struct {
	ids []string
	err error
}

func (r memWorkers) ListActiveInRange(ctx context.Context, start, end time.Time) ([]string, error) {
	return r.ids, r.err
}

type memMismatches struct{ s *memStore }

func (r memMismatches) InsertIfAbsent(ctx context.Context, records []mismatch.Mismatch) ([]mismatch.Mismatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.insertErr != nil {
		return nil, r.s.insertErr
	}
	var created []mismatch.Mismatch
	for _, m := range records {
		if _, ok := r.s.mismatches[m.Key()]; ok {
			continue
		}
		m.CreatedAt = time.Now()
		r.s.mismatches[m.Key()] = m
		created = append(created, m)
	}
	return created, nil
}

func (r memMismatches) GetByID(ctx context.Context, id string) (mismatch.Mismatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.mismatches {
		if m.ID == id {
			return m, nil
		}
	}
	return mismatch.Mismatch{}, mismatch.ErrMismatchNotFound
}

func (r memMismatches) List(ctx context.Context, filter mismatch.MismatchFilter) ([]mismatch.Mismatch, int64, error) {
	return nil, 0, errors.New("not implemented")
}

func (r memMismatches) SaveExplanation(ctx context.Context, id string, explanation string, at time.Time) error {
	return errors.New("not implemented")
}

func (r memMismatches) SaveDecision(ctx context.Context, id string, decision mismatch.Decision, note *string, decidedBy string, at time.Time) error {
	return errors.New("not implemented")
}

func (s *memStore) all() []mismatch.Mismatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]mismatch.Mismatch, 0, len(s.mismatches))
	for _, m := range s.mismatches {
		out = append(out, m)
	}
	return out
}

func (s *memStore) forDay(workerID, date string) []mismatch.Mismatch {
	var out []mismatch.Mismatch
	for _, m := range s.all() {
		if m.WorkerID == workerID && attendance.DateKey(m.Date) == date {
			out = append(out, m)
		}
	}
	return out
}

func newTestEngine(cfg Config, s *memStore) *Engine {
	return NewEngine(cfg, memDeclared{s}, memPresence{s}, memApprovals{s}, memCalendar{s}, memMismatches{s})
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func at(date, clock string) *time.Time {
	t, err := time.Parse("2006-01-02 15:04", date+" "+clock)
	if err != nil {
		panic(err)
	}
	return &t
}

func modePtr(m attendance.Mode) *attendance.Mode {
	return &m
}

func hours(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func declare(workerID, date string, kind attendance.Kind) attendance.DeclaredStatus {
	return attendance.DeclaredStatus{
		ID:       workerID + "-" + date,
		WorkerID: workerID,
		Date:     day(date),
		Kind:     kind,
		Review:   attendance.ReviewPending,
	}
}

func declareHalf(workerID, date string, kind attendance.Kind, am, pm attendance.Mode) attendance.DeclaredStatus {
	d := declare(workerID, date, kind)
	d.AMMode = modePtr(am)
	d.PMMode = modePtr(pm)
	return d
}

func present(workerID, date, first, last string) attendance.PhysicalPresence {
	return attendance.PhysicalPresence{
		WorkerID:  workerID,
		Date:      day(date),
		Present:   true,
		FirstSeen: at(date, first),
		LastSeen:  at(date, last),
	}
}

func absent(workerID, date string) attendance.PhysicalPresence {
	return attendance.PhysicalPresence{WorkerID: workerID, Date: day(date)}
}

func cases(ds []Discrepancy) []Case {
	out := make([]Case, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Case)
	}
	return out
}
