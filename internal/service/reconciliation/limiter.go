package reconciliation

import (
	"sort"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/mismatch"
)

// Limit keeps at most limit candidates per category within scope and drops the
// rest. Candidates are ranked by severity, then date, then worker, so the same
// input always keeps the same records. Duplicate (worker, date, category) keys
// are collapsed before counting.
func Limit(candidates []mismatch.Mismatch, limit int, scope LimitScope) (kept, dropped []mismatch.Mismatch) {
	ranked := make([]mismatch.Mismatch, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.WorkerID != b.WorkerID {
			return a.WorkerID < b.WorkerID
		}
		return a.Category < b.Category
	})

	seen := make(map[string]bool, len(ranked))
	counts := make(map[string]int)
	for _, m := range ranked {
		if seen[m.Key()] {
			continue
		}
		seen[m.Key()] = true

		group := string(m.Category)
		if scope == LimitPerWorker {
			group = m.WorkerID + "|" + group
		}
		if counts[group] >= limit {
			dropped = append(dropped, m)
			continue
		}
		counts[group]++
		kept = append(kept, m)
	}
	return kept, dropped
}
