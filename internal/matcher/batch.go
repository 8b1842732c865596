package matcher

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MatchBatch classifies a slice of lines sequentially. The result slice is
// indexed positionally with the input and is equivalent to mapping
// MatchLog, sharing one scratch record and one snapshot across the batch.
func (m *LogMatcher) MatchBatch(lines []string) []Match {
	results := make([]Match, len(lines))
	if len(lines) == 0 {
		return results
	}

	snap := m.registry.Load().Snapshot()
	s := m.scratch.get()
	for i, line := range lines {
		id, ok := m.matchLine(snap, line, s)
		results[i] = Match{TemplateID: id, Matched: ok}
		s.reset()
		m.countResult(ok)
	}
	m.scratch.put(s)
	return results
}

// MatchBatchParallel classifies a slice of lines across worker goroutines.
// Results are identical to MatchBatch, positionally indexed with the
// input. Lines are split into chunks sized by the configured
// OptimalBatchSize hint; each worker uses its own scratch, and all workers
// share one snapshot so the whole call observes a single catalog state.
func (m *LogMatcher) MatchBatchParallel(lines []string) []Match {
	results := make([]Match, len(lines))
	if len(lines) == 0 {
		return results
	}

	chunk := m.cfg.OptimalBatchSize
	if chunk < 1 {
		chunk = 1
	}
	if len(lines) <= chunk {
		return m.MatchBatch(lines)
	}

	snap := m.registry.Load().Snapshot()

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for start := 0; start < len(lines); start += chunk {
		end := min(start+chunk, len(lines))
		g.Go(func() error {
			s := m.scratch.get()
			for i := start; i < end; i++ {
				id, ok := m.matchLine(snap, lines[i], s)
				results[i] = Match{TemplateID: id, Matched: ok}
				s.reset()
				m.countResult(ok)
			}
			m.scratch.put(s)
			return nil
		})
	}
	// Workers never return errors; Wait is a join.
	_ = g.Wait()
	return results
}

func (m *LogMatcher) countResult(ok bool) {
	if ok {
		m.metrics.IncMatches()
	} else {
		m.metrics.IncMisses()
	}
}
