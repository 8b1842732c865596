package matcher

import (
	"sync"
)

// candidate is one template under consideration for a line: how many
// distinct fragments hit versus how many the template requires.
type candidate struct {
	templateID uint64
	hits       int
	required   int
}

// scratch is the per-worker working memory for a single match call. It is
// cleared before each use but its capacity is retained, so steady-state
// matching performs no heap allocation regardless of hit density.
type scratch struct {
	// hits maps template id to the set of distinct fragment ids counted
	// for it on this line. Sets, not counters: a fragment matched twice in
	// one line still counts once toward coverage.
	hits map[uint64]map[uint32]struct{}

	// setPool recycles the inner sets across calls.
	setPool []map[uint32]struct{}

	// candidates is the ranked candidate vector.
	candidates []candidate
}

func newScratch() *scratch {
	return &scratch{
		hits: make(map[uint64]map[uint32]struct{}),
	}
}

// insert records a distinct fragment hit for a template.
func (s *scratch) insert(templateID uint64, fragmentID uint32) {
	set := s.hits[templateID]
	if set == nil {
		set = s.takeSet()
		s.hits[templateID] = set
	}
	set[fragmentID] = struct{}{}
}

func (s *scratch) takeSet() map[uint32]struct{} {
	if n := len(s.setPool); n > 0 {
		set := s.setPool[n-1]
		s.setPool = s.setPool[:n-1]
		return set
	}
	// Typical per-template hit sets stay small; 8 covers most templates
	// without a grow.
	return make(map[uint32]struct{}, 8)
}

// reset returns the inner sets to the pool and empties the maps while
// keeping their capacity.
func (s *scratch) reset() {
	for id, set := range s.hits {
		clear(set)
		s.setPool = append(s.setPool, set)
		delete(s.hits, id)
	}
	s.candidates = s.candidates[:0]
}

// scratchPool hands out per-worker scratch records. sync.Pool keeps reuse
// per-P, which matches the one-scratch-per-OS-thread model: a match is
// CPU-bound and never preempted at user level mid-call.
type scratchPool struct {
	pool sync.Pool
}

func newScratchPool() *scratchPool {
	return &scratchPool{
		pool: sync.Pool{
			New: func() any { return newScratch() },
		},
	}
}

func (p *scratchPool) get() *scratch {
	return p.pool.Get().(*scratch)
}

func (p *scratchPool) put(s *scratch) {
	s.reset()
	p.pool.Put(s)
}
