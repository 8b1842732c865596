package fragment

import (
	ahocorasick "github.com/pgavlin/aho-corasick"

	"github.com/logsift/logsift/internal/config"
)

// Index assigns stable ids to unique fragment strings and owns the
// multi-pattern automaton built over all live fragments.
//
// Fragment ids are dense, assigned at first interning, and never reused.
// The fragment table is append-only for the lifetime of the index: removing
// a template does not retire its fragments.
//
// Index is not safe for concurrent mutation. Callers serialize Intern and
// Rebuild behind the registry write lock; readers only touch the immutable
// Automaton handed out by Rebuild.
type Index struct {
	ids     map[string]uint32
	strings []string
	dirty   bool
}

// NewIndex creates an empty fragment index.
func NewIndex() *Index {
	return &Index{
		ids: make(map[string]uint32),
	}
}

// Intern returns the id for a fragment string, allocating the next
// consecutive id if the string has not been seen before. A newly allocated
// id marks the index dirty until the next Rebuild.
func (ix *Index) Intern(fragment string) uint32 {
	if id, ok := ix.ids[fragment]; ok {
		return id
	}
	id := uint32(len(ix.strings))
	ix.ids[fragment] = id
	ix.strings = append(ix.strings, fragment)
	ix.dirty = true
	return id
}

// Len returns the number of interned fragments.
func (ix *Index) Len() int {
	return len(ix.strings)
}

// String returns the fragment string for an id.
func (ix *Index) String(id uint32) string {
	return ix.strings[id]
}

// Dirty reports whether an Intern call added a fragment since the last
// Rebuild.
func (ix *Index) Dirty() bool {
	return ix.dirty
}

// Rebuild constructs a fresh automaton over all live fragments ordered by
// fragment id and clears the dirty flag. With no fragments interned it
// returns an automaton with no searcher: Empty reports true, and IterLine
// cannot be used on it, so callers check Empty before scanning.
//
// Cost is O(total fragment length); callers amortize it by batching
// template additions before the first match.
func (ix *Index) Rebuild(kind config.MatchKind) *Automaton {
	ix.dirty = false

	if len(ix.strings) == 0 {
		return &Automaton{}
	}

	patterns := make([]string, len(ix.strings))
	copy(patterns, ix.strings)

	builder := ahocorasick.NewAhoCorasickBuilder(automatonOpts(kind))
	ac := builder.Build(patterns)

	// Patterns are handed to the builder in fragment-id order, so the
	// automaton's own pattern numbering translates positionally.
	table := make([]uint32, len(patterns))
	for i := range table {
		table[i] = uint32(i)
	}

	return &Automaton{
		ac:          &ac,
		fragmentIDs: table,
		overlapping: kind == config.MatchKindStandard,
	}
}

// automatonOpts translates the configured match kind into automaton build
// options. The DFA variant trades build time for scan throughput, which is
// the right trade for a catalog rebuilt rarely and scanned constantly.
func automatonOpts(kind config.MatchKind) ahocorasick.Opts {
	opts := ahocorasick.Opts{DFA: true}
	switch kind {
	case config.MatchKindStandard:
		opts.MatchKind = ahocorasick.StandardMatch
	case config.MatchKindLeftmostFirst:
		opts.MatchKind = ahocorasick.LeftMostFirstMatch
	default:
		opts.MatchKind = ahocorasick.LeftMostLongestMatch
	}
	return opts
}

// Automaton is a compiled multi-pattern substring searcher over a fixed set
// of fragment strings, plus the translation table from the automaton's own
// pattern numbering back to fragment ids. It is immutable after Rebuild and
// safe for concurrent scans.
type Automaton struct {
	ac          *ahocorasick.AhoCorasick
	fragmentIDs []uint32
	overlapping bool
}

// Empty reports whether the automaton was built over zero fragments.
func (a *Automaton) Empty() bool {
	return a.ac == nil
}

// IterLine returns an iterator over fragment occurrences in the line.
// Under the standard match kind every occurrence surfaces, overlapping ones
// included. Under the leftmost kinds iteration is non-overlapping: the
// configured tie-break picks one fragment at each match start, and any
// occurrence overlapping a reported one is not returned, whatever its
// offset.
func (a *Automaton) IterLine(line string) ahocorasick.Iter {
	if a.overlapping {
		return a.ac.IterOverlapping(line)
	}
	return a.ac.Iter(line)
}

// FragmentID translates an automaton pattern index to a fragment id.
func (a *Automaton) FragmentID(patternIdx int) uint32 {
	return a.fragmentIDs[patternIdx]
}
