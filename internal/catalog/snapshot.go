package catalog

import (
	"regexp"

	"github.com/logsift/logsift/internal/fragment"
)

// TemplateRef attributes a fragment occurrence to a template: the fragment
// appears at the given position within the template's ordered fragment
// list.
type TemplateRef struct {
	TemplateID uint64
	Position   int
}

// Snapshot is the immutable bundle of registry state: templates, fragment
// lists, reverse indices, the automaton, and compiled regexes. Exactly one
// snapshot is current at a time; writers build a new one and publish it
// atomically, so readers are wait-free and never observe a torn state.
type Snapshot struct {
	templates map[uint64]*Template

	// fragments maps template id to its ordered fragment-id list,
	// duplicates preserved. The list length is the coverage-ratio
	// denominator.
	fragments map[uint64][]uint32

	// reverse maps fragment id to every (template, position) it appears in.
	reverse map[uint32][]TemplateRef

	// fragmentless lists templates whose pattern decomposed to zero
	// fragments under the configured minimum length, sorted by id. The
	// fragment stage can never promote these.
	fragmentless []uint64

	// compiled holds cached regexes. Empty when regex caching is disabled.
	compiled map[uint64]*regexp.Regexp

	// dead marks templates whose pattern failed to compile. They remain in
	// the template table for faithful catalog dumps but can never match.
	dead map[uint64]struct{}

	automaton *fragment.Automaton
}

// emptySnapshot is published by a fresh registry before any Add.
func emptySnapshot() *Snapshot {
	return &Snapshot{
		templates: map[uint64]*Template{},
		fragments: map[uint64][]uint32{},
		reverse:   map[uint32][]TemplateRef{},
		compiled:  map[uint64]*regexp.Regexp{},
		dead:      map[uint64]struct{}{},
		automaton: &fragment.Automaton{},
	}
}

// Automaton returns the multi-pattern searcher over all live fragments.
func (s *Snapshot) Automaton() *fragment.Automaton {
	return s.automaton
}

// TemplateRefs returns the templates a fragment id appears in. The returned
// slice is shared and must not be mutated.
func (s *Snapshot) TemplateRefs(fragmentID uint32) []TemplateRef {
	return s.reverse[fragmentID]
}

// RequiredFragmentCount returns the length of a template's fragment list.
func (s *Snapshot) RequiredFragmentCount(templateID uint64) int {
	return len(s.fragments[templateID])
}

// FragmentList returns a template's ordered fragment-id list. Shared, do
// not mutate.
func (s *Snapshot) FragmentList(templateID uint64) []uint32 {
	return s.fragments[templateID]
}

// Regex returns the cached compiled regex for a template, or nil when the
// template is structurally dead or caching is disabled.
func (s *Snapshot) Regex(templateID uint64) *regexp.Regexp {
	return s.compiled[templateID]
}

// StructurallyDead reports whether the template's pattern failed to
// compile. Such templates appear in dumps but never match.
func (s *Snapshot) StructurallyDead(templateID uint64) bool {
	_, dead := s.dead[templateID]
	return dead
}

// Pattern returns a template's regex source.
func (s *Snapshot) Pattern(templateID uint64) (string, bool) {
	t, ok := s.templates[templateID]
	if !ok {
		return "", false
	}
	return t.Pattern, true
}

// Fragmentless returns the ids of templates with zero fragments, sorted.
func (s *Snapshot) Fragmentless() []uint64 {
	return s.fragmentless
}

// Len returns the number of templates in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.templates)
}
