package fragment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logsift/logsift/internal/config"
)

func TestInternAssignsConsecutiveIDs(t *testing.T) {
	ix := NewIndex()

	a := ix.Intern("error: ")
	b := ix.Intern("timeout")
	c := ix.Intern("error: ")

	assert.Equal(t, uint32(0), a)
	assert.Equal(t, uint32(1), b)
	assert.Equal(t, a, c, "identical strings share one id")
	assert.Equal(t, 2, ix.Len())
	assert.Equal(t, "error: ", ix.String(a))
	assert.Equal(t, "timeout", ix.String(b))
}

func TestRebuildClearsDirtyFlag(t *testing.T) {
	ix := NewIndex()
	assert.False(t, ix.Dirty(), "fresh index is clean")

	ix.Intern("connected")
	assert.True(t, ix.Dirty())

	ix.Rebuild(config.MatchKindLeftmostLongest)
	assert.False(t, ix.Dirty())

	// Interning a known string does not dirty the index
	ix.Intern("connected")
	assert.False(t, ix.Dirty())

	ix.Intern("disconnected")
	assert.True(t, ix.Dirty())
}

func TestEmptyAutomatonScansNothing(t *testing.T) {
	ix := NewIndex()
	automaton := ix.Rebuild(config.MatchKindLeftmostLongest)
	require.True(t, automaton.Empty())
}

func TestAutomatonReportsFragmentOccurrences(t *testing.T) {
	ix := NewIndex()
	connected := ix.Intern("connected to ")
	closed := ix.Intern("connection closed")

	automaton := ix.Rebuild(config.MatchKindLeftmostLongest)
	require.False(t, automaton.Empty())

	seen := scanFragments(automaton, "connected to 10.0.0.1")
	assert.Contains(t, seen, connected)
	assert.NotContains(t, seen, closed)

	seen = scanFragments(automaton, "connection closed by peer")
	assert.Contains(t, seen, closed)
	assert.NotContains(t, seen, connected)

	seen = scanFragments(automaton, "unrelated line")
	assert.Empty(t, seen)
}

func TestAutomatonStandardKindSurfacesOverlaps(t *testing.T) {
	ix := NewIndex()
	ab := ix.Intern("ab")
	abc := ix.Intern("abc")

	automaton := ix.Rebuild(config.MatchKindStandard)

	seen := scanFragments(automaton, "abc")
	assert.Contains(t, seen, ab)
	assert.Contains(t, seen, abc)
}

func TestAutomatonLeftmostLongestPrefersLongerFragment(t *testing.T) {
	ix := NewIndex()
	ab := ix.Intern("ab")
	abc := ix.Intern("abc")

	automaton := ix.Rebuild(config.MatchKindLeftmostLongest)

	seen := scanFragments(automaton, "abc")
	assert.Contains(t, seen, abc)
	assert.NotContains(t, seen, ab)
}

func TestAutomatonReportsRepeatedOccurrences(t *testing.T) {
	ix := NewIndex()
	frag := ix.Intern("go")

	automaton := ix.Rebuild(config.MatchKindLeftmostLongest)

	count := 0
	iter := automaton.IterLine("go go go")
	for hit := iter.Next(); hit != nil; hit = iter.Next() {
		assert.Equal(t, frag, automaton.FragmentID(hit.Pattern()))
		count++
	}
	assert.Equal(t, 3, count)
}

// scanFragments collects the distinct fragment ids hit in a line.
func scanFragments(a *Automaton, line string) map[uint32]struct{} {
	seen := make(map[uint32]struct{})
	if a.Empty() {
		return seen
	}
	iter := a.IterLine(line)
	for hit := iter.Next(); hit != nil; hit = iter.Next() {
		seen[a.FragmentID(hit.Pattern())] = struct{}{}
	}
	return seen
}
