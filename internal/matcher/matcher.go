// Package matcher orchestrates log classification: one multi-pattern scan
// over the fragment automaton, hit attribution into per-template coverage
// sets, ratio-ordered candidate ranking, and regex confirmation.
package matcher

import (
	"regexp"
	"sort"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/logsift/logsift/internal/catalog"
	"github.com/logsift/logsift/internal/config"
	"github.com/logsift/logsift/internal/logging"
	"github.com/logsift/logsift/internal/metrics"
)

// uncachedRegexCapacity bounds the compile-on-demand cache used when regex
// caching is disabled.
const uncachedRegexCapacity = 128

// Match is the classification verdict for one log line.
type Match struct {
	// TemplateID is the matched template. Meaningful only when Matched.
	TemplateID uint64

	// Matched reports whether any template's regex confirmed the line.
	Matched bool
}

// LogMatcher classifies log lines against a catalog of templates.
//
// All matching methods are safe for concurrent use. Catalog mutation
// (AddTemplate, RemoveTemplate, catalog replacement) may proceed
// concurrently with matching: readers run against the snapshot they
// loaded, and the next match call observes the new one.
type LogMatcher struct {
	cfg      config.MatcherConfig
	registry atomic.Pointer[catalog.Registry]
	scratch  *scratchPool

	// uncached compiles regexes on demand when CacheRegex is disabled.
	// LRU-bounded so memory-constrained scenarios stay bounded.
	uncached *lru.Cache[uint64, *regexp.Regexp]

	metrics *metrics.Metrics
	logger  *logging.Logger
}

// New creates a matcher with the default configuration and an empty
// catalog.
func New() *LogMatcher {
	return NewWithConfig(config.Default())
}

// NewWithConfig creates a matcher with the given configuration and an
// empty catalog.
func NewWithConfig(cfg config.MatcherConfig) *LogMatcher {
	cfg.Normalize()
	m := &LogMatcher{
		cfg:     cfg,
		scratch: newScratchPool(),
		logger:  logging.GetLogger("matcher"),
	}
	if !cfg.CacheRegex {
		// Error is impossible for a positive fixed size.
		m.uncached, _ = lru.New[uint64, *regexp.Regexp](uncachedRegexCapacity)
	}
	m.registry.Store(catalog.NewRegistry(cfg))
	return m
}

// Config returns the matcher's configuration.
func (m *LogMatcher) Config() config.MatcherConfig {
	return m.cfg
}

// SetMetrics attaches Prometheus metrics to the matcher and its current
// registry.
func (m *LogMatcher) SetMetrics(mm *metrics.Metrics) {
	m.metrics = mm
	m.registry.Load().SetMetrics(mm)
}

// AddTemplate records a template in the catalog and returns its id. A zero
// TemplateID requests allocation; the returned id is never zero.
func (m *LogMatcher) AddTemplate(t catalog.Template) uint64 {
	return m.registry.Load().Add(t)
}

// AddTemplates records many templates with a single automaton rebuild.
// Prefer this for bulk loads.
func (m *LogMatcher) AddTemplates(ts []catalog.Template) []uint64 {
	return m.registry.Load().AddBatch(ts)
}

// RemoveTemplate retires a template. Returns false if the id was unknown.
func (m *LogMatcher) RemoveTemplate(id uint64) bool {
	return m.registry.Load().Remove(id)
}

// AllTemplates returns a copy of every template in the catalog, sorted by
// id, including structurally dead ones.
func (m *LogMatcher) AllTemplates() []catalog.Template {
	return m.registry.Load().AllTemplates()
}

// InvalidTemplates returns how many added templates failed regex
// compilation.
func (m *LogMatcher) InvalidTemplates() int {
	return m.registry.Load().InvalidTemplates()
}

// Registry returns the current registry. Intended for serialization and
// diagnostics.
func (m *LogMatcher) Registry() *catalog.Registry {
	return m.registry.Load()
}

// ReplaceRegistry atomically swaps the catalog. In-flight matches finish
// against the registry they loaded; subsequent calls see the new one.
func (m *LogMatcher) ReplaceRegistry(reg *catalog.Registry) {
	if m.metrics != nil {
		reg.SetMetrics(m.metrics)
	}
	m.registry.Store(reg)
	if m.uncached != nil {
		m.uncached.Purge()
	}
	m.logger.InfoWithFields("catalog replaced",
		logging.Field("templates", reg.Snapshot().Len()),
	)
}

// MatchLog classifies a single log line. Returns the id of the
// best-matching template and true, or false when no template's regex
// confirmed the line. Misses are a successful outcome, not an error.
func (m *LogMatcher) MatchLog(line string) (uint64, bool) {
	snap := m.registry.Load().Snapshot()
	s := m.scratch.get()
	id, ok := m.matchLine(snap, line, s)
	m.scratch.put(s)

	if ok {
		m.metrics.IncMatches()
	} else {
		m.metrics.IncMisses()
	}
	return id, ok
}

// matchLine runs the full pipeline for one line against one snapshot:
// automaton scan, hit attribution, coverage ranking, regex confirmation.
func (m *LogMatcher) matchLine(snap *catalog.Snapshot, line string, s *scratch) (uint64, bool) {
	automaton := snap.Automaton()
	if !automaton.Empty() {
		iter := automaton.IterLine(line)
		for hit := iter.Next(); hit != nil; hit = iter.Next() {
			fragID := automaton.FragmentID(hit.Pattern())
			for _, ref := range snap.TemplateRefs(fragID) {
				s.insert(ref.TemplateID, fragID)
			}
		}
	}

	if len(s.hits) > 0 {
		for templateID, set := range s.hits {
			s.candidates = append(s.candidates, candidate{
				templateID: templateID,
				hits:       len(set),
				required:   snap.RequiredFragmentCount(templateID),
			})
		}
		rankCandidates(s.candidates)

		for _, c := range s.candidates {
			required := max(c.required, 1)
			ratio := float64(c.hits) / float64(required)
			if ratio < m.cfg.FragmentMatchThreshold {
				// Ordering is monotone in ratio, so nothing below this
				// passes either.
				break
			}
			if m.probe(snap, c.templateID, line) {
				return c.templateID, true
			}
		}
	}

	// Templates with no extractable fragments can never be promoted by the
	// coverage stage; probe them last, and only when opted in.
	if m.cfg.ProbeFragmentless {
		for _, templateID := range snap.Fragmentless() {
			if m.probe(snap, templateID, line) {
				return templateID, true
			}
		}
	}

	return 0, false
}

// probe runs the regex confirmation for one candidate. A probe that fails,
// panics, or has no usable regex is a no-match for that candidate.
func (m *LogMatcher) probe(snap *catalog.Snapshot, templateID uint64, line string) bool {
	re := snap.Regex(templateID)
	if re == nil {
		if snap.StructurallyDead(templateID) {
			return false
		}
		re = m.compileUncached(snap, templateID)
		if re == nil {
			return false
		}
	}
	m.metrics.IncRegexProbes()
	return safeMatch(re, line)
}

// compileUncached compiles a template's pattern through the bounded LRU
// used when regex caching is disabled.
func (m *LogMatcher) compileUncached(snap *catalog.Snapshot, templateID uint64) *regexp.Regexp {
	if m.uncached == nil {
		return nil
	}
	pattern, ok := snap.Pattern(templateID)
	if !ok {
		return nil
	}
	// A template re-added under the same id may carry a new pattern; only
	// reuse a cached regex compiled from the current one.
	if re, ok := m.uncached.Get(templateID); ok && re.String() == pattern {
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	m.uncached.Add(templateID, re)
	return re
}

// safeMatch contains a panicking regex engine to a single candidate miss.
func safeMatch(re *regexp.Regexp, line string) (matched bool) {
	defer func() {
		if recover() != nil {
			matched = false
		}
	}()
	return re.MatchString(line)
}

// rankCandidates orders candidates by coverage ratio descending, then hit
// count descending, then template id ascending. The ratio comparison
// cross-multiplies to stay exact; the final id tie-break makes the order,
// and therefore the match result, deterministic.
func rankCandidates(cs []candidate) {
	sort.Slice(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		ar := a.hits * max(b.required, 1)
		br := b.hits * max(a.required, 1)
		if ar != br {
			return ar > br
		}
		if a.hits != b.hits {
			return a.hits > b.hits
		}
		return a.templateID < b.templateID
	})
}
