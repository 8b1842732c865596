// Package config holds the static knobs of the matching engine and the
// file-based loader for them.
package config

import (
	"fmt"
)

// MatchKind selects the automaton's policy between overlapping literal
// matches. Under the standard kind every occurrence is reported. Under the
// leftmost kinds the scan is non-overlapping: an occurrence that overlaps
// one already reported is skipped, wherever it starts, so a template whose
// fragments only appear in such overlapped spans gets fewer hits, or none,
// and may not be considered.
type MatchKind string

const (
	// MatchKindStandard reports every occurrence of every fragment,
	// including overlapping ones.
	MatchKindStandard MatchKind = "standard"

	// MatchKindLeftmostFirst prefers the fragment added first on position
	// ties.
	MatchKindLeftmostFirst MatchKind = "leftmost-first"

	// MatchKindLeftmostLongest prefers the longest fragment on position
	// ties. This is the default.
	MatchKindLeftmostLongest MatchKind = "leftmost-longest"
)

// Valid reports whether the match kind is one of the recognized policies.
func (k MatchKind) Valid() bool {
	switch k {
	case MatchKindStandard, MatchKindLeftmostFirst, MatchKindLeftmostLongest:
		return true
	}
	return false
}

// MatcherConfig holds the static configuration of the matching engine.
type MatcherConfig struct {
	// MatchKind is the tie-break policy in the fragment automaton.
	MatchKind MatchKind `yaml:"match_kind"`

	// MinFragmentLength drops fragments shorter than this many bytes during
	// pattern decomposition. Higher values shrink the automaton and cut
	// false-positive candidates at the risk of templates reducing to zero
	// fragments.
	MinFragmentLength int `yaml:"min_fragment_length"`

	// CacheRegex retains compiled regexes in the registry snapshot. When
	// disabled, probes compile on demand through a small bounded cache;
	// this is for memory-constrained scenarios only.
	CacheRegex bool `yaml:"cache_regex"`

	// OptimalBatchSize is the chunk-size hint used by parallel batch
	// matching.
	OptimalBatchSize int `yaml:"optimal_batch_size"`

	// FragmentMatchThreshold is the coverage-ratio gate a candidate must
	// pass before its regex is probed. Clamped to [0.0, 1.0].
	FragmentMatchThreshold float64 `yaml:"fragment_match_threshold"`

	// ProbeFragmentless admits templates whose pattern decomposed to zero
	// fragments as last-resort candidates. Without this, such templates are
	// never selected.
	ProbeFragmentless bool `yaml:"probe_fragmentless"`
}

// Default returns the recommended configuration: leftmost-longest ties,
// every fragment kept, cached regexes, 10k batch chunks, and a 0.3
// coverage gate.
func Default() MatcherConfig {
	return MatcherConfig{
		MatchKind:              MatchKindLeftmostLongest,
		MinFragmentLength:      1,
		CacheRegex:             true,
		OptimalBatchSize:       10_000,
		FragmentMatchThreshold: 0.3,
	}
}

// Streaming returns a configuration tuned for low-latency streaming
// ingestion: smaller parallel chunks, otherwise defaults.
func Streaming() MatcherConfig {
	cfg := Default()
	cfg.OptimalBatchSize = 1_000
	return cfg
}

// BulkProcessing returns a configuration tuned for offline reprocessing of
// large archives: bigger parallel chunks, otherwise defaults.
func BulkProcessing() MatcherConfig {
	cfg := Default()
	cfg.OptimalBatchSize = 50_000
	return cfg
}

// WithMatchKind returns a copy with the match kind replaced.
func (c MatcherConfig) WithMatchKind(kind MatchKind) MatcherConfig {
	c.MatchKind = kind
	return c
}

// WithMinFragmentLength returns a copy with the minimum fragment length
// replaced, floored at 1.
func (c MatcherConfig) WithMinFragmentLength(length int) MatcherConfig {
	c.MinFragmentLength = max(length, 1)
	return c
}

// WithRegexCaching returns a copy with regex caching toggled.
func (c MatcherConfig) WithRegexCaching(enabled bool) MatcherConfig {
	c.CacheRegex = enabled
	return c
}

// WithBatchSize returns a copy with the batch-size hint replaced, floored
// at 1.
func (c MatcherConfig) WithBatchSize(size int) MatcherConfig {
	c.OptimalBatchSize = max(size, 1)
	return c
}

// WithFragmentThreshold returns a copy with the coverage gate replaced,
// clamped to [0.0, 1.0].
func (c MatcherConfig) WithFragmentThreshold(threshold float64) MatcherConfig {
	c.FragmentMatchThreshold = min(max(threshold, 0.0), 1.0)
	return c
}

// WithProbeFragmentless returns a copy with the zero-fragment opt-in
// toggled.
func (c MatcherConfig) WithProbeFragmentless(enabled bool) MatcherConfig {
	c.ProbeFragmentless = enabled
	return c
}

// Normalize clamps out-of-range values in place the same way the With*
// builders do. Loaded configurations pass through here before use.
func (c *MatcherConfig) Normalize() {
	if c.MatchKind == "" {
		c.MatchKind = MatchKindLeftmostLongest
	}
	c.MinFragmentLength = max(c.MinFragmentLength, 1)
	c.OptimalBatchSize = max(c.OptimalBatchSize, 1)
	c.FragmentMatchThreshold = min(max(c.FragmentMatchThreshold, 0.0), 1.0)
}

// Validate checks that the configuration is usable.
func (c *MatcherConfig) Validate() error {
	if !c.MatchKind.Valid() {
		return fmt.Errorf("unknown match_kind %q (must be standard, leftmost-first, or leftmost-longest)", c.MatchKind)
	}
	if c.MinFragmentLength < 1 {
		return fmt.Errorf("min_fragment_length must be at least 1, got %d", c.MinFragmentLength)
	}
	if c.OptimalBatchSize < 1 {
		return fmt.Errorf("optimal_batch_size must be at least 1, got %d", c.OptimalBatchSize)
	}
	if c.FragmentMatchThreshold < 0.0 || c.FragmentMatchThreshold > 1.0 {
		return fmt.Errorf("fragment_match_threshold must be within [0.0, 1.0], got %g", c.FragmentMatchThreshold)
	}
	return nil
}
