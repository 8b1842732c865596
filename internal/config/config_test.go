package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, MatchKindLeftmostLongest, cfg.MatchKind)
	assert.Equal(t, 1, cfg.MinFragmentLength)
	assert.True(t, cfg.CacheRegex)
	assert.Equal(t, 10_000, cfg.OptimalBatchSize)
	assert.Equal(t, 0.3, cfg.FragmentMatchThreshold)
	assert.False(t, cfg.ProbeFragmentless)
	assert.NoError(t, cfg.Validate())
}

func TestStreamingPreset(t *testing.T) {
	cfg := Streaming()
	assert.Equal(t, 1_000, cfg.OptimalBatchSize)
	assert.NoError(t, cfg.Validate())
}

func TestBulkProcessingPreset(t *testing.T) {
	cfg := BulkProcessing()
	assert.Equal(t, 50_000, cfg.OptimalBatchSize)
	assert.NoError(t, cfg.Validate())
}

func TestBuilderClamping(t *testing.T) {
	cfg := Default().
		WithMatchKind(MatchKindLeftmostFirst).
		WithMinFragmentLength(0).
		WithBatchSize(0).
		WithFragmentThreshold(1.5)

	assert.Equal(t, MatchKindLeftmostFirst, cfg.MatchKind)
	assert.Equal(t, 1, cfg.MinFragmentLength)
	assert.Equal(t, 1, cfg.OptimalBatchSize)
	assert.Equal(t, 1.0, cfg.FragmentMatchThreshold)

	cfg = cfg.WithFragmentThreshold(-0.5)
	assert.Equal(t, 0.0, cfg.FragmentMatchThreshold)
}

func TestNormalizeFillsZeroValues(t *testing.T) {
	var cfg MatcherConfig
	cfg.Normalize()

	assert.Equal(t, MatchKindLeftmostLongest, cfg.MatchKind)
	assert.Equal(t, 1, cfg.MinFragmentLength)
	assert.Equal(t, 1, cfg.OptimalBatchSize)
	assert.Equal(t, 0.0, cfg.FragmentMatchThreshold)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownMatchKind(t *testing.T) {
	cfg := Default()
	cfg.MatchKind = "greedy"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match_kind")
}

func TestMatchKindValid(t *testing.T) {
	assert.True(t, MatchKindStandard.Valid())
	assert.True(t, MatchKindLeftmostFirst.Valid())
	assert.True(t, MatchKindLeftmostLongest.Valid())
	assert.False(t, MatchKind("").Valid())
	assert.False(t, MatchKind("longest").Valid())
}
