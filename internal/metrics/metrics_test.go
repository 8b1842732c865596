package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "test")

	m.IncMatches()
	m.IncMatches()
	m.IncMisses()
	m.IncRegexProbes()
	m.IncRebuilds()
	m.IncInvalidTemplates()
	m.SetTemplates(42)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MatchesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MissesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegexProbesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AutomatonRebuilds))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvalidTemplatesTotal))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.Templates))
}

func TestNilMetricsAreInert(t *testing.T) {
	var m *Metrics
	// None of these may panic
	m.IncMatches()
	m.IncMisses()
	m.IncRegexProbes()
	m.IncRebuilds()
	m.IncInvalidTemplates()
	m.SetTemplates(1)
	m.Unregister()
}

func TestUnregisterAllowsReRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "cycle")
	m.Unregister()

	require.NotPanics(t, func() {
		_ = New(reg, "cycle")
	})
}
