package matcher

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logsift/logsift/internal/catalog"
	"github.com/logsift/logsift/internal/config"
	"github.com/logsift/logsift/internal/metrics"
)

func TestMatcherCountsMatchesAndMisses(t *testing.T) {
	promReg := prometheus.NewRegistry()
	mm := metrics.New(promReg, "matcher-test")

	m := New()
	m.SetMetrics(mm)
	m.AddTemplate(catalog.Template{TemplateID: 1, Pattern: `ping (\d+)`})

	_, ok := m.MatchLog("ping 1")
	require.True(t, ok)
	_, ok = m.MatchLog("pong")
	require.False(t, ok)

	assert.Equal(t, 1.0, testutil.ToFloat64(mm.MatchesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.MissesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.RegexProbesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.Templates))
}

func TestReplaceRegistrySwapsCatalog(t *testing.T) {
	m := New()
	m.AddTemplate(catalog.Template{TemplateID: 1, Pattern: `old (\d+)`})

	replacement := catalog.NewRegistry(config.Default())
	replacement.Add(catalog.Template{TemplateID: 2, Pattern: `new (\d+)`})
	m.ReplaceRegistry(replacement)

	_, ok := m.MatchLog("old 1")
	assert.False(t, ok, "replaced catalog no longer knows the old template")

	id, ok := m.MatchLog("new 1")
	require.True(t, ok)
	assert.Equal(t, uint64(2), id)
}
