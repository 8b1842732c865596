// Package metrics exposes Prometheus counters for engine observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for a matcher instance. All increment
// methods are nil-safe so the engine can run unmetered.
type Metrics struct {
	MatchesTotal          prometheus.Counter // Lines classified to a template
	MissesTotal           prometheus.Counter // Lines with no template match
	RegexProbesTotal      prometheus.Counter // Regex confirmations attempted
	AutomatonRebuilds     prometheus.Counter // Automaton reconstructions
	InvalidTemplatesTotal prometheus.Counter // Templates whose regex failed to compile
	Templates             prometheus.Gauge   // Templates currently in the registry

	// collectors holds references to all registered collectors for cleanup
	collectors []prometheus.Collector
	registerer prometheus.Registerer
}

// New creates and registers matcher metrics. The registerer parameter
// allows flexible registration (global registry, test registry). The
// instanceName parameter distinguishes multiple matchers via ConstLabels.
func New(reg prometheus.Registerer, instanceName string) *Metrics {
	labels := prometheus.Labels{"instance": instanceName}

	matches := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "logsift_matches_total",
		Help:        "Total number of log lines classified to a template",
		ConstLabels: labels,
	})
	misses := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "logsift_misses_total",
		Help:        "Total number of log lines with no template match",
		ConstLabels: labels,
	})
	probes := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "logsift_regex_probes_total",
		Help:        "Total number of regex confirmation probes executed",
		ConstLabels: labels,
	})
	rebuilds := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "logsift_automaton_rebuilds_total",
		Help:        "Total number of fragment automaton reconstructions",
		ConstLabels: labels,
	})
	invalid := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "logsift_invalid_templates_total",
		Help:        "Total number of templates whose regex failed to compile",
		ConstLabels: labels,
	})
	templates := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "logsift_templates",
		Help:        "Number of templates currently in the registry",
		ConstLabels: labels,
	})

	collectors := []prometheus.Collector{matches, misses, probes, rebuilds, invalid, templates}
	reg.MustRegister(collectors...)

	return &Metrics{
		MatchesTotal:          matches,
		MissesTotal:           misses,
		RegexProbesTotal:      probes,
		AutomatonRebuilds:     rebuilds,
		InvalidTemplatesTotal: invalid,
		Templates:             templates,
		collectors:            collectors,
		registerer:            reg,
	}
}

// Unregister removes all metrics from the registry. Call before creating a
// replacement matcher with the same instance name to avoid duplicate
// registration panics.
func (m *Metrics) Unregister() {
	if m == nil {
		return
	}
	for _, c := range m.collectors {
		m.registerer.Unregister(c)
	}
}

// IncMatches records a successful classification.
func (m *Metrics) IncMatches() {
	if m != nil {
		m.MatchesTotal.Inc()
	}
}

// IncMisses records a line that matched no template.
func (m *Metrics) IncMisses() {
	if m != nil {
		m.MissesTotal.Inc()
	}
}

// IncRegexProbes records a regex confirmation attempt.
func (m *Metrics) IncRegexProbes() {
	if m != nil {
		m.RegexProbesTotal.Inc()
	}
}

// IncRebuilds records an automaton reconstruction.
func (m *Metrics) IncRebuilds() {
	if m != nil {
		m.AutomatonRebuilds.Inc()
	}
}

// IncInvalidTemplates records a template whose regex failed to compile.
func (m *Metrics) IncInvalidTemplates() {
	if m != nil {
		m.InvalidTemplatesTotal.Inc()
	}
}

// SetTemplates records the current registry size.
func (m *Metrics) SetTemplates(n int) {
	if m != nil {
		m.Templates.Set(float64(n))
	}
}
