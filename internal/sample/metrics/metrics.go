// Package metrics defines Prometheus metrics for sample generation and
// export.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the sample generation instruments.
type Metrics struct {
	generations *prometheus.CounterVec
	samples     prometheus.Histogram
	duration    prometheus.Histogram
	truncations prometheus.Counter
	exports     *prometheus.CounterVec
}

// New creates and registers the sample metrics.
func New() *Metrics {
	return &Metrics{
		generations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signa_sample_generations_total",
			Help: "Generation runs by outcome (committed, superseded, error).",
		}, []string{"outcome"}),
		samples: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "signa_sample_count",
			Help:    "Samples produced per committed run.",
			Buckets: prometheus.ExponentialBuckets(100, 4, 10),
		}),
		duration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "signa_sample_generation_duration_seconds",
			Help:    "Generation wall time.",
			Buckets: prometheus.DefBuckets,
		}),
		truncations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signa_sample_truncations_total",
			Help: "Runs truncated at the total sample cap.",
		}),
		exports: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signa_sample_exports_total",
			Help: "Dataset exports by format.",
		}, []string{"format"}),
	}
}

// ObserveGeneration records one generation outcome.
func (m *Metrics) ObserveGeneration(outcome string, samples int, seconds float64, truncated bool) {
	m.generations.WithLabelValues(outcome).Inc()
	if outcome == "committed" {
		m.samples.Observe(float64(samples))
		m.duration.Observe(seconds)
		if truncated {
			m.truncations.Inc()
		}
	}
}

// IncrementExport counts one dataset export.
func (m *Metrics) IncrementExport(format string) {
	m.exports.WithLabelValues(format).Inc()
}
