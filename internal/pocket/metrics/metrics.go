// Package metrics defines Prometheus metrics for pocket analysis.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pocket analysis instruments.
type Metrics struct {
	analyses  *prometheus.CounterVec
	pockets   prometheus.Histogram
	duration  prometheus.Histogram
	accepted  prometheus.Counter
	coalesced prometheus.Counter
}

// New creates and registers the pocket metrics.
func New() *Metrics {
	return &Metrics{
		analyses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signa_pocket_analyses_total",
			Help: "Pocket analyses by outcome (computed, cached, superseded, error).",
		}, []string{"outcome"}),
		pockets: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "signa_pocket_count",
			Help:    "Pockets found per analysis.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		duration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "signa_pocket_analysis_duration_seconds",
			Help:    "Pocket analysis wall time.",
			Buckets: prometheus.DefBuckets,
		}),
		accepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signa_pocket_accepted_total",
			Help: "Pockets accepted into constraints.",
		}),
		coalesced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signa_pocket_coalesced_total",
			Help: "Analysis requests that joined an in-flight computation.",
		}),
	}
}

// ObserveAnalysis records one analysis outcome.
func (m *Metrics) ObserveAnalysis(outcome string, pockets int, seconds float64) {
	m.analyses.WithLabelValues(outcome).Inc()
	if outcome == "computed" {
		m.pockets.Observe(float64(pockets))
		m.duration.Observe(seconds)
	}
}

// IncrementAccepted counts one accepted pocket.
func (m *Metrics) IncrementAccepted() { m.accepted.Inc() }

// IncrementCoalesced counts one coalesced analysis request.
func (m *Metrics) IncrementCoalesced() { m.coalesced.Inc() }
