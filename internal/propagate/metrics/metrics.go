// Package metrics defines Prometheus metrics for seed propagation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the propagation instruments.
type Metrics struct {
	runs       *prometheus.CounterVec
	regionSize prometheus.Histogram
	duration   prometheus.Histogram
	capped     prometheus.Counter
}

// New creates and registers the propagation metrics.
func New() *Metrics {
	return &Metrics{
		runs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signa_propagate_runs_total",
			Help: "Propagation runs by outcome (committed, superseded, error).",
		}, []string{"outcome"}),
		regionSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "signa_propagate_region_points",
			Help:    "Grown region sizes in points.",
			Buckets: prometheus.ExponentialBuckets(10, 4, 10),
		}),
		duration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "signa_propagate_duration_seconds",
			Help:    "Propagation wall time.",
			Buckets: prometheus.DefBuckets,
		}),
		capped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signa_propagate_capped_total",
			Help: "Runs that stopped at the region cap.",
		}),
	}
}

// ObserveRun records one completed run.
func (m *Metrics) ObserveRun(outcome string, points int, seconds float64, capped bool) {
	m.runs.WithLabelValues(outcome).Inc()
	if outcome == "committed" {
		m.regionSize.Observe(float64(points))
		m.duration.Observe(seconds)
		if capped {
			m.capped.Inc()
		}
	}
}
