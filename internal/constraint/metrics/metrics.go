package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ConstraintsCreated *prometheus.CounterVec
	ConstraintsDeleted prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		ConstraintsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signa_constraints_created_total",
			Help: "Constraints committed to the store by kind and label",
		}, []string{"kind", "label"}),
		ConstraintsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signa_constraints_deleted_total",
			Help: "Constraints removed from the store",
		}),
	}
}

func (m *Metrics) IncrementCreated(kind, label string) {
	m.ConstraintsCreated.WithLabelValues(kind, label).Inc()
}

func (m *Metrics) IncrementDeleted() {
	m.ConstraintsDeleted.Inc()
}
