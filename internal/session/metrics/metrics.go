// Package metrics defines Prometheus metrics for the interactive session.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the session counters.
type Metrics struct {
	modeSwitches   *prometheus.CounterVec
	placements     *prometheus.CounterVec
	dragSamples    prometheus.Counter
	escapes        prometheus.Counter
	seedsAdded     prometheus.Counter
	strokesAdded   prometheus.Counter
	raysBuffered   prometheus.Counter
	intakeCommits  *prometheus.CounterVec
	intakeDiscards *prometheus.CounterVec
}

// New creates and registers the session metrics.
func New() *Metrics {
	return &Metrics{
		modeSwitches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signa_session_mode_switches_total",
			Help: "Interaction mode switches by target mode.",
		}, []string{"mode"}),
		placements: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signa_session_placements_total",
			Help: "Primitive placement outcomes.",
		}, []string{"outcome"}),
		dragSamples: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signa_session_drag_samples_total",
			Help: "Gizmo drag samples applied.",
		}),
		escapes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signa_session_escapes_total",
			Help: "Escape presses handled.",
		}),
		seedsAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signa_session_seeds_added_total",
			Help: "Seed points marked for propagation.",
		}),
		strokesAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signa_session_brush_strokes_total",
			Help: "Brush strokes accumulated.",
		}),
		raysBuffered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signa_session_rays_buffered_total",
			Help: "Scribble rays buffered.",
		}),
		intakeCommits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signa_session_intake_commits_total",
			Help: "Committed intakes by kind (brush, rays).",
		}, []string{"kind"}),
		intakeDiscards: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signa_session_intake_discards_total",
			Help: "Discarded intakes by kind (brush, rays).",
		}, []string{"kind"}),
	}
}

// IncrementModeSwitch counts a mode switch.
func (m *Metrics) IncrementModeSwitch(mode string) {
	m.modeSwitches.WithLabelValues(mode).Inc()
}

// IncrementPlacement counts a placement outcome (placed, confirmed,
// cancelled).
func (m *Metrics) IncrementPlacement(outcome string) {
	m.placements.WithLabelValues(outcome).Inc()
}

// IncrementDragSample counts one applied drag sample.
func (m *Metrics) IncrementDragSample() { m.dragSamples.Inc() }

// IncrementEscape counts one escape press.
func (m *Metrics) IncrementEscape() { m.escapes.Inc() }

// AddSeeds counts newly marked seeds.
func (m *Metrics) AddSeeds(n int) { m.seedsAdded.Add(float64(n)) }

// IncrementStroke counts one accumulated stroke.
func (m *Metrics) IncrementStroke() { m.strokesAdded.Inc() }

// AddRays counts buffered rays.
func (m *Metrics) AddRays(n int) { m.raysBuffered.Add(float64(n)) }

// IncrementIntakeCommit counts a committed brush or ray intake.
func (m *Metrics) IncrementIntakeCommit(kind string) {
	m.intakeCommits.WithLabelValues(kind).Inc()
}

// IncrementIntakeDiscard counts a discarded brush or ray intake.
func (m *Metrics) IncrementIntakeDiscard(kind string) {
	m.intakeDiscards.WithLabelValues(kind).Inc()
}
