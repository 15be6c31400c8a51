// Package service exposes the interactive session machines: mode and label
// switching, primitive placement and selection, gizmo drags, and the seed,
// brush, and ray intakes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	v3 "github.com/deadsy/sdfx/vec/v3"

	cmodels "signa/internal/constraint/models"
	projmodels "signa/internal/project/models"
	"signa/internal/session"
	smetrics "signa/internal/session/metrics"
	"signa/pkg/domain"
	dErrors "signa/pkg/domain-errors"
	"signa/pkg/platform/sentinel"
	"signa/pkg/requestcontext"
)

// ConfigProvider resolves a project's tuning configuration. The project
// service satisfies it.
type ConfigProvider interface {
	Config(ctx context.Context, id domain.ProjectID) (projmodels.Config, error)
}

// Service drives the interactive session for each project.
type Service struct {
	sessions *session.Registry
	configs  ConfigProvider
	logger   *slog.Logger
	metrics  *smetrics.Metrics
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the session metrics.
func WithMetrics(m *smetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the session service.
func New(sessions *session.Registry, configs ConfigProvider, opts ...Option) (*Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session registry is required")
	}
	if configs == nil {
		return nil, fmt.Errorf("config provider is required")
	}
	svc := &Service{sessions: sessions, configs: configs, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// translate maps session sentinels onto coded errors for the API.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "constraint not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeConflict, err.Error())
	case errors.Is(err, sentinel.ErrNoPointCloud):
		return dErrors.Wrap(err, dErrors.CodeConflict, "no point cloud loaded")
	default:
		return err
	}
}

// ---------------------------------------------------------------------------
// Mode, label, escape
// ---------------------------------------------------------------------------

// State returns the session snapshot.
func (s *Service) State(ctx context.Context, projectID domain.ProjectID) session.State {
	return s.sessions.Get(projectID).Snapshot()
}

// SetMode switches the interaction mode and returns the new snapshot.
func (s *Service) SetMode(ctx context.Context, projectID domain.ProjectID, mode domain.Mode) session.State {
	sess := s.sessions.Get(projectID)
	sess.SetMode(mode)
	if s.metrics != nil {
		s.metrics.IncrementModeSwitch(string(mode))
	}
	s.logger.DebugContext(ctx, "mode switched",
		"request_id", requestcontext.RequestID(ctx),
		"project_id", projectID,
		"mode", mode,
	)
	return sess.Snapshot()
}

// SetLabel sets the orthogonal label selection.
func (s *Service) SetLabel(ctx context.Context, projectID domain.ProjectID, label domain.Label) session.State {
	sess := s.sessions.Get(projectID)
	sess.SetLabel(label)
	return sess.Snapshot()
}

// CycleLabel advances the label selection one step.
func (s *Service) CycleLabel(ctx context.Context, projectID domain.ProjectID) session.State {
	sess := s.sessions.Get(projectID)
	sess.NextLabel()
	return sess.Snapshot()
}

// Escape handles one escape press. Whether a single press collapses all the
// way to Orbit is a per-project configuration knob.
func (s *Service) Escape(ctx context.Context, projectID domain.ProjectID) (session.EscapeResult, error) {
	cfg, err := s.configs.Config(ctx, projectID)
	if err != nil {
		return session.EscapeResult{}, err
	}
	res := s.sessions.Get(projectID).Escape(cfg.EscapeCollapse)
	if s.metrics != nil {
		s.metrics.IncrementEscape()
	}
	return res, nil
}

// ---------------------------------------------------------------------------
// Placement and selection
// ---------------------------------------------------------------------------

// Place starts placing a draft primitive at the picked point.
func (s *Service) Place(ctx context.Context, projectID domain.ProjectID, kind domain.PrimitiveKind, label domain.Label, picked v3.Vec) (cmodels.Constraint, error) {
	draft, err := s.sessions.Get(projectID).Place(kind, label, picked, requestcontext.Now(ctx))
	if err != nil {
		return cmodels.Constraint{}, translate(err)
	}
	if s.metrics != nil {
		s.metrics.IncrementPlacement("placed")
	}
	return draft, nil
}

// ConfirmPlacement commits the pending draft.
func (s *Service) ConfirmPlacement(ctx context.Context, projectID domain.ProjectID, draftID domain.ConstraintID) (cmodels.Constraint, error) {
	c, err := s.sessions.Get(projectID).ConfirmPlacement(ctx, draftID)
	if err != nil {
		return cmodels.Constraint{}, translate(err)
	}
	if s.metrics != nil {
		s.metrics.IncrementPlacement("confirmed")
	}
	s.logger.InfoContext(ctx, "placement confirmed",
		"request_id", requestcontext.RequestID(ctx),
		"project_id", projectID,
		"constraint_id", c.ID,
		"shape", c.Primitive.Shape,
		"label", c.Label,
	)
	return c, nil
}

// CancelPlacement discards the pending draft. Returns whether a draft was
// actually discarded.
func (s *Service) CancelPlacement(ctx context.Context, projectID domain.ProjectID, draftID domain.ConstraintID) bool {
	cancelled := s.sessions.Get(projectID).CancelPlacement(draftID)
	if cancelled && s.metrics != nil {
		s.metrics.IncrementPlacement("cancelled")
	}
	return cancelled
}

// Select enters Selected for an existing primitive constraint.
func (s *Service) Select(ctx context.Context, projectID domain.ProjectID, id domain.ConstraintID) (session.State, error) {
	sess := s.sessions.Get(projectID)
	if err := sess.Select(ctx, id); err != nil {
		return session.State{}, translate(err)
	}
	return sess.Snapshot(), nil
}

// Deselect returns to Idle.
func (s *Service) Deselect(ctx context.Context, projectID domain.ProjectID) session.State {
	sess := s.sessions.Get(projectID)
	sess.Deselect()
	return sess.Snapshot()
}

// SetGizmo switches the gizmo mode on the current selection.
func (s *Service) SetGizmo(ctx context.Context, projectID domain.ProjectID, g domain.GizmoMode) (session.State, error) {
	sess := s.sessions.Get(projectID)
	if err := sess.SetGizmo(g); err != nil {
		return session.State{}, translate(err)
	}
	return sess.Snapshot(), nil
}

// DragResult reports where one drag sample left the selected primitive.
type DragResult struct {
	Transform cmodels.Transform `json:"transform"`
	Applied   bool              `json:"applied"`
}

// Drag applies one drag sample to the selection.
func (s *Service) Drag(ctx context.Context, projectID domain.ProjectID, d session.Drag) (DragResult, error) {
	cfg, err := s.configs.Config(ctx, projectID)
	if err != nil {
		return DragResult{}, err
	}
	next, applied, err := s.sessions.Get(projectID).DragSelected(ctx, d, cfg)
	if err != nil {
		return DragResult{}, translate(err)
	}
	if applied && s.metrics != nil {
		s.metrics.IncrementDragSample()
	}
	return DragResult{Transform: next, Applied: applied}, nil
}

// DeleteSelected removes the selected constraint.
func (s *Service) DeleteSelected(ctx context.Context, projectID domain.ProjectID) (domain.ConstraintID, bool, error) {
	id, removed, err := s.sessions.Get(projectID).DeleteSelected(ctx)
	if err != nil {
		return domain.ConstraintID{}, false, translate(err)
	}
	s.logger.InfoContext(ctx, "selected constraint deleted",
		"request_id", requestcontext.RequestID(ctx),
		"project_id", projectID,
		"constraint_id", id,
		"removed", removed,
	)
	return id, removed, nil
}

// ---------------------------------------------------------------------------
// Seeds
// ---------------------------------------------------------------------------

// AddSeed marks a point index for propagation and returns the pending count.
func (s *Service) AddSeed(ctx context.Context, projectID domain.ProjectID, index int) (int, error) {
	count, err := s.sessions.Get(projectID).AddSeed(index)
	if err != nil {
		return count, translate(err)
	}
	if s.metrics != nil {
		s.metrics.AddSeeds(1)
	}
	return count, nil
}

// Seeds returns the pending seed indices.
func (s *Service) Seeds(ctx context.Context, projectID domain.ProjectID) []int {
	return s.sessions.Get(projectID).Seeds()
}

// ClearSeeds empties the pending seed list.
func (s *Service) ClearSeeds(ctx context.Context, projectID domain.ProjectID) {
	s.sessions.Get(projectID).ClearSeeds()
}

// ---------------------------------------------------------------------------
// Brush
// ---------------------------------------------------------------------------

// AddStroke accumulates one brush stroke and returns the stroke count.
func (s *Service) AddStroke(ctx context.Context, projectID domain.ProjectID, points []v3.Vec, radius float64) (int, error) {
	count, err := s.sessions.Get(projectID).AddStroke(points, radius)
	if err != nil {
		return count, translate(err)
	}
	if s.metrics != nil {
		s.metrics.IncrementStroke()
	}
	return count, nil
}

// CommitBrush resolves the accumulated strokes into one painted region.
func (s *Service) CommitBrush(ctx context.Context, projectID domain.ProjectID, label domain.Label, weight float64) (cmodels.Constraint, error) {
	c, err := s.sessions.Get(projectID).CommitBrush(ctx, label, weight, requestcontext.Now(ctx))
	if err != nil {
		return cmodels.Constraint{}, translate(err)
	}
	if s.metrics != nil {
		s.metrics.IncrementIntakeCommit("brush")
	}
	s.logger.InfoContext(ctx, "brush committed",
		"request_id", requestcontext.RequestID(ctx),
		"project_id", projectID,
		"constraint_id", c.ID,
		"points", len(c.Region.PointIndices),
		"label", c.Label,
	)
	return c, nil
}

// DiscardBrush drops the accumulated strokes.
func (s *Service) DiscardBrush(ctx context.Context, projectID domain.ProjectID) {
	s.sessions.Get(projectID).DiscardBrush()
	if s.metrics != nil {
		s.metrics.IncrementIntakeDiscard("brush")
	}
}

// ---------------------------------------------------------------------------
// Rays
// ---------------------------------------------------------------------------

// AddRays buffers scribble rays and returns the buffered count.
func (s *Service) AddRays(ctx context.Context, projectID domain.ProjectID, rays []cmodels.Ray) (int, error) {
	count, err := s.sessions.Get(projectID).AddRays(rays)
	if err != nil {
		return count, translate(err)
	}
	if s.metrics != nil {
		s.metrics.AddRays(len(rays))
	}
	return count, nil
}

// CommitRays writes one ray-carve constraint from the buffered rays.
func (s *Service) CommitRays(ctx context.Context, projectID domain.ProjectID, label domain.Label, weight float64) (cmodels.Constraint, error) {
	c, err := s.sessions.Get(projectID).CommitRays(ctx, label, weight, requestcontext.Now(ctx))
	if err != nil {
		return cmodels.Constraint{}, translate(err)
	}
	if s.metrics != nil {
		s.metrics.IncrementIntakeCommit("rays")
	}
	s.logger.InfoContext(ctx, "rays committed",
		"request_id", requestcontext.RequestID(ctx),
		"project_id", projectID,
		"constraint_id", c.ID,
		"rays", len(c.Rays),
		"label", c.Label,
	)
	return c, nil
}

// DiscardRays drops the buffered rays.
func (s *Service) DiscardRays(ctx context.Context, projectID domain.ProjectID) {
	s.sessions.Get(projectID).DiscardRays()
	if s.metrics != nil {
		s.metrics.IncrementIntakeDiscard("rays")
	}
}
