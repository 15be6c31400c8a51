// Package service implements constraint management: listing, editing, and
// deletion of committed constraints, plus the slice and prediction-import
// intakes that arrive with indices already resolved.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	cmetrics "signa/internal/constraint/metrics"
	"signa/internal/constraint/models"
	"signa/internal/session"
	"signa/pkg/domain"
	dErrors "signa/pkg/domain-errors"
	"signa/pkg/platform/sentinel"
	"signa/pkg/requestcontext"
)

// Service reaches constraints through each project's session so every
// mutation serializes with the interactive machines.
type Service struct {
	sessions *session.Registry
	logger   *slog.Logger
	metrics  *cmetrics.Metrics
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the constraint metrics.
func WithMetrics(m *cmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the constraint service.
func New(sessions *session.Registry, opts ...Option) (*Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session registry is required")
	}
	svc := &Service{sessions: sessions, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// translate maps session/store sentinels onto coded errors for the API.
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

// List returns the project's constraints in store order.
func (s *Service) List(ctx context.Context, projectID domain.ProjectID) []models.Constraint {
	return s.sessions.Get(projectID).Constraints(ctx)
}

// Get returns one constraint.
func (s *Service) Get(ctx context.Context, projectID domain.ProjectID, id domain.ConstraintID) (models.Constraint, error) {
	c, err := s.sessions.Get(projectID).GetConstraint(ctx, id)
	return c, translate(err)
}

// Delete removes a constraint. A stale id reports deleted=false rather than
// an error, per the store contract.
func (s *Service) Delete(ctx context.Context, projectID domain.ProjectID, id domain.ConstraintID) bool {
	deleted := s.sessions.Get(projectID).DeleteConstraint(ctx, id)
	if deleted {
		if s.metrics != nil {
			s.metrics.IncrementDeleted()
		}
	} else {
		s.logger.DebugContext(ctx, "delete of absent constraint ignored",
			"request_id", requestcontext.RequestID(ctx),
			"project_id", projectID,
			"constraint_id", id,
		)
	}
	return deleted
}

// UpdateTransform overwrites a primitive constraint's transform. A stale id
// is a logged no-op.
func (s *Service) UpdateTransform(ctx context.Context, projectID domain.ProjectID, id domain.ConstraintID, t models.Transform) (bool, error) {
	updated, err := s.sessions.Get(projectID).SetConstraintTransform(ctx, id, t)
	if err != nil {
		return false, translate(err)
	}
	if !updated {
		s.logger.DebugContext(ctx, "transform update on absent constraint ignored",
			"request_id", requestcontext.RequestID(ctx),
			"project_id", projectID,
			"constraint_id", id,
		)
	}
	return updated, nil
}

// SetLabel rewrites a constraint's label.
func (s *Service) SetLabel(ctx context.Context, projectID domain.ProjectID, id domain.ConstraintID, label domain.Label) bool {
	return s.sessions.Get(projectID).SetConstraintLabel(ctx, id, label)
}

// SetWeight rewrites a constraint's weight.
func (s *Service) SetWeight(ctx context.Context, projectID domain.ProjectID, id domain.ConstraintID, weight float64) (bool, error) {
	ok, err := s.sessions.Get(projectID).SetConstraintWeight(ctx, id, weight)
	return ok, translate(err)
}

// CommitSlice turns a resolved slab selection into a slice-region
// constraint. Requires Slice mode.
func (s *Service) CommitSlice(ctx context.Context, projectID domain.ProjectID, plane domain.SlicePlane, position float64, indices []int, label domain.Label, weight float64) (models.Constraint, error) {
	c, err := s.sessions.Get(projectID).CommitSlice(ctx, plane, position, indices, label, weight, requestcontext.Now(ctx))
	if err != nil {
		return models.Constraint{}, translate(err)
	}
	s.observeCreated(ctx, projectID, &c)
	return c, nil
}

// SelectSlab resolves the cloud indices inside an axis-aligned slab.
func (s *Service) SelectSlab(ctx context.Context, projectID domain.ProjectID, plane domain.SlicePlane, position, thickness float64) ([]int, error) {
	indices, err := s.sessions.Get(projectID).SelectSlab(plane, position, thickness)
	return indices, translate(err)
}

// ImportPredictions turns resolved ML predictions into an import
// constraint. Requires Import mode.
func (s *Service) ImportPredictions(ctx context.Context, projectID domain.ProjectID, sourceTag string, indices []int, confidences []float64, label domain.Label, weight float64) (models.Constraint, error) {
	c, err := s.sessions.Get(projectID).ImportPredictions(ctx, sourceTag, indices, confidences, label, weight, requestcontext.Now(ctx))
	if err != nil {
		return models.Constraint{}, translate(err)
	}
	s.observeCreated(ctx, projectID, &c)
	return c, nil
}

func (s *Service) observeCreated(ctx context.Context, projectID domain.ProjectID, c *models.Constraint) {
	if s.metrics != nil {
		s.metrics.IncrementCreated(string(c.Kind), c.Label.String())
	}
	s.logger.InfoContext(ctx, "constraint created",
		"request_id", requestcontext.RequestID(ctx),
		"project_id", projectID,
		"constraint_id", c.ID,
		"kind", c.Kind,
		"label", c.Label,
	)
}
