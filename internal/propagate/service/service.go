// Package service runs seed propagation as a supersedable job: grow the
// region from the pending seeds, then commit the constraint and clear the
// seeds atomically against the cloud epoch the growth started from.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	cmodels "signa/internal/constraint/models"
	"signa/internal/job"
	projmodels "signa/internal/project/models"
	"signa/internal/propagate"
	pmetrics "signa/internal/propagate/metrics"
	"signa/internal/session"
	"signa/pkg/domain"
	dErrors "signa/pkg/domain-errors"
	"signa/pkg/platform/sentinel"
	"signa/pkg/requestcontext"
)

// ConfigProvider resolves a project's tuning configuration.
type ConfigProvider interface {
	Config(ctx context.Context, id domain.ProjectID) (projmodels.Config, error)
}

// Service owns the propagation job.
type Service struct {
	sessions *session.Registry
	configs  ConfigProvider
	logger   *slog.Logger
	metrics  *pmetrics.Metrics
	tracer   trace.Tracer
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the propagation metrics.
func WithMetrics(m *pmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the propagation service.
func New(sessions *session.Registry, configs ConfigProvider, opts ...Option) (*Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session registry is required")
	}
	if configs == nil {
		return nil, fmt.Errorf("config provider is required")
	}
	svc := &Service{
		sessions: sessions,
		configs:  configs,
		logger:   slog.Default(),
		tracer:   otel.Tracer("signa/propagate"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Result is what a committed propagation reports back to the UI.
type Result struct {
	Constraint cmodels.Constraint `json:"constraint"`
	Points     int                `json:"points"`
	Capped     bool               `json:"capped"`
	Radius     float64            `json:"radius"`
}

// Propagate grows the pending seeds into one propagated-seed constraint.
// A newer propagation or a cloud upload started while growing supersedes
// the run; superseded results are discarded, never half-committed.
func (s *Service) Propagate(ctx context.Context, projectID domain.ProjectID, label domain.Label, weight float64) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "propagate.Propagate")
	defer span.End()
	start := time.Now()

	sess := s.sessions.Get(projectID)
	cloud, ix, epoch, err := sess.Cloud()
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeConflict, "no point cloud loaded")
	}
	seeds := sess.Seeds()
	if len(seeds) == 0 {
		return Result{}, dErrors.New(dErrors.CodeInvalidInput, "no seeds to propagate")
	}
	cfg, err := s.configs.Config(ctx, projectID)
	if err != nil {
		return Result{}, err
	}
	if label == "" {
		label = sess.Snapshot().Label
	}

	var grown propagate.Result
	err = sess.Jobs().Run(ctx, job.KindPropagate, func(jobCtx context.Context) error {
		var growErr error
		grown, growErr = propagate.Grow(jobCtx, seeds, cloud, ix, propagate.ParamsFromConfig(cfg))
		return growErr
	})
	if err != nil {
		return Result{}, s.finishError(ctx, projectID, err)
	}

	c, err := cmodels.NewPropagatedSeed(label, grown.Indices, cloud.Count(), weight, requestcontext.Now(ctx))
	if err != nil {
		return Result{}, err
	}
	if err := sess.CommitPropagation(ctx, epoch, c); err != nil {
		return Result{}, s.finishError(ctx, projectID, err)
	}

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveRun("committed", len(grown.Indices), elapsed.Seconds(), grown.Capped)
	}
	span.SetAttributes(
		attribute.Int("propagate.points", len(grown.Indices)),
		attribute.Bool("propagate.capped", grown.Capped),
	)
	s.logger.InfoContext(ctx, "propagation committed",
		"request_id", requestcontext.RequestID(ctx),
		"project_id", projectID,
		"constraint_id", c.ID,
		"seeds", len(seeds),
		"points", len(grown.Indices),
		"capped", grown.Capped,
		"radius", grown.Radius,
		"duration_ms", elapsed.Milliseconds(),
	)
	return Result{Constraint: c, Points: len(grown.Indices), Capped: grown.Capped, Radius: grown.Radius}, nil
}

// finishError classifies a failed run for metrics and maps it for the API.
func (s *Service) finishError(ctx context.Context, projectID domain.ProjectID, err error) error {
	if errors.Is(err, sentinel.ErrSuperseded) {
		if s.metrics != nil {
			s.metrics.ObserveRun("superseded", 0, 0, false)
		}
		s.logger.InfoContext(ctx, "propagation superseded",
			"request_id", requestcontext.RequestID(ctx),
			"project_id", projectID,
		)
		return dErrors.Wrap(err, dErrors.CodeConflict, "propagation superseded by a newer request")
	}
	if s.metrics != nil {
		s.metrics.ObserveRun("error", 0, 0, false)
	}
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "session is closing")
	}
	return err
}
