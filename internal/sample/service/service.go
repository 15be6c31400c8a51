// Package service runs sample generation as a supersedable job and serves
// the committed sample set for viewing and export.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"signa/internal/job"
	projmodels "signa/internal/project/models"
	"signa/internal/sample/export"
	"signa/internal/sample/generator"
	smetrics "signa/internal/sample/metrics"
	smodels "signa/internal/sample/models"
	"signa/internal/sdfeval"
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

// Service owns the generation job and the export surface.
type Service struct {
	sessions *session.Registry
	configs  ConfigProvider
	encoders *export.Registry
	logger   *slog.Logger
	metrics  *smetrics.Metrics
	tracer   trace.Tracer
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the sample metrics.
func WithMetrics(m *smetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the sample service.
func New(sessions *session.Registry, configs ConfigProvider, encoders *export.Registry, opts ...Option) (*Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session registry is required")
	}
	if configs == nil {
		return nil, fmt.Errorf("config provider is required")
	}
	if encoders == nil {
		return nil, fmt.Errorf("encoder registry is required")
	}
	svc := &Service{
		sessions: sessions,
		configs:  configs,
		encoders: encoders,
		logger:   slog.Default(),
		tracer:   otel.Tracer("signa/sample"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// GenerateResult summarizes one committed generation run.
type GenerateResult struct {
	Total     int                  `json:"total"`
	Truncated int                  `json:"truncated"`
	ByLabel   map[domain.Label]int `json:"by_label"`
	Epoch     int64                `json:"epoch"`
}

// Generate regenerates the full sample set from the current constraints.
// A newer generation or a cloud upload started mid-run supersedes this one
// and its result is discarded.
func (s *Service) Generate(ctx context.Context, projectID domain.ProjectID) (GenerateResult, error) {
	ctx, span := s.tracer.Start(ctx, "sample.Generate")
	defer span.End()
	start := time.Now()

	sess := s.sessions.Get(projectID)
	cloud, _, epoch, err := sess.Cloud()
	if err != nil {
		return GenerateResult{}, dErrors.Wrap(err, dErrors.CodeConflict, "no point cloud loaded")
	}
	cfg, err := s.configs.Config(ctx, projectID)
	if err != nil {
		return GenerateResult{}, err
	}
	constraints := sess.Constraints(ctx)

	var (
		samples []smodels.Sample
		stats   generator.Stats
	)
	err = sess.Jobs().Run(ctx, job.KindGenerate, func(jobCtx context.Context) error {
		var genErr error
		samples, stats, genErr = generator.Generate(jobCtx, constraints, cloud, sdfeval.NewEvaluator(), cfg)
		return genErr
	})
	if err != nil {
		return GenerateResult{}, s.finishError(ctx, projectID, err)
	}
	if err := sess.SetSamples(epoch, samples); err != nil {
		return GenerateResult{}, s.finishError(ctx, projectID, err)
	}

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveGeneration("committed", stats.Total, elapsed.Seconds(), stats.Truncated > 0)
	}
	span.SetAttributes(
		attribute.Int("sample.total", stats.Total),
		attribute.Int("sample.truncated", stats.Truncated),
	)
	s.logger.InfoContext(ctx, "samples generated",
		"request_id", requestcontext.RequestID(ctx),
		"project_id", projectID,
		"constraints", len(constraints),
		"total", stats.Total,
		"truncated", stats.Truncated,
		"duration_ms", elapsed.Milliseconds(),
	)
	return GenerateResult{Total: stats.Total, Truncated: stats.Truncated, ByLabel: stats.ByLabel, Epoch: epoch}, nil
}

// View is the viewer payload: a deterministic subsample plus the phi range
// of the full set.
type View struct {
	Samples  []smodels.Sample `json:"samples"`
	Total    int              `json:"total"`
	PhiStats export.PhiStats  `json:"phi_stats"`
}

// List returns up to limit samples for the viewer. limit <= 0 means all.
func (s *Service) List(ctx context.Context, projectID domain.ProjectID, limit int) (View, error) {
	cfg, err := s.configs.Config(ctx, projectID)
	if err != nil {
		return View{}, err
	}
	samples := s.sessions.Get(projectID).Samples()
	picked, phi := export.Subsample(samples, limit, cfg.RandomSeed)
	return View{Samples: picked, Total: len(samples), PhiStats: phi}, nil
}

// Export streams the full committed sample set in the requested format and
// returns the content type and row count.
func (s *Service) Export(ctx context.Context, projectID domain.ProjectID, format string, w io.Writer) (string, int, error) {
	enc, err := s.encoders.Lookup(format)
	if err != nil {
		return "", 0, err
	}
	samples := s.sessions.Get(projectID).Samples()
	if len(samples) == 0 {
		return "", 0, dErrors.New(dErrors.CodeConflict, "no samples to export; generate first")
	}
	if err := enc.Encode(w, export.Dataset(samples)); err != nil {
		return "", 0, dErrors.Wrap(err, dErrors.CodeInternal, "export encoding failed")
	}
	if s.metrics != nil {
		s.metrics.IncrementExport(format)
	}
	s.logger.InfoContext(ctx, "samples exported",
		"request_id", requestcontext.RequestID(ctx),
		"project_id", projectID,
		"format", format,
		"rows", len(samples),
	)
	return enc.ContentType(), len(samples), nil
}

// finishError classifies a failed run for metrics and maps it for the API.
func (s *Service) finishError(ctx context.Context, projectID domain.ProjectID, err error) error {
	if errors.Is(err, sentinel.ErrSuperseded) {
		if s.metrics != nil {
			s.metrics.ObserveGeneration("superseded", 0, 0, false)
		}
		s.logger.InfoContext(ctx, "generation superseded",
			"request_id", requestcontext.RequestID(ctx),
			"project_id", projectID,
		)
		return dErrors.Wrap(err, dErrors.CodeConflict, "generation superseded by a newer request")
	}
	if s.metrics != nil {
		s.metrics.ObserveGeneration("error", 0, 0, false)
	}
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "session is closing")
	}
	return err
}
