// Package service runs pocket analysis and pocket acceptance. Analysis is
// expensive and idempotent per cloud epoch, so concurrent requests for the
// same epoch coalesce onto one computation and the result is cached in the
// session until the next upload invalidates it.
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
	"golang.org/x/sync/singleflight"

	cmodels "signa/internal/constraint/models"
	"signa/internal/job"
	"signa/internal/pocket"
	pmetrics "signa/internal/pocket/metrics"
	projmodels "signa/internal/project/models"
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

// Service owns pocket analysis and acceptance.
type Service struct {
	sessions *session.Registry
	configs  ConfigProvider
	group    singleflight.Group
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

// WithMetrics sets the pocket metrics.
func WithMetrics(m *pmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the pocket service.
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
		tracer:   otel.Tracer("signa/pocket"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Analysis is the pocket list a run reports, tagged with the epoch it is
// valid for and whether it came from the session cache.
type Analysis struct {
	Pockets []pocket.Pocket `json:"pockets"`
	Epoch   int64           `json:"epoch"`
	Cached  bool            `json:"cached"`
}

// Analyze returns the pocket decomposition for the loaded cloud, computing
// it if the cache is stale. Concurrent calls for the same epoch share one
// computation; a cloud upload mid-analysis discards the result.
func (s *Service) Analyze(ctx context.Context, projectID domain.ProjectID) (Analysis, error) {
	ctx, span := s.tracer.Start(ctx, "pocket.Analyze")
	defer span.End()

	sess := s.sessions.Get(projectID)
	cloud, _, epoch, err := sess.Cloud()
	if err != nil {
		return Analysis{}, dErrors.Wrap(err, dErrors.CodeConflict, "no point cloud loaded")
	}
	if pockets, ok := sess.Pockets(); ok {
		if s.metrics != nil {
			s.metrics.ObserveAnalysis("cached", 0, 0)
		}
		return Analysis{Pockets: pockets, Epoch: epoch, Cached: true}, nil
	}

	cfg, err := s.configs.Config(ctx, projectID)
	if err != nil {
		return Analysis{}, err
	}

	key := fmt.Sprintf("%s:%d", projectID, epoch)
	v, err, shared := s.group.Do(key, func() (any, error) {
		start := time.Now()
		var pockets []pocket.Pocket
		runErr := sess.Jobs().Run(ctx, job.KindAnalyze, func(jobCtx context.Context) error {
			var analyzeErr error
			pockets, analyzeErr = pocket.Analyze(jobCtx, cloud, pocket.ParamsFromConfig(cfg))
			return analyzeErr
		})
		if runErr != nil {
			return nil, runErr
		}
		if err := sess.SetPockets(epoch, pockets); err != nil {
			return nil, err
		}
		elapsed := time.Since(start)
		if s.metrics != nil {
			s.metrics.ObserveAnalysis("computed", len(pockets), elapsed.Seconds())
		}
		s.logger.InfoContext(ctx, "pocket analysis computed",
			"request_id", requestcontext.RequestID(ctx),
			"project_id", projectID,
			"epoch", epoch,
			"pockets", len(pockets),
			"duration_ms", elapsed.Milliseconds(),
		)
		return pockets, nil
	})
	if shared && s.metrics != nil {
		s.metrics.IncrementCoalesced()
	}
	if err != nil {
		return Analysis{}, s.analysisError(err)
	}
	pockets := v.([]pocket.Pocket)
	span.SetAttributes(attribute.Int("pocket.count", len(pockets)))
	return Analysis{Pockets: pockets, Epoch: epoch}, nil
}

// List returns the cached analysis without computing.
func (s *Service) List(ctx context.Context, projectID domain.ProjectID) (Analysis, error) {
	sess := s.sessions.Get(projectID)
	_, _, epoch, err := sess.Cloud()
	if err != nil {
		return Analysis{}, dErrors.Wrap(err, dErrors.CodeConflict, "no point cloud loaded")
	}
	pockets, ok := sess.Pockets()
	if !ok {
		return Analysis{}, dErrors.New(dErrors.CodeNotFound, "no pocket analysis for the loaded cloud")
	}
	return Analysis{Pockets: pockets, Epoch: epoch, Cached: true}, nil
}

// Accept converts a cached pocket into a constraint.
func (s *Service) Accept(ctx context.Context, projectID domain.ProjectID, id domain.PocketID, label domain.Label, weight float64) (cmodels.Constraint, error) {
	c, err := s.sessions.Get(projectID).AcceptPocket(ctx, id, label, weight, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return cmodels.Constraint{}, dErrors.Wrap(err, dErrors.CodeNotFound, "pocket not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return cmodels.Constraint{}, dErrors.Wrap(err, dErrors.CodeConflict, err.Error())
		default:
			return cmodels.Constraint{}, err
		}
	}
	if s.metrics != nil {
		s.metrics.IncrementAccepted()
	}
	s.logger.InfoContext(ctx, "pocket accepted",
		"request_id", requestcontext.RequestID(ctx),
		"project_id", projectID,
		"pocket_id", id,
		"constraint_id", c.ID,
		"label", c.Label,
	)
	return c, nil
}

// analysisError classifies a failed analysis for metrics and the API.
func (s *Service) analysisError(err error) error {
	if errors.Is(err, sentinel.ErrSuperseded) {
		if s.metrics != nil {
			s.metrics.ObserveAnalysis("superseded", 0, 0)
		}
		return dErrors.Wrap(err, dErrors.CodeConflict, "pocket analysis superseded by a newer request")
	}
	if s.metrics != nil {
		s.metrics.ObserveAnalysis("error", 0, 0)
	}
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "session is closing")
	}
	return err
}
