// Package service implements point cloud upload: decode, index build, and
// the atomic swap into the project's session.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"signa/internal/pointcloud/decode"
	"signa/internal/pointcloud/index"
	"signa/internal/pointcloud/metrics"
	"signa/internal/pointcloud/models"
	"signa/internal/session"
	"signa/pkg/domain"
	dErrors "signa/pkg/domain-errors"
	"signa/pkg/requestcontext"
)

// Stats is the cloud summary the UI shows after upload.
type Stats struct {
	PointCount int        `json:"point_count"`
	HasNormals bool       `json:"has_normals"`
	Epoch      int64      `json:"epoch"`
	Spacing    float64    `json:"spacing"`
	BoundsMin  [3]float64 `json:"bounds_min"`
	BoundsMax  [3]float64 `json:"bounds_max"`
	Centroid   [3]float64 `json:"centroid"`
	MaxExtent  float64    `json:"max_extent"`
}

// Service decodes uploads and owns the session swap.
type Service struct {
	sessions *session.Registry
	decoders *decode.Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the upload metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the point cloud service.
func New(sessions *session.Registry, decoders *decode.Registry, opts ...Option) (*Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session registry is required")
	}
	if decoders == nil {
		return nil, fmt.Errorf("decoder registry is required")
	}
	svc := &Service{
		sessions: sessions,
		decoders: decoders,
		logger:   slog.Default(),
		tracer:   otel.Tracer("signa/pointcloud"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Upload decodes the stream, builds the spatial index, and swaps both into
// the session atomically. In-flight propagation or generation against the
// previous cloud is invalidated by the swap.
func (s *Service) Upload(ctx context.Context, projectID domain.ProjectID, r io.Reader, format string) (Stats, error) {
	ctx, span := s.tracer.Start(ctx, "pointcloud.Upload")
	defer span.End()
	start := time.Now()

	cloud, err := s.decoders.Decode(r, format)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementUploadRejected(format)
		}
		s.logger.WarnContext(ctx, "point cloud upload rejected",
			"request_id", requestcontext.RequestID(ctx),
			"project_id", projectID,
			"format", format,
			"error", err,
		)
		return Stats{}, err
	}

	ix := index.Build(cloud.Points)
	cloud.Spacing = ix.EstimateSpacing(cloud.Points)

	sess := s.sessions.Get(projectID)
	epoch := sess.SwapCloud(cloud, ix)

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveUpload(format, cloud.Count(), elapsed.Seconds())
	}
	span.SetAttributes(attribute.Int("pointcloud.points", cloud.Count()))
	s.logger.InfoContext(ctx, "point cloud uploaded",
		"request_id", requestcontext.RequestID(ctx),
		"project_id", projectID,
		"format", format,
		"points", cloud.Count(),
		"epoch", epoch,
		"spacing", cloud.Spacing,
		"duration_ms", elapsed.Milliseconds(),
	)
	return statsOf(cloud, epoch), nil
}

// Get returns the loaded cloud's summary.
func (s *Service) Get(ctx context.Context, projectID domain.ProjectID) (Stats, error) {
	cloud, _, epoch, err := s.sessions.Get(projectID).Cloud()
	if err != nil {
		return Stats{}, dErrors.Wrap(err, dErrors.CodeConflict, "no point cloud loaded")
	}
	return statsOf(cloud, epoch), nil
}

func statsOf(cloud *models.Cloud, epoch int64) Stats {
	return Stats{
		PointCount: cloud.Count(),
		HasNormals: cloud.HasNormals(),
		Epoch:      epoch,
		Spacing:    cloud.Spacing,
		BoundsMin:  [3]float64{cloud.Bounds.Min.X, cloud.Bounds.Min.Y, cloud.Bounds.Min.Z},
		BoundsMax:  [3]float64{cloud.Bounds.Max.X, cloud.Bounds.Max.Y, cloud.Bounds.Max.Z},
		Centroid:   [3]float64{cloud.Centroid.X, cloud.Centroid.Y, cloud.Centroid.Z},
		MaxExtent:  cloud.MaxExtent(),
	}
}
