package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	UploadsTotal   *prometheus.CounterVec
	UploadPoints   prometheus.Histogram
	UploadDuration prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		UploadsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signa_pointcloud_uploads_total",
			Help: "Point cloud uploads by format and outcome",
		}, []string{"format", "outcome"}),
		UploadPoints: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "signa_pointcloud_upload_points",
			Help:    "Points per accepted upload",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6),
		}),
		UploadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "signa_pointcloud_upload_duration_seconds",
			Help:    "Decode plus index build time per upload",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) ObserveUpload(format string, points int, seconds float64) {
	m.UploadsTotal.WithLabelValues(format, "accepted").Inc()
	m.UploadPoints.Observe(float64(points))
	m.UploadDuration.Observe(seconds)
}

func (m *Metrics) IncrementUploadRejected(format string) {
	m.UploadsTotal.WithLabelValues(format, "rejected").Inc()
}
