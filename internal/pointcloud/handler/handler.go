// Package handler exposes point cloud upload and stats over HTTP. The
// upload body is the raw file; the format comes from the ?format query
// parameter or the filename extension in ?filename.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"signa/internal/pointcloud/service"
	"signa/pkg/domain"
	dErrors "signa/pkg/domain-errors"
	"signa/pkg/platform/httputil"
	"signa/pkg/requestcontext"
)

// Service defines the point cloud operations the handler needs.
type Service interface {
	Upload(ctx context.Context, projectID domain.ProjectID, r io.Reader, format string) (service.Stats, error)
	Get(ctx context.Context, projectID domain.ProjectID) (service.Stats, error)
}

// Handler wires point cloud endpoints to the service.
type Handler struct {
	service        Service
	logger         *slog.Logger
	maxUploadBytes int64
}

// New constructs a point cloud handler.
func New(service Service, logger *slog.Logger, maxUploadBytes int64) *Handler {
	return &Handler{service: service, logger: logger, maxUploadBytes: maxUploadBytes}
}

// Register mounts the per-project point cloud endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/pointcloud", h.HandleUpload)
	r.Get("/pointcloud", h.HandleGet)
}

// HandleUpload handles POST /projects/{projectID}/pointcloud.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	format := r.URL.Query().Get("format")
	if format == "" {
		if name := r.URL.Query().Get("filename"); name != "" {
			format = filepath.Ext(name)
		}
	}
	if format == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "format or filename query parameter is required"))
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	stats, err := h.service.Upload(ctx, requestcontext.ProjectID(ctx), body, format)
	if err != nil {
		h.logger.WarnContext(ctx, "upload failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, stats)
}

// HandleGet handles GET /projects/{projectID}/pointcloud.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.service.Get(ctx, requestcontext.ProjectID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
