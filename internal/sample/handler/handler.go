// Package handler exposes sample generation, viewing, and export over HTTP.
package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"signa/internal/sample/service"
	"signa/pkg/domain"
	"signa/pkg/platform/httputil"
	"signa/pkg/requestcontext"
)

// Service defines the sample operations the handler needs.
type Service interface {
	Generate(ctx context.Context, projectID domain.ProjectID) (service.GenerateResult, error)
	List(ctx context.Context, projectID domain.ProjectID, limit int) (service.View, error)
	Export(ctx context.Context, projectID domain.ProjectID, format string, w io.Writer) (string, int, error)
}

var _ Service = (*service.Service)(nil)

// Handler wires sample endpoints to the sample service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a sample handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the per-project sample endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/samples/generate", h.HandleGenerate)
	r.Get("/samples", h.HandleList)
	r.Get("/export", h.HandleExport)
}

// HandleGenerate handles POST /projects/{projectID}/samples/generate.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.service.Generate(ctx, requestcontext.ProjectID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleList handles GET /projects/{projectID}/samples?limit=N.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := httputil.QueryInt(r.URL.Query(), "limit", 0)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.service.List(ctx, requestcontext.ProjectID(ctx), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleExport handles GET /projects/{projectID}/export?format=csv.
// The dataset is encoded to a buffer first so an encoding failure can still
// produce a proper error response.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	var buf bytes.Buffer
	contentType, rows, err := h.service.Export(ctx, requestcontext.ProjectID(ctx), format, &buf)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"samples.%s\"", format))
	w.Header().Set("X-Row-Count", fmt.Sprintf("%d", rows))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, &buf)
}
