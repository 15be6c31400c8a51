// Package handler exposes seed propagation over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"signa/internal/propagate/service"
	"signa/pkg/domain"
	"signa/pkg/platform/httputil"
	"signa/pkg/requestcontext"
)

// Service defines the propagation operation the handler needs.
type Service interface {
	Propagate(ctx context.Context, projectID domain.ProjectID, label domain.Label, weight float64) (service.Result, error)
}

var _ Service = (*service.Service)(nil)

// Handler wires the propagation endpoint to the propagation service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a propagation handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the per-project propagation endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Post("/seeds/propagate", h.HandlePropagate)
}

// PropagateRequest is the propagation POST payload.
type PropagateRequest struct {
	Label  string  `json:"label,omitempty"`
	Weight float64 `json:"weight,omitempty"`
}

// HandlePropagate handles POST /projects/{projectID}/seeds/propagate.
func (h *Handler) HandlePropagate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[PropagateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	var label domain.Label
	if req.Label != "" {
		parsed, err := domain.ParseLabel(req.Label)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		label = parsed
	}
	res, err := h.service.Propagate(ctx, requestcontext.ProjectID(ctx), label, req.Weight)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}
