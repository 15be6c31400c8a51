// Package handler exposes pocket analysis and acceptance over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	cmodels "signa/internal/constraint/models"
	"signa/internal/pocket/service"
	"signa/pkg/domain"
	"signa/pkg/platform/httputil"
	"signa/pkg/requestcontext"
)

// Service defines the pocket operations the handler needs.
type Service interface {
	Analyze(ctx context.Context, projectID domain.ProjectID) (service.Analysis, error)
	List(ctx context.Context, projectID domain.ProjectID) (service.Analysis, error)
	Accept(ctx context.Context, projectID domain.ProjectID, id domain.PocketID, label domain.Label, weight float64) (cmodels.Constraint, error)
}

var _ Service = (*service.Service)(nil)

// Handler wires pocket endpoints to the pocket service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a pocket handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the per-project pocket endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/pockets/analyze", h.HandleAnalyze)
	r.Get("/pockets", h.HandleList)
	r.Post("/pockets/{pocketID}/accept", h.HandleAccept)
}

// HandleAnalyze handles POST /projects/{projectID}/pockets/analyze.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.service.Analyze(ctx, requestcontext.ProjectID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleList handles GET /projects/{projectID}/pockets.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.service.List(ctx, requestcontext.ProjectID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// AcceptRequest is the pocket accept payload.
type AcceptRequest struct {
	Label  string  `json:"label,omitempty"`
	Weight float64 `json:"weight,omitempty"`
}

// HandleAccept handles POST /projects/{projectID}/pockets/{pocketID}/accept.
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParsePocketID(chi.URLParam(r, "pocketID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[AcceptRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
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
	c, err := h.service.Accept(ctx, requestcontext.ProjectID(ctx), id, label, req.Weight)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}
