// Package handler exposes project CRUD and configuration over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"signa/internal/project/models"
	"signa/pkg/domain"
	dErrors "signa/pkg/domain-errors"
	"signa/pkg/platform/httputil"
	"signa/pkg/requestcontext"
)

// Service defines the project operations the handler needs.
type Service interface {
	Create(ctx context.Context, name string, patch *models.Patch) (models.Project, error)
	Get(ctx context.Context, id domain.ProjectID) (models.Project, error)
	List(ctx context.Context) []models.Project
	UpdateConfig(ctx context.Context, id domain.ProjectID, patch models.Patch) (models.Config, error)
	Rename(ctx context.Context, id domain.ProjectID, name string) (models.Project, error)
	Delete(ctx context.Context, id domain.ProjectID) error
}

// Handler wires project endpoints to the project service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a project handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the collection-level endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/projects", h.HandleCreate)
	r.Get("/projects", h.HandleList)
}

// RegisterProject mounts the per-project endpoints; the router resolves
// {projectID} before these run.
func (h *Handler) RegisterProject(r chi.Router) {
	r.Get("/", h.HandleGet)
	r.Patch("/", h.HandleRename)
	r.Delete("/", h.HandleDelete)
	r.Patch("/config", h.HandleUpdateConfig)
}

// CreateRequest is the POST /projects payload.
type CreateRequest struct {
	Name   string        `json:"name"`
	Config *models.Patch `json:"config,omitempty"`
}

// Validate enforces the required fields.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	return nil
}

// HandleCreate handles POST /projects.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	p, err := h.service.Create(ctx, req.Name, req.Config)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

// HandleList handles GET /projects.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"projects": h.service.List(r.Context())})
}

// HandleGet handles GET /projects/{projectID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.service.Get(ctx, requestcontext.ProjectID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// RenameRequest is the PATCH /projects/{projectID} payload.
type RenameRequest struct {
	Name string `json:"name"`
}

// Validate enforces the required fields.
func (r *RenameRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	return nil
}

// HandleRename handles PATCH /projects/{projectID}.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RenameRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	p, err := h.service.Rename(ctx, requestcontext.ProjectID(ctx), req.Name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// HandleUpdateConfig handles PATCH /projects/{projectID}/config.
func (h *Handler) HandleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.Patch](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	cfg, err := h.service.UpdateConfig(ctx, requestcontext.ProjectID(ctx), *req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

// HandleDelete handles DELETE /projects/{projectID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Delete(ctx, requestcontext.ProjectID(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
