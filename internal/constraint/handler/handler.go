// Package handler exposes constraint management, slice commits, and
// prediction imports over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"signa/internal/constraint/models"
	"signa/internal/constraint/service"
	"signa/pkg/domain"
	dErrors "signa/pkg/domain-errors"
	"signa/pkg/platform/httputil"
	"signa/pkg/requestcontext"
)

// Service defines the constraint operations the handler needs.
type Service interface {
	List(ctx context.Context, projectID domain.ProjectID) []models.Constraint
	Get(ctx context.Context, projectID domain.ProjectID, id domain.ConstraintID) (models.Constraint, error)
	Delete(ctx context.Context, projectID domain.ProjectID, id domain.ConstraintID) bool
	UpdateTransform(ctx context.Context, projectID domain.ProjectID, id domain.ConstraintID, t models.Transform) (bool, error)
	SetLabel(ctx context.Context, projectID domain.ProjectID, id domain.ConstraintID, label domain.Label) bool
	SetWeight(ctx context.Context, projectID domain.ProjectID, id domain.ConstraintID, weight float64) (bool, error)
	CommitSlice(ctx context.Context, projectID domain.ProjectID, plane domain.SlicePlane, position float64, indices []int, label domain.Label, weight float64) (models.Constraint, error)
	SelectSlab(ctx context.Context, projectID domain.ProjectID, plane domain.SlicePlane, position, thickness float64) ([]int, error)
	ImportPredictions(ctx context.Context, projectID domain.ProjectID, sourceTag string, indices []int, confidences []float64, label domain.Label, weight float64) (models.Constraint, error)
}

var _ Service = (*service.Service)(nil)

// Handler wires constraint endpoints to the constraint service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a constraint handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the per-project constraint endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/constraints", h.HandleList)
	r.Get("/constraints/{constraintID}", h.HandleGet)
	r.Delete("/constraints/{constraintID}", h.HandleDelete)
	r.Patch("/constraints/{constraintID}/transform", h.HandleUpdateTransform)
	r.Patch("/constraints/{constraintID}/label", h.HandleSetLabel)
	r.Patch("/constraints/{constraintID}/weight", h.HandleSetWeight)
	r.Post("/slices", h.HandleCommitSlice)
	r.Get("/slices/slab", h.HandleSelectSlab)
	r.Post("/imports", h.HandleImport)
}

func constraintID(w http.ResponseWriter, r *http.Request) (domain.ConstraintID, bool) {
	id, err := domain.ParseConstraintID(chi.URLParam(r, "constraintID"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.ConstraintID{}, false
	}
	return id, true
}

// HandleList handles GET /projects/{projectID}/constraints.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	constraints := h.service.List(ctx, requestcontext.ProjectID(ctx))
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"constraints": constraints})
}

// HandleGet handles GET /projects/{projectID}/constraints/{constraintID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := constraintID(w, r)
	if !ok {
		return
	}
	c, err := h.service.Get(ctx, requestcontext.ProjectID(ctx), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// HandleDelete handles DELETE /projects/{projectID}/constraints/{constraintID}.
// Deleting an absent id is a no-op that reports deleted=false.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := constraintID(w, r)
	if !ok {
		return
	}
	deleted := h.service.Delete(ctx, requestcontext.ProjectID(ctx), id)
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// TransformRequest is the transform PATCH payload.
type TransformRequest struct {
	Transform models.Transform `json:"transform"`
}

// HandleUpdateTransform handles PATCH .../constraints/{constraintID}/transform.
func (h *Handler) HandleUpdateTransform(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := constraintID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransformRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.service.UpdateTransform(ctx, requestcontext.ProjectID(ctx), id, req.Transform)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"updated": updated})
}

// LabelRequest is the label PATCH payload.
type LabelRequest struct {
	Label string `json:"label"`
}

// HandleSetLabel handles PATCH .../constraints/{constraintID}/label.
func (h *Handler) HandleSetLabel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := constraintID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[LabelRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	label, err := domain.ParseLabel(req.Label)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	updated := h.service.SetLabel(ctx, requestcontext.ProjectID(ctx), id, label)
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"updated": updated})
}

// WeightRequest is the weight PATCH payload.
type WeightRequest struct {
	Weight float64 `json:"weight"`
}

// HandleSetWeight handles PATCH .../constraints/{constraintID}/weight.
func (h *Handler) HandleSetWeight(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := constraintID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[WeightRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.service.SetWeight(ctx, requestcontext.ProjectID(ctx), id, req.Weight)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"updated": updated})
}

// SliceRequest is the POST /slices payload.
type SliceRequest struct {
	Plane    string  `json:"plane"`
	Position float64 `json:"position"`
	Indices  []int   `json:"indices"`
	Label    string  `json:"label,omitempty"`
	Weight   float64 `json:"weight,omitempty"`
}

// Validate enforces the required fields.
func (r *SliceRequest) Validate() error {
	if len(r.Indices) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "indices are required")
	}
	return nil
}

// HandleCommitSlice handles POST /projects/{projectID}/slices.
func (h *Handler) HandleCommitSlice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SliceRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	plane, err := domain.ParseSlicePlane(req.Plane)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	label, err := optionalLabel(req.Label)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.CommitSlice(ctx, requestcontext.ProjectID(ctx), plane, req.Position, req.Indices, label, req.Weight)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

// HandleSelectSlab handles GET /projects/{projectID}/slices/slab.
func (h *Handler) HandleSelectSlab(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	plane, err := domain.ParseSlicePlane(q.Get("plane"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	position, err := httputil.QueryFloat(q, "position")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	thickness, err := httputil.QueryFloat(q, "thickness")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	indices, err := h.service.SelectSlab(ctx, requestcontext.ProjectID(ctx), plane, position, thickness)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"indices": indices, "count": len(indices)})
}

// ImportRequest is the POST /imports payload.
type ImportRequest struct {
	SourceTag   string    `json:"source_tag,omitempty"`
	Indices     []int     `json:"indices"`
	Confidences []float64 `json:"confidences,omitempty"`
	Label       string    `json:"label,omitempty"`
	Weight      float64   `json:"weight,omitempty"`
}

// Validate enforces the required fields.
func (r *ImportRequest) Validate() error {
	if len(r.Indices) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "indices are required")
	}
	if r.Confidences != nil && len(r.Confidences) != len(r.Indices) {
		return dErrors.New(dErrors.CodeInvalidInput, "confidences must pair 1:1 with indices")
	}
	return nil
}

// HandleImport handles POST /projects/{projectID}/imports.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ImportRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	label, err := optionalLabel(req.Label)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.ImportPredictions(ctx, requestcontext.ProjectID(ctx), req.SourceTag, req.Indices, req.Confidences, label, req.Weight)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

// optionalLabel parses a label when supplied; empty defers to the session's
// current label.
func optionalLabel(s string) (domain.Label, error) {
	if s == "" {
		return "", nil
	}
	return domain.ParseLabel(s)
}
