// Package handler exposes the interactive session over HTTP: mode and label
// switching, placement, selection, gizmo drags, and the seed, brush, and ray
// intakes.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	v3 "github.com/deadsy/sdfx/vec/v3"

	cmodels "signa/internal/constraint/models"
	"signa/internal/session"
	"signa/internal/session/service"
	"signa/pkg/domain"
	dErrors "signa/pkg/domain-errors"
	"signa/pkg/platform/httputil"
	"signa/pkg/requestcontext"
)

// Service defines the session operations the handler needs.
type Service interface {
	State(ctx context.Context, projectID domain.ProjectID) session.State
	SetMode(ctx context.Context, projectID domain.ProjectID, mode domain.Mode) session.State
	SetLabel(ctx context.Context, projectID domain.ProjectID, label domain.Label) session.State
	CycleLabel(ctx context.Context, projectID domain.ProjectID) session.State
	Escape(ctx context.Context, projectID domain.ProjectID) (session.EscapeResult, error)
	Place(ctx context.Context, projectID domain.ProjectID, kind domain.PrimitiveKind, label domain.Label, picked v3.Vec) (cmodels.Constraint, error)
	ConfirmPlacement(ctx context.Context, projectID domain.ProjectID, draftID domain.ConstraintID) (cmodels.Constraint, error)
	CancelPlacement(ctx context.Context, projectID domain.ProjectID, draftID domain.ConstraintID) bool
	Select(ctx context.Context, projectID domain.ProjectID, id domain.ConstraintID) (session.State, error)
	Deselect(ctx context.Context, projectID domain.ProjectID) session.State
	SetGizmo(ctx context.Context, projectID domain.ProjectID, g domain.GizmoMode) (session.State, error)
	Drag(ctx context.Context, projectID domain.ProjectID, d session.Drag) (service.DragResult, error)
	DeleteSelected(ctx context.Context, projectID domain.ProjectID) (domain.ConstraintID, bool, error)
	AddSeed(ctx context.Context, projectID domain.ProjectID, index int) (int, error)
	Seeds(ctx context.Context, projectID domain.ProjectID) []int
	ClearSeeds(ctx context.Context, projectID domain.ProjectID)
	AddStroke(ctx context.Context, projectID domain.ProjectID, points []v3.Vec, radius float64) (int, error)
	CommitBrush(ctx context.Context, projectID domain.ProjectID, label domain.Label, weight float64) (cmodels.Constraint, error)
	DiscardBrush(ctx context.Context, projectID domain.ProjectID)
	AddRays(ctx context.Context, projectID domain.ProjectID, rays []cmodels.Ray) (int, error)
	CommitRays(ctx context.Context, projectID domain.ProjectID, label domain.Label, weight float64) (cmodels.Constraint, error)
	DiscardRays(ctx context.Context, projectID domain.ProjectID)
}

var _ Service = (*service.Service)(nil)

// Handler wires session endpoints to the session service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a session handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the per-project session endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/session", h.HandleState)
	r.Put("/session/mode", h.HandleSetMode)
	r.Put("/session/label", h.HandleSetLabel)
	r.Post("/session/label/next", h.HandleCycleLabel)
	r.Post("/session/escape", h.HandleEscape)

	r.Post("/session/placement", h.HandlePlace)
	r.Post("/session/placement/confirm", h.HandleConfirmPlacement)
	r.Delete("/session/placement", h.HandleCancelPlacement)
	r.Post("/session/selection", h.HandleSelect)
	r.Delete("/session/selection", h.HandleDeselect)
	r.Post("/session/pointer/empty", h.HandlePointerEmpty)
	r.Put("/session/gizmo", h.HandleSetGizmo)
	r.Post("/session/drag", h.HandleDrag)
	r.Delete("/session/selected", h.HandleDeleteSelected)

	r.Post("/seeds", h.HandleAddSeed)
	r.Get("/seeds", h.HandleSeeds)
	r.Delete("/seeds", h.HandleClearSeeds)

	r.Post("/brush/strokes", h.HandleAddStroke)
	r.Post("/brush/commit", h.HandleCommitBrush)
	r.Delete("/brush", h.HandleDiscardBrush)

	r.Post("/rays", h.HandleAddRays)
	r.Post("/rays/commit", h.HandleCommitRays)
	r.Delete("/rays", h.HandleDiscardRays)
}

// HandleState handles GET /projects/{projectID}/session.
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	httputil.WriteJSON(w, http.StatusOK, h.service.State(ctx, requestcontext.ProjectID(ctx)))
}

// ModeRequest is the mode PUT payload.
type ModeRequest struct {
	Mode string `json:"mode"`
}

// HandleSetMode handles PUT /projects/{projectID}/session/mode.
func (h *Handler) HandleSetMode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ModeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.service.SetMode(ctx, requestcontext.ProjectID(ctx), mode))
}

// LabelRequest is the label PUT payload.
type LabelRequest struct {
	Label string `json:"label"`
}

// HandleSetLabel handles PUT /projects/{projectID}/session/label.
func (h *Handler) HandleSetLabel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[LabelRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	label, err := domain.ParseLabel(req.Label)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.service.SetLabel(ctx, requestcontext.ProjectID(ctx), label))
}

// HandleCycleLabel handles POST /projects/{projectID}/session/label/next.
func (h *Handler) HandleCycleLabel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	httputil.WriteJSON(w, http.StatusOK, h.service.CycleLabel(ctx, requestcontext.ProjectID(ctx)))
}

// HandleEscape handles POST /projects/{projectID}/session/escape.
func (h *Handler) HandleEscape(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.service.Escape(ctx, requestcontext.ProjectID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// PlaceRequest is the placement POST payload.
type PlaceRequest struct {
	Shape  string     `json:"shape"`
	Label  string     `json:"label,omitempty"`
	Picked [3]float64 `json:"picked"`
}

// HandlePlace handles POST /projects/{projectID}/session/placement.
func (h *Handler) HandlePlace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[PlaceRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	kind, err := domain.ParsePrimitiveKind(req.Shape)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	label, err := optionalLabel(req.Label)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	picked := v3.Vec{X: req.Picked[0], Y: req.Picked[1], Z: req.Picked[2]}
	draft, err := h.service.Place(ctx, requestcontext.ProjectID(ctx), kind, label, picked)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, draft)
}

// DraftRequest carries the draft id for confirm and cancel.
type DraftRequest struct {
	DraftID string `json:"draft_id,omitempty"`
}

func (r *DraftRequest) draftID() (domain.ConstraintID, error) {
	if r.DraftID == "" {
		return domain.ConstraintID{}, nil
	}
	return domain.ParseConstraintID(r.DraftID)
}

// HandleConfirmPlacement handles POST .../session/placement/confirm.
func (h *Handler) HandleConfirmPlacement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[DraftRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	draftID, err := req.draftID()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.ConfirmPlacement(ctx, requestcontext.ProjectID(ctx), draftID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

// HandleCancelPlacement handles DELETE .../session/placement.
func (h *Handler) HandleCancelPlacement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[DraftRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	draftID, err := req.draftID()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cancelled := h.service.CancelPlacement(ctx, requestcontext.ProjectID(ctx), draftID)
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

// SelectRequest is the selection POST payload.
type SelectRequest struct {
	ConstraintID string `json:"constraint_id"`
}

// Validate enforces the required fields.
func (r *SelectRequest) Validate() error {
	if r.ConstraintID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "constraint_id is required")
	}
	return nil
}

// HandleSelect handles POST /projects/{projectID}/session/selection.
func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SelectRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	id, err := domain.ParseConstraintID(req.ConstraintID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	state, err := h.service.Select(ctx, requestcontext.ProjectID(ctx), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, state)
}

// HandleDeselect handles DELETE /projects/{projectID}/session/selection.
func (h *Handler) HandleDeselect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	httputil.WriteJSON(w, http.StatusOK, h.service.Deselect(ctx, requestcontext.ProjectID(ctx)))
}

// HandlePointerEmpty handles POST .../session/pointer/empty: a pointer-down
// on empty space, which drops the current selection when there is one.
func (h *Handler) HandlePointerEmpty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	httputil.WriteJSON(w, http.StatusOK, h.service.Deselect(ctx, requestcontext.ProjectID(ctx)))
}

// GizmoRequest is the gizmo PUT payload.
type GizmoRequest struct {
	Gizmo string `json:"gizmo"`
}

// HandleSetGizmo handles PUT .../session/gizmo.
func (h *Handler) HandleSetGizmo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[GizmoRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	gizmo, err := domain.ParseGizmoMode(req.Gizmo)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	state, err := h.service.SetGizmo(ctx, requestcontext.ProjectID(ctx), gizmo)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, state)
}

// DragRequest is the drag POST payload.
type DragRequest struct {
	Delta    [3]float64 `json:"delta"`
	DX       float64    `json:"dx"`
	Distance float64    `json:"distance"`
	Axis     int        `json:"axis"`
}

// Validate enforces the axis range.
func (r *DragRequest) Validate() error {
	if r.Axis < 0 || r.Axis > 2 {
		return dErrors.New(dErrors.CodeInvalidInput, "axis must be 0, 1, or 2")
	}
	return nil
}

// HandleDrag handles POST .../session/drag.
func (h *Handler) HandleDrag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[DragRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	d := session.Drag{
		Delta:    v3.Vec{X: req.Delta[0], Y: req.Delta[1], Z: req.Delta[2]},
		DX:       req.DX,
		Distance: req.Distance,
		Axis:     req.Axis,
	}
	res, err := h.service.Drag(ctx, requestcontext.ProjectID(ctx), d)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleDeleteSelected handles DELETE .../session/selected.
func (h *Handler) HandleDeleteSelected(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, removed, err := h.service.DeleteSelected(ctx, requestcontext.ProjectID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"constraint_id": id, "deleted": removed})
}

// SeedRequest is the seed POST payload.
type SeedRequest struct {
	Index int `json:"index"`
}

// HandleAddSeed handles POST /projects/{projectID}/seeds.
func (h *Handler) HandleAddSeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SeedRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	count, err := h.service.AddSeed(ctx, requestcontext.ProjectID(ctx), req.Index)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"seed_count": count})
}

// HandleSeeds handles GET /projects/{projectID}/seeds.
func (h *Handler) HandleSeeds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	seeds := h.service.Seeds(ctx, requestcontext.ProjectID(ctx))
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"indices": seeds, "seed_count": len(seeds)})
}

// HandleClearSeeds handles DELETE /projects/{projectID}/seeds.
func (h *Handler) HandleClearSeeds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.service.ClearSeeds(ctx, requestcontext.ProjectID(ctx))
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"seed_count": 0})
}

// StrokeRequest is the brush stroke POST payload.
type StrokeRequest struct {
	Points [][3]float64 `json:"points"`
	Radius float64      `json:"radius"`
}

// Validate enforces the required fields.
func (r *StrokeRequest) Validate() error {
	if len(r.Points) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "points are required")
	}
	return nil
}

// HandleAddStroke handles POST /projects/{projectID}/brush/strokes.
func (h *Handler) HandleAddStroke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[StrokeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	points := make([]v3.Vec, len(req.Points))
	for i, p := range req.Points {
		points[i] = v3.Vec{X: p[0], Y: p[1], Z: p[2]}
	}
	count, err := h.service.AddStroke(ctx, requestcontext.ProjectID(ctx), points, req.Radius)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"stroke_count": count})
}

// CommitRequest is the shared brush and ray commit payload.
type CommitRequest struct {
	Label  string  `json:"label,omitempty"`
	Weight float64 `json:"weight,omitempty"`
}

// HandleCommitBrush handles POST /projects/{projectID}/brush/commit.
func (h *Handler) HandleCommitBrush(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CommitRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	label, err := optionalLabel(req.Label)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.CommitBrush(ctx, requestcontext.ProjectID(ctx), label, req.Weight)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

// HandleDiscardBrush handles DELETE /projects/{projectID}/brush.
func (h *Handler) HandleDiscardBrush(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.service.DiscardBrush(ctx, requestcontext.ProjectID(ctx))
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"stroke_count": 0})
}

// RayPayload is one scribble ray on the wire.
type RayPayload struct {
	Origin      [3]float64 `json:"origin"`
	Direction   [3]float64 `json:"direction"`
	HitDistance float64    `json:"hit_distance"`
	Spacing     float64    `json:"spacing,omitempty"`
}

// RaysRequest is the ray POST payload.
type RaysRequest struct {
	Rays []RayPayload `json:"rays"`
}

// Validate enforces the required fields.
func (r *RaysRequest) Validate() error {
	if len(r.Rays) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "rays are required")
	}
	return nil
}

// HandleAddRays handles POST /projects/{projectID}/rays.
func (h *Handler) HandleAddRays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RaysRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rays := make([]cmodels.Ray, len(req.Rays))
	for i, p := range req.Rays {
		rays[i] = cmodels.Ray{
			Origin:       v3.Vec{X: p.Origin[0], Y: p.Origin[1], Z: p.Origin[2]},
			Direction:    v3.Vec{X: p.Direction[0], Y: p.Direction[1], Z: p.Direction[2]},
			HitDistance:  p.HitDistance,
			LocalSpacing: p.Spacing,
		}
	}
	count, err := h.service.AddRays(ctx, requestcontext.ProjectID(ctx), rays)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"ray_count": count})
}

// HandleCommitRays handles POST /projects/{projectID}/rays/commit.
func (h *Handler) HandleCommitRays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CommitRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	label, err := optionalLabel(req.Label)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.CommitRays(ctx, requestcontext.ProjectID(ctx), label, req.Weight)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

// HandleDiscardRays handles DELETE /projects/{projectID}/rays.
func (h *Handler) HandleDiscardRays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.service.DiscardRays(ctx, requestcontext.ProjectID(ctx))
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"ray_count": 0})
}

// optionalLabel parses a label when supplied; empty defers to the session's
// current label.
func optionalLabel(s string) (domain.Label, error) {
	if s == "" {
		return "", nil
	}
	return domain.ParseLabel(s)
}
