// Package session owns the per-project labeling state: the loaded cloud and
// its spatial index, the constraint store, the interaction state machines
// (mode controller, transform, brush, ray, seed), cached pockets, generated
// samples, and the job runner. One mutex serializes every mutation, so no
// two constraint mutations ever interleave, while long computations run
// outside the lock and commit through epoch-checked methods.
package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	v3 "github.com/deadsy/sdfx/vec/v3"

	cmodels "signa/internal/constraint/models"
	cstore "signa/internal/constraint/store"
	"signa/internal/job"
	"signa/internal/pocket"
	"signa/internal/pointcloud/index"
	pcmodels "signa/internal/pointcloud/models"
	projmodels "signa/internal/project/models"
	smodels "signa/internal/sample/models"
	"signa/pkg/domain"
	dErrors "signa/pkg/domain-errors"
	"signa/pkg/platform/sentinel"
)

// defaultExtentFraction scales the cloud's longest axis into the default
// half-extent of a freshly placed primitive.
const defaultExtentFraction = 0.05

// fallbackExtent is the default half-extent when no cloud is loaded yet.
const fallbackExtent = 0.5

// Session is one project's labeling state. All exported methods are safe
// for concurrent use; each takes the session lock.
type Session struct {
	mu sync.Mutex

	projectID domain.ProjectID

	cloud *pcmodels.Cloud
	index *index.Index
	epoch int64

	constraints *cstore.InMemoryStore
	control     controller
	transform   transformSession
	brush       brushSession
	rays        raySession
	seeds       []int

	pockets     []pocket.Pocket
	pocketEpoch int64

	samples     []smodels.Sample
	sampleEpoch int64

	jobs *job.Runner
}

// New creates an empty session for a project.
func New(projectID domain.ProjectID) *Session {
	return &Session{
		projectID:   projectID,
		constraints: cstore.NewInMemoryStore(),
		control:     newController(),
		transform:   newTransformSession(),
		jobs:        job.NewRunner(),
	}
}

// ProjectID returns the owning project.
func (s *Session) ProjectID() domain.ProjectID { return s.projectID }

// Jobs returns the session's job runner.
func (s *Session) Jobs() *job.Runner { return s.jobs }

// Close cancels in-flight jobs and drops all state. Called on project
// deletion.
func (s *Session) Close(ctx context.Context) {
	s.jobs.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.constraints.Clear(ctx)
	s.cloud = nil
	s.index = nil
	s.seeds = nil
	s.brush.clear()
	s.rays.clear()
	s.pockets = nil
	s.samples = nil
	s.transform.reset()
}

// ---------------------------------------------------------------------------
// Point cloud
// ---------------------------------------------------------------------------

// SwapCloud atomically replaces the cloud and index, bumps the epoch, and
// invalidates everything derived from the previous cloud: in-flight jobs,
// seeds, strokes, rays, pockets, samples, and any placement draft (its
// picked point referenced the old cloud). Constraints survive; region
// constraints whose indices exceed the new cloud are skipped at generation.
func (s *Session) SwapCloud(cloud *pcmodels.Cloud, ix *index.Index) int64 {
	s.jobs.Supersede()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cloud = cloud
	s.index = ix
	s.epoch++
	s.seeds = nil
	s.brush.clear()
	s.rays.clear()
	s.pockets = nil
	s.samples = nil
	if s.transform.state == TransformPlacing {
		s.transform.reset()
	}
	return s.epoch
}

// Cloud returns the current cloud, its index, and the epoch. Returns
// ErrNoPointCloud when nothing is loaded.
func (s *Session) Cloud() (*pcmodels.Cloud, *index.Index, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cloud == nil {
		return nil, nil, 0, sentinel.ErrNoPointCloud
	}
	return s.cloud, s.index, s.epoch, nil
}

// Epoch returns the current cloud epoch (zero before the first upload).
func (s *Session) Epoch() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// ---------------------------------------------------------------------------
// Mode and label
// ---------------------------------------------------------------------------

// SetMode switches the interaction mode. Artifacts of other modes are left
// untouched.
func (s *Session) SetMode(m domain.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.control.setMode(m)
}

// SetLabel sets the orthogonal label selection.
func (s *Session) SetLabel(l domain.Label) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.control.setLabel(l)
}

// NextLabel cycles the label selection and returns the new value.
func (s *Session) NextLabel() domain.Label {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.control.nextLabel()
}

// EscapeResult reports what one escape press did.
type EscapeResult struct {
	Mode           domain.Mode    `json:"mode"`
	TransformState TransformState `json:"transform_state"`
	Deselected     bool           `json:"deselected"`
	DraftDiscarded bool           `json:"draft_discarded"`
}

// Escape walks one step up the interaction hierarchy: inside Primitive mode
// it first resolves the transform session (Selected or Placing → Idle),
// then leaves for Orbit; other modes go straight to Orbit. With collapse
// set, a single press does the whole walk.
func (s *Session) Escape(collapse bool) EscapeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := EscapeResult{}
	if s.control.mode == domain.ModePrimitive {
		switch s.transform.state {
		case TransformSelected:
			s.transform.deselect()
			res.Deselected = true
			if collapse {
				s.control.setMode(domain.ModeOrbit)
			}
		case TransformPlacing:
			s.transform.takeDraft()
			res.DraftDiscarded = true
			if collapse {
				s.control.setMode(domain.ModeOrbit)
			}
		default:
			s.control.setMode(domain.ModeOrbit)
		}
	} else if s.control.mode != domain.ModeOrbit {
		s.control.setMode(domain.ModeOrbit)
	}
	res.Mode = s.control.mode
	res.TransformState = s.transform.state
	return res
}

// State is a read-only snapshot of the interactive session for the UI.
type State struct {
	Mode           domain.Mode         `json:"mode"`
	Label          domain.Label        `json:"label"`
	TransformState TransformState      `json:"transform_state"`
	Draft          *cmodels.Constraint `json:"draft,omitempty"`
	Selected       domain.ConstraintID `json:"selected,omitzero"`
	Gizmo          domain.GizmoMode    `json:"gizmo,omitempty"`
	SeedCount      int                 `json:"seed_count"`
	StrokeCount    int                 `json:"stroke_count"`
	RayCount       int                 `json:"ray_count"`
	PointCount     int                 `json:"point_count"`
	Epoch          int64               `json:"epoch"`
	SampleCount    int                 `json:"sample_count"`
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Mode:           s.control.mode,
		Label:          s.control.label,
		TransformState: s.transform.state,
		Selected:       s.transform.selected,
		Gizmo:          s.transform.gizmo,
		SeedCount:      len(s.seeds),
		StrokeCount:    s.brush.count(),
		RayCount:       s.rays.count(),
		Epoch:          s.epoch,
		SampleCount:    len(s.samples),
	}
	if s.transform.draft != nil {
		d := s.transform.draft.Clone()
		st.Draft = &d
	}
	if s.cloud != nil {
		st.PointCount = s.cloud.Count()
	}
	return st
}

// ---------------------------------------------------------------------------
// Transform session (Primitive mode)
// ---------------------------------------------------------------------------

// Place starts placing a draft primitive of the given kind at the picked
// point with default extents. Requires Primitive mode. An empty label uses
// the session's current label. Any previous draft is discarded.
func (s *Session) Place(kind domain.PrimitiveKind, label domain.Label, picked v3.Vec, now time.Time) (cmodels.Constraint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.control.require(domain.ModePrimitive); err != nil {
		return cmodels.Constraint{}, err
	}
	if s.transform.state == TransformSelected {
		// Pointer-down on empty space while selected: deselect first, then
		// place, as one compound transition.
		s.transform.deselect()
	}
	if label == "" {
		label = s.control.label
	}

	extent := fallbackExtent
	if s.cloud != nil {
		if e := s.cloud.MaxExtent() * defaultExtentFraction; e > 0 {
			extent = e
		}
	}
	draft, err := cmodels.NewPrimitive(kind, label, defaultTransform(kind, picked, extent), 0, now)
	if err != nil {
		return cmodels.Constraint{}, err
	}
	s.transform.startPlacing(draft)
	return draft.Clone(), nil
}

// defaultTransform builds the initial transform for a fresh draft.
func defaultTransform(kind domain.PrimitiveKind, picked v3.Vec, extent float64) cmodels.Transform {
	t := cmodels.Transform{Translation: picked}
	switch kind {
	case domain.PrimitiveSphere:
		t.Size = v3.Vec{X: extent}
	case domain.PrimitiveCylinder:
		t.Size = v3.Vec{X: extent, Y: extent * 2}
	case domain.PrimitiveHalfspace:
		// Plane through the picked point, normal +Z until rotated.
	default:
		t.Size = v3.Vec{X: extent, Y: extent, Z: extent}
	}
	return t
}

// ConfirmPlacement commits the pending draft into the constraint store and
// returns to Idle. The draft id must match the one handed out by Place.
func (s *Session) ConfirmPlacement(ctx context.Context, draftID domain.ConstraintID) (cmodels.Constraint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transform.state != TransformPlacing || s.transform.draft == nil {
		return cmodels.Constraint{}, fmt.Errorf("%w: no placement in progress", sentinel.ErrInvalidState)
	}
	if !draftID.IsNil() && s.transform.draft.ID != draftID {
		return cmodels.Constraint{}, fmt.Errorf("%w: draft %s is not pending", sentinel.ErrInvalidState, draftID)
	}
	draft := s.transform.takeDraft()
	if _, err := s.constraints.Add(ctx, *draft); err != nil {
		return cmodels.Constraint{}, err
	}
	return draft.Clone(), nil
}

// CancelPlacement discards the pending draft. Cancelling when nothing is
// pending is a no-op so a stale cancel cannot fault the UI.
func (s *Session) CancelPlacement(draftID domain.ConstraintID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transform.state != TransformPlacing || s.transform.draft == nil {
		return false
	}
	if !draftID.IsNil() && s.transform.draft.ID != draftID {
		return false
	}
	s.transform.takeDraft()
	return true
}

// Select enters Selected for an existing primitive constraint, discarding
// any pending draft. The id is resolved by the rendering collaborator.
func (s *Session) Select(ctx context.Context, id domain.ConstraintID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.control.require(domain.ModePrimitive); err != nil {
		return err
	}
	c, err := s.constraints.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.Kind != cmodels.KindPrimitive {
		return dErrors.New(dErrors.CodeInvalidInput, "only primitive constraints can be selected")
	}
	s.transform.selectConstraint(id)
	return nil
}

// Deselect returns to Idle from Selected. No-op otherwise.
func (s *Session) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transform.state == TransformSelected {
		s.transform.deselect()
	}
}

// SetGizmo switches the gizmo mode while Selected.
func (s *Session) SetGizmo(g domain.GizmoMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transform.state != TransformSelected {
		return fmt.Errorf("%w: no selection", sentinel.ErrInvalidState)
	}
	s.transform.gizmo = g
	return nil
}

// DragSelected applies one drag sample to the selected constraint through
// the store. Dropped silently (false) when the selection raced a delete;
// drag streams must never fault.
func (s *Session) DragSelected(ctx context.Context, d Drag, cfg projmodels.Config) (cmodels.Transform, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transform.state != TransformSelected {
		return cmodels.Transform{}, false, fmt.Errorf("%w: no selection", sentinel.ErrInvalidState)
	}
	c, err := s.constraints.Get(ctx, s.transform.selected)
	if err != nil {
		// Constraint deleted out from under the drag: absorb.
		s.transform.deselect()
		return cmodels.Transform{}, false, nil
	}
	next := applyDrag(c.Primitive.Shape, c.Primitive.Transform, s.transform.gizmo, d, cfg)
	if err := cmodels.ValidateSize(c.Primitive.Shape, next); err != nil {
		// A drag can momentarily produce a non-finite transform from wild
		// pointer values; drop the sample rather than the gesture.
		return cmodels.Transform{}, false, nil
	}
	ok := s.constraints.UpdateTransform(ctx, s.transform.selected, next)
	return next, ok, nil
}

// DeleteSelected removes the selected constraint and returns to Idle.
func (s *Session) DeleteSelected(ctx context.Context) (domain.ConstraintID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transform.state != TransformSelected {
		return domain.ConstraintID{}, false, fmt.Errorf("%w: no selection", sentinel.ErrInvalidState)
	}
	id := s.transform.selected
	removed := s.constraints.Remove(ctx, id)
	s.transform.deselect()
	return id, removed, nil
}

// ---------------------------------------------------------------------------
// Seeds
// ---------------------------------------------------------------------------

// AddSeed marks a point index for propagation. Requires Seed mode and a
// loaded cloud; duplicates are absorbed.
func (s *Session) AddSeed(idx int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.control.require(domain.ModeSeed); err != nil {
		return len(s.seeds), err
	}
	if s.cloud == nil {
		return len(s.seeds), sentinel.ErrNoPointCloud
	}
	if idx < 0 || idx >= s.cloud.Count() {
		return len(s.seeds), dErrors.Newf(dErrors.CodeInvalidInput, "seed index %d out of range [0, %d)", idx, s.cloud.Count())
	}
	for _, existing := range s.seeds {
		if existing == idx {
			return len(s.seeds), nil
		}
	}
	s.seeds = append(s.seeds, idx)
	return len(s.seeds), nil
}

// SeedCount reports the pending seed count; the UI disables Propagate at 0.
func (s *Session) SeedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seeds)
}

// Seeds returns a copy of the pending seed indices.
func (s *Session) Seeds() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.seeds))
	copy(out, s.seeds)
	return out
}

// ClearSeeds empties the seed list.
func (s *Session) ClearSeeds() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeds = nil
}

// CommitPropagation atomically inserts the propagation result and clears
// the seeds, provided the cloud epoch still matches the one the computation
// started from. An epoch mismatch means an upload raced the job; the result
// is discarded as superseded.
func (s *Session) CommitPropagation(ctx context.Context, epoch int64, c cmodels.Constraint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return sentinel.ErrSuperseded
	}
	if _, err := s.constraints.Add(ctx, c); err != nil {
		return err
	}
	s.seeds = nil
	return nil
}

// ---------------------------------------------------------------------------
// Brush
// ---------------------------------------------------------------------------

// AddStroke accumulates one brush stroke. Requires Brush mode and a cloud.
func (s *Session) AddStroke(points []v3.Vec, radius float64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.control.require(domain.ModeBrush); err != nil {
		return s.brush.count(), err
	}
	if s.cloud == nil {
		return s.brush.count(), sentinel.ErrNoPointCloud
	}
	if len(points) == 0 {
		return s.brush.count(), dErrors.New(dErrors.CodeInvalidInput, "stroke has no points")
	}
	if radius <= 0 {
		return s.brush.count(), dErrors.New(dErrors.CodeInvalidInput, "brush radius must be strictly positive")
	}
	s.brush.add(points, radius)
	return s.brush.count(), nil
}

// CommitBrush resolves the union of cloud indices covered by the
// accumulated strokes and writes one painted-region constraint. An empty
// cover is rejected, mirroring the empty-seed-set contract.
func (s *Session) CommitBrush(ctx context.Context, label domain.Label, weight float64, now time.Time) (cmodels.Constraint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.control.require(domain.ModeBrush); err != nil {
		return cmodels.Constraint{}, err
	}
	if s.cloud == nil {
		return cmodels.Constraint{}, sentinel.ErrNoPointCloud
	}
	if s.brush.count() == 0 {
		return cmodels.Constraint{}, dErrors.New(dErrors.CodeInvalidInput, "no strokes to commit")
	}
	if label == "" {
		label = s.control.label
	}

	covered := make(map[int]struct{})
	for _, st := range s.brush.strokes {
		for _, p := range st.points {
			for _, idx := range s.index.QueryRadius(p, st.radius) {
				covered[idx] = struct{}{}
			}
		}
	}
	if len(covered) == 0 {
		return cmodels.Constraint{}, dErrors.New(dErrors.CodeInvalidInput, "strokes cover no points")
	}
	indices := make([]int, 0, len(covered))
	for idx := range covered {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	c, err := cmodels.NewPaintedRegion(label, indices, s.cloud.Count(), weight, now)
	if err != nil {
		return cmodels.Constraint{}, err
	}
	if _, err := s.constraints.Add(ctx, c); err != nil {
		return cmodels.Constraint{}, err
	}
	s.brush.clear()
	return c.Clone(), nil
}

// DiscardBrush drops the accumulated strokes.
func (s *Session) DiscardBrush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brush.clear()
}

// ---------------------------------------------------------------------------
// Rays
// ---------------------------------------------------------------------------

// AddRays buffers scribble rays. Requires RayScribble mode.
func (s *Session) AddRays(rays []cmodels.Ray) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.control.require(domain.ModeRayScribble); err != nil {
		return s.rays.count(), err
	}
	if len(rays) == 0 {
		return s.rays.count(), dErrors.New(dErrors.CodeInvalidInput, "ray set is empty")
	}
	if err := s.rays.add(rays); err != nil {
		return s.rays.count(), err
	}
	return s.rays.count(), nil
}

// CommitRays writes one ray-carve constraint from the buffered rays.
func (s *Session) CommitRays(ctx context.Context, label domain.Label, weight float64, now time.Time) (cmodels.Constraint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.control.require(domain.ModeRayScribble); err != nil {
		return cmodels.Constraint{}, err
	}
	if s.rays.count() == 0 {
		return cmodels.Constraint{}, dErrors.New(dErrors.CodeInvalidInput, "no rays to commit")
	}
	if label == "" {
		label = s.control.label
	}
	c, err := cmodels.NewRayCarve(label, s.rays.rays, weight, now)
	if err != nil {
		return cmodels.Constraint{}, err
	}
	if _, err := s.constraints.Add(ctx, c); err != nil {
		return cmodels.Constraint{}, err
	}
	s.rays.clear()
	return c.Clone(), nil
}

// DiscardRays drops the buffered rays.
func (s *Session) DiscardRays() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rays.clear()
}

// ---------------------------------------------------------------------------
// Pockets
// ---------------------------------------------------------------------------

// SetPockets caches an analysis result for an epoch. Discarded as
// superseded when the epoch no longer matches.
func (s *Session) SetPockets(epoch int64, pockets []pocket.Pocket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return sentinel.ErrSuperseded
	}
	s.pockets = pockets
	s.pocketEpoch = epoch
	return nil
}

// Pockets returns the cached analysis and whether it is current for the
// loaded cloud.
func (s *Session) Pockets() ([]pocket.Pocket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pockets, s.pocketEpoch == s.epoch && s.pockets != nil
}

// AcceptPocket converts a cached pocket into a constraint. Requires
// ClickPocket mode; the pocket leaves the cache so a double-click cannot
// commit it twice.
func (s *Session) AcceptPocket(ctx context.Context, id domain.PocketID, label domain.Label, weight float64, now time.Time) (cmodels.Constraint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.control.require(domain.ModeClickPocket); err != nil {
		return cmodels.Constraint{}, err
	}
	if s.pocketEpoch != s.epoch || s.pockets == nil {
		return cmodels.Constraint{}, fmt.Errorf("%w: pocket analysis is stale", sentinel.ErrInvalidState)
	}
	at := -1
	for i := range s.pockets {
		if s.pockets[i].ID == id {
			at = i
			break
		}
	}
	if at < 0 {
		return cmodels.Constraint{}, sentinel.ErrNotFound
	}
	if label == "" {
		label = s.control.label
	}
	p := s.pockets[at]
	c, err := cmodels.NewPocket(label, p.VoxelCenters, p.VoxelSize, weight, now)
	if err != nil {
		return cmodels.Constraint{}, err
	}
	if _, err := s.constraints.Add(ctx, c); err != nil {
		return cmodels.Constraint{}, err
	}
	s.pockets = append(s.pockets[:at], s.pockets[at+1:]...)
	return c.Clone(), nil
}

// ---------------------------------------------------------------------------
// Slices and imports
// ---------------------------------------------------------------------------

// CommitSlice writes a slice-region constraint from resolved slab indices.
// Requires Slice mode.
func (s *Session) CommitSlice(ctx context.Context, plane domain.SlicePlane, position float64, indices []int, label domain.Label, weight float64, now time.Time) (cmodels.Constraint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.control.require(domain.ModeSlice); err != nil {
		return cmodels.Constraint{}, err
	}
	if s.cloud == nil {
		return cmodels.Constraint{}, sentinel.ErrNoPointCloud
	}
	if label == "" {
		label = s.control.label
	}
	c, err := cmodels.NewSliceRegion(label, plane, position, indices, s.cloud.Count(), weight, now)
	if err != nil {
		return cmodels.Constraint{}, err
	}
	if _, err := s.constraints.Add(ctx, c); err != nil {
		return cmodels.Constraint{}, err
	}
	return c.Clone(), nil
}

// SelectSlab resolves the indices inside an axis-aligned slab, for UIs that
// want the core to do the selection.
func (s *Session) SelectSlab(plane domain.SlicePlane, position, thickness float64) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cloud == nil {
		return nil, sentinel.ErrNoPointCloud
	}
	if thickness <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "slab thickness must be strictly positive")
	}
	axis := plane.NormalAxis()
	half := thickness / 2
	var indices []int
	for i, p := range s.cloud.Points {
		var v float64
		switch axis {
		case 0:
			v = p.X
		case 1:
			v = p.Y
		default:
			v = p.Z
		}
		if v >= position-half && v <= position+half {
			indices = append(indices, i)
		}
	}
	return indices, nil
}

// ImportPredictions writes an ML-import constraint from resolved indices.
// Requires Import mode.
func (s *Session) ImportPredictions(ctx context.Context, sourceTag string, indices []int, confidences []float64, label domain.Label, weight float64, now time.Time) (cmodels.Constraint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.control.require(domain.ModeImport); err != nil {
		return cmodels.Constraint{}, err
	}
	if s.cloud == nil {
		return cmodels.Constraint{}, sentinel.ErrNoPointCloud
	}
	if label == "" {
		label = s.control.label
	}
	c, err := cmodels.NewMLImport(label, sourceTag, indices, confidences, s.cloud.Count(), weight, now)
	if err != nil {
		return cmodels.Constraint{}, err
	}
	if _, err := s.constraints.Add(ctx, c); err != nil {
		return cmodels.Constraint{}, err
	}
	return c.Clone(), nil
}

// ---------------------------------------------------------------------------
// Constraints
// ---------------------------------------------------------------------------

// Constraints lists the store in insertion order.
func (s *Session) Constraints(ctx context.Context) []cmodels.Constraint {
	return s.constraints.List(ctx)
}

// GetConstraint returns one constraint.
func (s *Session) GetConstraint(ctx context.Context, id domain.ConstraintID) (cmodels.Constraint, error) {
	return s.constraints.Get(ctx, id)
}

// ConstraintCount reports the store size.
func (s *Session) ConstraintCount(ctx context.Context) int {
	return s.constraints.Len(ctx)
}

// DeleteConstraint removes a constraint by id, deselecting it first when it
// is the current selection. A stale id reports false, never an error.
func (s *Session) DeleteConstraint(ctx context.Context, id domain.ConstraintID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transform.state == TransformSelected && s.transform.selected == id {
		s.transform.deselect()
	}
	return s.constraints.Remove(ctx, id)
}

// SetConstraintTransform overwrites a primitive constraint's transform
// after validation. A stale id reports false.
func (s *Session) SetConstraintTransform(ctx context.Context, id domain.ConstraintID, t cmodels.Transform) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.constraints.Get(ctx, id)
	if err != nil {
		return false, nil // stale id: no-op by contract
	}
	if c.Kind != cmodels.KindPrimitive {
		return false, dErrors.New(dErrors.CodeInvalidInput, "only primitive constraints carry a transform")
	}
	if err := cmodels.ValidateSize(c.Primitive.Shape, t); err != nil {
		return false, err
	}
	return s.constraints.UpdateTransform(ctx, id, t), nil
}

// SetConstraintLabel rewrites a constraint's label.
func (s *Session) SetConstraintLabel(ctx context.Context, id domain.ConstraintID, label domain.Label) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.constraints.SetLabel(ctx, id, label)
}

// SetConstraintWeight rewrites a constraint's weight.
func (s *Session) SetConstraintWeight(ctx context.Context, id domain.ConstraintID, weight float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if weight < 0 || weight > 10 {
		return false, dErrors.New(dErrors.CodeInvalidInput, "weight must be within [0, 10]")
	}
	return s.constraints.SetWeight(ctx, id, weight), nil
}

// ---------------------------------------------------------------------------
// Samples
// ---------------------------------------------------------------------------

// SetSamples replaces the generated sample set, provided the epoch still
// matches. Generation computes outside the lock and commits here.
func (s *Session) SetSamples(epoch int64, samples []smodels.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return sentinel.ErrSuperseded
	}
	s.samples = samples
	s.sampleEpoch = epoch
	return nil
}

// Samples returns the generated samples. The slice is shared; samples are
// immutable once generated.
func (s *Session) Samples() []smodels.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samples
}
