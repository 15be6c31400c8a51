package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmodels "signa/internal/constraint/models"
	"signa/internal/pointcloud/index"
	pcmodels "signa/internal/pointcloud/models"
	projmodels "signa/internal/project/models"
	"signa/internal/session"
	"signa/internal/session/service"
	"signa/pkg/domain"
	"signa/pkg/testutil"
)

type staticConfigs struct {
	cfg projmodels.Config
}

func (s staticConfigs) Config(context.Context, domain.ProjectID) (projmodels.Config, error) {
	return s.cfg, nil
}

type fixture struct {
	router    chi.Router
	registry  *session.Registry
	projectID domain.ProjectID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	registry := session.NewRegistry()
	svc, err := service.New(registry, staticConfigs{cfg: projmodels.DefaultConfig()})
	require.NoError(t, err)

	r := chi.NewRouter()
	New(svc, slog.Default()).Register(r)

	return &fixture{router: r, registry: registry, projectID: domain.NewProjectID()}
}

func (f *fixture) loadCloud(t *testing.T, n int) {
	t.Helper()
	pts := make([]v3.Vec, n)
	for i := range pts {
		pts[i] = v3.Vec{X: float64(i)}
	}
	cloud, err := pcmodels.New(pts, nil, nil)
	require.NoError(t, err)
	f.registry.Get(f.projectID).SwapCloud(cloud, index.Build(pts))
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, path, body)
	req = testutil.WithProjectID(req, f.projectID.String())
	return testutil.DoRequest(f.router, req)
}

func TestHandleState_Defaults(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/session", nil)
	testutil.AssertStatusOK(t, rr)

	state := testutil.UnmarshalResponse[session.State](t, rr)
	assert.Equal(t, domain.ModeOrbit, state.Mode)
	assert.Equal(t, domain.LabelSolid, state.Label)
}

func TestHandleSetMode(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPut, "/session/mode", ModeRequest{Mode: "seed"})
	testutil.AssertStatusOK(t, rr)
	assert.Equal(t, domain.ModeSeed, testutil.UnmarshalResponse[session.State](t, rr).Mode)

	rr = f.do(t, http.MethodPut, "/session/mode", ModeRequest{Mode: "teleport"})
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestHandleAddSeed_WrongModeConflicts(t *testing.T) {
	f := newFixture(t)
	f.loadCloud(t, 10)

	rr := f.do(t, http.MethodPost, "/seeds", SeedRequest{Index: 3})
	testutil.AssertStatus(t, rr, http.StatusConflict)
}

func TestHandleAddSeed(t *testing.T) {
	f := newFixture(t)
	f.loadCloud(t, 10)
	f.do(t, http.MethodPut, "/session/mode", ModeRequest{Mode: "seed"})

	rr := f.do(t, http.MethodPost, "/seeds", SeedRequest{Index: 3})
	testutil.AssertStatusOK(t, rr)
	assert.Equal(t, 1, (*testutil.UnmarshalResponse[map[string]int](t, rr))["seed_count"])

	rr = f.do(t, http.MethodPost, "/seeds", SeedRequest{Index: 99})
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = f.do(t, http.MethodGet, "/seeds", nil)
	testutil.AssertStatusOK(t, rr)
	got := testutil.UnmarshalResponse[struct {
		Indices   []int `json:"indices"`
		SeedCount int   `json:"seed_count"`
	}](t, rr)
	assert.Equal(t, []int{3}, got.Indices)

	rr = f.do(t, http.MethodDelete, "/seeds", nil)
	testutil.AssertStatusOK(t, rr)
}

func TestHandleAddSeed_NoCloudConflicts(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPut, "/session/mode", ModeRequest{Mode: "seed"})

	rr := f.do(t, http.MethodPost, "/seeds", SeedRequest{Index: 0})
	testutil.AssertStatus(t, rr, http.StatusConflict)
}

func TestPlacementFlow(t *testing.T) {
	f := newFixture(t)
	f.loadCloud(t, 10)
	f.do(t, http.MethodPut, "/session/mode", ModeRequest{Mode: "primitive"})

	rr := f.do(t, http.MethodPost, "/session/placement", PlaceRequest{Shape: "box", Picked: [3]float64{1, 0, 0}})
	testutil.AssertStatusOK(t, rr)
	draft := testutil.UnmarshalResponse[cmodels.Constraint](t, rr)
	assert.Equal(t, cmodels.KindPrimitive, draft.Kind)

	rr = f.do(t, http.MethodPost, "/session/placement/confirm", DraftRequest{DraftID: draft.ID.String()})
	testutil.AssertStatus(t, rr, http.StatusCreated)

	rr = f.do(t, http.MethodGet, "/session", nil)
	state := testutil.UnmarshalResponse[session.State](t, rr)
	assert.Equal(t, session.TransformIdle, state.TransformState)
}

func TestPlacementCancel(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPut, "/session/mode", ModeRequest{Mode: "primitive"})

	rr := f.do(t, http.MethodPost, "/session/placement", PlaceRequest{Shape: "sphere"})
	testutil.AssertStatusOK(t, rr)

	rr = f.do(t, http.MethodDelete, "/session/placement", DraftRequest{})
	testutil.AssertStatusOK(t, rr)
	assert.True(t, (*testutil.UnmarshalResponse[map[string]bool](t, rr))["cancelled"])

	rr = f.do(t, http.MethodPost, "/session/placement/confirm", DraftRequest{})
	testutil.AssertStatus(t, rr, http.StatusConflict)
}

func TestSelectionAndDrag(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPut, "/session/mode", ModeRequest{Mode: "primitive"})

	rr := f.do(t, http.MethodPost, "/session/placement", PlaceRequest{Shape: "box", Picked: [3]float64{1, 0, 0}})
	draft := testutil.UnmarshalResponse[cmodels.Constraint](t, rr)
	rr = f.do(t, http.MethodPost, "/session/placement/confirm", DraftRequest{DraftID: draft.ID.String()})
	testutil.AssertStatus(t, rr, http.StatusCreated)

	rr = f.do(t, http.MethodPost, "/session/selection", SelectRequest{ConstraintID: draft.ID.String()})
	testutil.AssertStatusOK(t, rr)
	assert.Equal(t, domain.GizmoTranslate, testutil.UnmarshalResponse[session.State](t, rr).Gizmo)

	rr = f.do(t, http.MethodPost, "/session/drag", DragRequest{Delta: [3]float64{1, 0, 0}})
	testutil.AssertStatusOK(t, rr)
	res := testutil.UnmarshalResponse[service.DragResult](t, rr)
	assert.True(t, res.Applied)
	assert.InDelta(t, 2, res.Transform.Translation.X, 1e-9)

	rr = f.do(t, http.MethodPost, "/session/drag", DragRequest{Axis: 5})
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = f.do(t, http.MethodDelete, "/session/selected", nil)
	testutil.AssertStatusOK(t, rr)

	rr = f.do(t, http.MethodPost, "/session/selection", SelectRequest{ConstraintID: draft.ID.String()})
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestHandleSelect_MissingID(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPut, "/session/mode", ModeRequest{Mode: "primitive"})

	rr := f.do(t, http.MethodPost, "/session/selection", SelectRequest{})
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestBrushFlow(t *testing.T) {
	f := newFixture(t)
	f.loadCloud(t, 10)
	f.do(t, http.MethodPut, "/session/mode", ModeRequest{Mode: "brush"})

	rr := f.do(t, http.MethodPost, "/brush/strokes", StrokeRequest{Points: [][3]float64{{2, 0, 0}}, Radius: 1.1})
	testutil.AssertStatusOK(t, rr)
	assert.Equal(t, 1, (*testutil.UnmarshalResponse[map[string]int](t, rr))["stroke_count"])

	rr = f.do(t, http.MethodPost, "/brush/commit", CommitRequest{Label: "empty"})
	testutil.AssertStatus(t, rr, http.StatusCreated)
	c := testutil.UnmarshalResponse[cmodels.Constraint](t, rr)
	assert.Equal(t, cmodels.KindPaintedRegion, c.Kind)
	assert.Equal(t, domain.LabelEmpty, c.Label)
	assert.Equal(t, []int{1, 2, 3}, c.Region.PointIndices)
}

func TestBrushValidation(t *testing.T) {
	f := newFixture(t)
	f.loadCloud(t, 10)
	f.do(t, http.MethodPut, "/session/mode", ModeRequest{Mode: "brush"})

	rr := f.do(t, http.MethodPost, "/brush/strokes", StrokeRequest{Radius: 1})
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = f.do(t, http.MethodPost, "/brush/commit", CommitRequest{})
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestRayFlow(t *testing.T) {
	f := newFixture(t)
	f.loadCloud(t, 10)
	f.do(t, http.MethodPut, "/session/mode", ModeRequest{Mode: "ray_scribble"})

	rr := f.do(t, http.MethodPost, "/rays", RaysRequest{Rays: []RayPayload{{
		Direction:   [3]float64{0, 0, -2},
		HitDistance: 5,
	}}})
	testutil.AssertStatusOK(t, rr)
	assert.Equal(t, 1, (*testutil.UnmarshalResponse[map[string]int](t, rr))["ray_count"])

	rr = f.do(t, http.MethodPost, "/rays/commit", CommitRequest{})
	testutil.AssertStatus(t, rr, http.StatusCreated)
	assert.Equal(t, cmodels.KindRayCarve, testutil.UnmarshalResponse[cmodels.Constraint](t, rr).Kind)

	rr = f.do(t, http.MethodPost, "/rays", RaysRequest{Rays: []RayPayload{{HitDistance: 1}}})
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestEscapeEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPut, "/session/mode", ModeRequest{Mode: "brush"})

	rr := f.do(t, http.MethodPost, "/session/escape", nil)
	testutil.AssertStatusOK(t, rr)
	assert.Equal(t, domain.ModeOrbit, testutil.UnmarshalResponse[session.EscapeResult](t, rr).Mode)
}
