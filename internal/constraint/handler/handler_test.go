package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signa/internal/constraint/models"
	"signa/internal/constraint/service"
	"signa/internal/pointcloud/index"
	pcmodels "signa/internal/pointcloud/models"
	"signa/internal/session"
	"signa/pkg/domain"
	"signa/pkg/testutil"
)

var now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type fixture struct {
	router    chi.Router
	registry  *session.Registry
	projectID domain.ProjectID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	registry := session.NewRegistry()
	svc, err := service.New(registry)
	require.NoError(t, err)

	r := chi.NewRouter()
	New(svc, slog.Default()).Register(r)
	return &fixture{router: r, registry: registry, projectID: domain.NewProjectID()}
}

func (f *fixture) session() *session.Session {
	return f.registry.Get(f.projectID)
}

func (f *fixture) loadCloud(t *testing.T, n int) {
	t.Helper()
	pts := make([]v3.Vec, n)
	for i := range pts {
		pts[i] = v3.Vec{X: float64(i)}
	}
	cloud, err := pcmodels.New(pts, nil, nil)
	require.NoError(t, err)
	f.session().SwapCloud(cloud, index.Build(pts))
}

// seedConstraint commits one box primitive through the placement flow.
func (f *fixture) seedConstraint(t *testing.T) models.Constraint {
	t.Helper()
	sess := f.session()
	sess.SetMode(domain.ModePrimitive)
	draft, err := sess.Place(domain.PrimitiveBox, domain.LabelSolid, v3.Vec{X: 1}, now)
	require.NoError(t, err)
	c, err := sess.ConfirmPlacement(context.Background(), draft.ID)
	require.NoError(t, err)
	return c
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, path, body)
	req = testutil.WithProjectID(req, f.projectID.String())
	return testutil.DoRequest(f.router, req)
}

func TestHandleList(t *testing.T) {
	f := newFixture(t)
	c := f.seedConstraint(t)

	rr := f.do(t, http.MethodGet, "/constraints", nil)
	testutil.AssertStatusOK(t, rr)

	got := testutil.UnmarshalResponse[struct {
		Constraints []models.Constraint `json:"constraints"`
	}](t, rr)
	require.Len(t, got.Constraints, 1)
	assert.Equal(t, c.ID, got.Constraints[0].ID)
}

func TestHandleGet(t *testing.T) {
	f := newFixture(t)
	c := f.seedConstraint(t)

	rr := f.do(t, http.MethodGet, "/constraints/"+c.ID.String(), nil)
	testutil.AssertStatusOK(t, rr)
	assert.Equal(t, c.ID, testutil.UnmarshalResponse[models.Constraint](t, rr).ID)

	rr = f.do(t, http.MethodGet, "/constraints/"+domain.NewConstraintID().String(), nil)
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	rr = f.do(t, http.MethodGet, "/constraints/not-a-uuid", nil)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestHandleDelete_AbsentIsNoOp(t *testing.T) {
	f := newFixture(t)
	c := f.seedConstraint(t)

	rr := f.do(t, http.MethodDelete, "/constraints/"+c.ID.String(), nil)
	testutil.AssertStatusOK(t, rr)
	assert.True(t, (*testutil.UnmarshalResponse[map[string]bool](t, rr))["deleted"])

	rr = f.do(t, http.MethodDelete, "/constraints/"+c.ID.String(), nil)
	testutil.AssertStatusOK(t, rr)
	assert.False(t, (*testutil.UnmarshalResponse[map[string]bool](t, rr))["deleted"])
}

func TestHandleUpdateTransform(t *testing.T) {
	f := newFixture(t)
	c := f.seedConstraint(t)

	rr := f.do(t, http.MethodPatch, "/constraints/"+c.ID.String()+"/transform", TransformRequest{
		Transform: models.Transform{Translation: v3.Vec{X: 5}, Size: v3.Vec{X: 2, Y: 2, Z: 2}},
	})
	testutil.AssertStatusOK(t, rr)
	assert.True(t, (*testutil.UnmarshalResponse[map[string]bool](t, rr))["updated"])

	got, err := f.session().GetConstraint(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Primitive.Transform.Translation.X)

	// A degenerate size is rejected, leaving the stored transform alone.
	rr = f.do(t, http.MethodPatch, "/constraints/"+c.ID.String()+"/transform", TransformRequest{
		Transform: models.Transform{Size: v3.Vec{}},
	})
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestHandleSetLabelAndWeight(t *testing.T) {
	f := newFixture(t)
	c := f.seedConstraint(t)

	rr := f.do(t, http.MethodPatch, "/constraints/"+c.ID.String()+"/label", LabelRequest{Label: "empty"})
	testutil.AssertStatusOK(t, rr)

	rr = f.do(t, http.MethodPatch, "/constraints/"+c.ID.String()+"/weight", WeightRequest{Weight: 3})
	testutil.AssertStatusOK(t, rr)

	got, err := f.session().GetConstraint(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LabelEmpty, got.Label)
	assert.Equal(t, 3.0, got.Weight)

	rr = f.do(t, http.MethodPatch, "/constraints/"+c.ID.String()+"/weight", WeightRequest{Weight: 11})
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestHandleCommitSlice(t *testing.T) {
	f := newFixture(t)
	f.loadCloud(t, 10)
	f.session().SetMode(domain.ModeSlice)

	rr := f.do(t, http.MethodPost, "/slices", SliceRequest{
		Plane:    "yz",
		Position: 3,
		Indices:  []int{2, 3, 4},
		Label:    "solid",
	})
	testutil.AssertStatus(t, rr, http.StatusCreated)
	c := testutil.UnmarshalResponse[models.Constraint](t, rr)
	assert.Equal(t, models.KindSliceRegion, c.Kind)
	assert.Equal(t, []int{2, 3, 4}, c.Region.PointIndices)

	rr = f.do(t, http.MethodPost, "/slices", SliceRequest{Plane: "yz", Position: 3})
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestHandleSelectSlab(t *testing.T) {
	f := newFixture(t)
	f.loadCloud(t, 10)

	rr := f.do(t, http.MethodGet, "/slices/slab?plane=yz&position=3&thickness=2.5", nil)
	testutil.AssertStatusOK(t, rr)
	got := testutil.UnmarshalResponse[struct {
		Indices []int `json:"indices"`
		Count   int   `json:"count"`
	}](t, rr)
	assert.Equal(t, []int{2, 3, 4}, got.Indices)
	assert.Equal(t, 3, got.Count)

	rr = f.do(t, http.MethodGet, "/slices/slab?plane=yz&thickness=2.5", nil)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = f.do(t, http.MethodGet, fmt.Sprintf("/slices/slab?plane=%s&position=3&thickness=2.5", "diagonal"), nil)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestHandleImport(t *testing.T) {
	f := newFixture(t)
	f.loadCloud(t, 10)
	f.session().SetMode(domain.ModeImport)

	rr := f.do(t, http.MethodPost, "/imports", ImportRequest{
		SourceTag:   "model-v3",
		Indices:     []int{1, 2},
		Confidences: []float64{0.9, 0.8},
		Label:       "solid",
	})
	testutil.AssertStatus(t, rr, http.StatusCreated)
	c := testutil.UnmarshalResponse[models.Constraint](t, rr)
	assert.Equal(t, models.KindMLImport, c.Kind)
	assert.Equal(t, "model-v3", c.Region.SourceTag)

	rr = f.do(t, http.MethodPost, "/imports", ImportRequest{
		Indices:     []int{1, 2},
		Confidences: []float64{0.9},
	})
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestHandleImport_WrongMode(t *testing.T) {
	f := newFixture(t)
	f.loadCloud(t, 10)

	rr := f.do(t, http.MethodPost, "/imports", ImportRequest{Indices: []int{1}})
	testutil.AssertStatus(t, rr, http.StatusConflict)
}
