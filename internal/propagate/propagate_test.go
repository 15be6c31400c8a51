package propagate

import (
	"context"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signa/internal/pointcloud/index"
	"signa/internal/pointcloud/models"
	projmodels "signa/internal/project/models"
	dErrors "signa/pkg/domain-errors"
)

// lineCloud builds n points spaced 1 apart along X with spacing pre-set.
func lineCloud(t *testing.T, n int) (*models.Cloud, *index.Index) {
	t.Helper()
	pts := make([]v3.Vec, n)
	for i := range pts {
		pts[i] = v3.Vec{X: float64(i)}
	}
	cloud, err := models.New(pts, nil, nil)
	require.NoError(t, err)
	ix := index.Build(pts)
	cloud.Spacing = ix.EstimateSpacing(pts)
	return cloud, ix
}

func TestGrow_FloodsConnectedComponent(t *testing.T) {
	cloud, ix := lineCloud(t, 20)

	got, err := Grow(context.Background(), []int{5}, cloud, ix, Params{
		Radius:    1.5,
		MaxRegion: 1000,
	})
	require.NoError(t, err)

	want := make([]int, 20)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got.Indices, "radius adjacency floods the whole line")
	assert.False(t, got.Capped)
	assert.Equal(t, 1.5, got.Radius)
}

func TestGrow_RegionContainsSeeds(t *testing.T) {
	cloud, ix := lineCloud(t, 10)

	// Tight radius: nothing within reach, region is exactly the seed set.
	got, err := Grow(context.Background(), []int{2, 7, 7}, cloud, ix, Params{
		Radius:    0.4,
		MaxRegion: 1000,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 7}, got.Indices, "seeds deduplicated and always included")
}

func TestGrow_CapTerminatesConnectedCloud(t *testing.T) {
	cloud, ix := lineCloud(t, 100)

	got, err := Grow(context.Background(), []int{50}, cloud, ix, Params{
		Radius:    5,
		MaxRegion: 10,
	})
	require.NoError(t, err)
	assert.True(t, got.Capped)
	assert.Len(t, got.Indices, 10)
	assert.Contains(t, got.Indices, 50)
}

func TestGrow_AutoRadiusFromSpacing(t *testing.T) {
	cloud, ix := lineCloud(t, 10)

	got, err := Grow(context.Background(), []int{0}, cloud, ix, Params{
		MaxRegion: 1000,
	})
	require.NoError(t, err)
	assert.InDelta(t, autoRadiusFactor*cloud.Spacing, got.Radius, 1e-9)
	assert.Len(t, got.Indices, 10, "auto radius bridges unit spacing")
}

func TestGrow_MutualKNN(t *testing.T) {
	cloud, ix := lineCloud(t, 10)

	got, err := Grow(context.Background(), []int{0}, cloud, ix, Params{
		MaxRegion: 1000,
		K:         2,
		Adjacency: projmodels.AdjacencyMutualKNN,
	})
	require.NoError(t, err)
	assert.Len(t, got.Indices, 10, "mutual 2-NN chains along the line")
}

func TestGrow_Rejections(t *testing.T) {
	cloud, ix := lineCloud(t, 5)
	params := Params{Radius: 1.5, MaxRegion: 100}

	tests := []struct {
		name  string
		seeds []int
		p     Params
	}{
		{name: "empty seed set", seeds: nil, p: params},
		{name: "seed out of range", seeds: []int{5}, p: params},
		{name: "negative seed", seeds: []int{-1}, p: params},
		{name: "zero max region", seeds: []int{0}, p: Params{Radius: 1.5}},
		{name: "unknown adjacency", seeds: []int{0}, p: Params{Radius: 1.5, MaxRegion: 100, Adjacency: "voronoi"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Grow(context.Background(), tc.seeds, cloud, ix, tc.p)
			require.Error(t, err)
			assert.Equal(t, dErrors.CodeInvalidInput, dErrors.CodeOf(err))
		})
	}
}

func TestGrow_Cancellation(t *testing.T) {
	cloud, ix := lineCloud(t, 5000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Grow(ctx, []int{0}, cloud, ix, Params{Radius: 3, MaxRegion: 5000})
	assert.ErrorIs(t, err, context.Canceled)
}
