package pocket

import (
	"context"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signa/internal/pointcloud/models"
	dErrors "signa/pkg/domain-errors"
)

// boxShell samples the faces of the cube [0, 10]^3 at unit pitch. When open
// is true the top face (z = 10) is omitted, venting the interior.
func boxShell(t *testing.T, open bool) *models.Cloud {
	t.Helper()
	var pts []v3.Vec
	for i := 0; i <= 10; i++ {
		for j := 0; j <= 10; j++ {
			a, b := float64(i), float64(j)
			pts = append(pts,
				v3.Vec{X: a, Y: b, Z: 0},
				v3.Vec{X: a, Y: 0, Z: b},
				v3.Vec{X: 0, Y: a, Z: b},
				v3.Vec{X: a, Y: 10, Z: b},
				v3.Vec{X: 10, Y: a, Z: b},
			)
			if !open {
				pts = append(pts, v3.Vec{X: a, Y: b, Z: 10})
			}
		}
	}
	cloud, err := models.New(pts, nil, nil)
	require.NoError(t, err)
	return cloud
}

func testParams() Params {
	return Params{VoxelTarget: 10, MaxVoxelsPerAxis: 64, Dilation: 0, MinVoxels: 2}
}

func TestAnalyze_SealedBoxHasOnePocket(t *testing.T) {
	cloud := boxShell(t, false)

	pockets, err := Analyze(context.Background(), cloud, testParams())
	require.NoError(t, err)
	require.Len(t, pockets, 1)

	p := pockets[0]
	// Unit voxels: the shell occupies one layer, leaving a 9x9x9 cavity.
	assert.Equal(t, 9*9*9, p.VoxelCount)
	assert.Equal(t, float64(9*9*9), p.Volume)
	assert.Len(t, p.VoxelCenters, p.VoxelCount)
	assert.InDelta(t, 5.5, p.Centroid.X, 1e-9)
	assert.InDelta(t, 5.5, p.Centroid.Y, 1e-9)
	assert.InDelta(t, 5.5, p.Centroid.Z, 1e-9)
	assert.NotEmpty(t, p.ID)

	bounds := p.Bounds()
	assert.True(t, bounds.Min.X >= 0 && bounds.Max.X <= 10, "pocket stays inside the shell")
}

func TestAnalyze_OpenBoxHasNoPockets(t *testing.T) {
	cloud := boxShell(t, true)

	pockets, err := Analyze(context.Background(), cloud, testParams())
	require.NoError(t, err)
	assert.Empty(t, pockets, "the exterior fill drains a vented cavity")
}

func TestAnalyze_DilationClosesThinGaps(t *testing.T) {
	// Sparse top face: rows every 2 units in Y leave one-voxel slits that a
	// single dilation pass closes.
	cloud := boxShell(t, true)
	pts := append([]v3.Vec(nil), cloud.Points...)
	for i := 0; i <= 10; i++ {
		for j := 0; j <= 10; j += 2 {
			pts = append(pts, v3.Vec{X: float64(i), Y: float64(j), Z: 10})
		}
	}
	cloud, err := models.New(pts, nil, nil)
	require.NoError(t, err)

	p := testParams()
	pockets, err := Analyze(context.Background(), cloud, p)
	require.NoError(t, err)
	assert.Empty(t, pockets, "slits leak without dilation")

	p.Dilation = 1
	pockets, err = Analyze(context.Background(), cloud, p)
	require.NoError(t, err)
	require.Len(t, pockets, 1)
	// Dilation also thickens the shell inward, shrinking the cavity.
	assert.Less(t, pockets[0].VoxelCount, 9*9*9)
	assert.GreaterOrEqual(t, pockets[0].VoxelCount, 7*7*7)
}

func TestAnalyze_MinVoxelsFilters(t *testing.T) {
	cloud := boxShell(t, false)
	p := testParams()
	p.MinVoxels = 9*9*9 + 1

	pockets, err := Analyze(context.Background(), cloud, p)
	require.NoError(t, err)
	assert.Empty(t, pockets)
}

func TestAnalyze_Deterministic(t *testing.T) {
	cloud := boxShell(t, false)

	a, err := Analyze(context.Background(), cloud, testParams())
	require.NoError(t, err)
	b, err := Analyze(context.Background(), cloud, testParams())
	require.NoError(t, err)

	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].VoxelCount, b[i].VoxelCount)
		assert.Equal(t, a[i].Centroid, b[i].Centroid)
	}
}

func TestAnalyze_Rejections(t *testing.T) {
	cloud := boxShell(t, false)

	_, err := Analyze(context.Background(), cloud, Params{VoxelTarget: 0, MaxVoxelsPerAxis: 64})
	assert.Equal(t, dErrors.CodeInvalidInput, dErrors.CodeOf(err))

	flat, err := models.New([]v3.Vec{{X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}}, nil, nil)
	require.NoError(t, err)
	_, err = Analyze(context.Background(), flat, testParams())
	assert.Equal(t, dErrors.CodeInvalidInput, dErrors.CodeOf(err), "degenerate bounds")
}
