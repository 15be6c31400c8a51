package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }
func strp(v string) *string     { return &v }
func boolp(v bool) *bool        { return &v }

func TestClampSamplesPerPrimitive(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{5, 10},
		{10, 10},
		{500, 500},
		{10000, 10000},
		{99999, 10000},
		{-1, 10},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ClampSamplesPerPrimitive(tc.in))
	}
}

func TestDefaultConfig_SurvivesNormalize(t *testing.T) {
	cfg := DefaultConfig()
	normalized := cfg
	normalized.Normalize()
	assert.Equal(t, cfg, normalized)
}

func TestNormalize_RepairsZeroValues(t *testing.T) {
	var cfg Config
	cfg.Normalize()

	assert.Equal(t, SamplesPerPrimitiveMin, cfg.SamplesPerPrimitive)
	assert.Equal(t, DefaultConfig().MaxTotalSamples, cfg.MaxTotalSamples)
	assert.Equal(t, AdjacencyRadius, cfg.PropagateAdjacency)
	assert.Equal(t, DefaultConfig().MinExtent, cfg.MinExtent)
}

func TestNormalize_CapsTotalSamples(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTotalSamples = MaxTotalSamplesCap + 1
	cfg.Normalize()
	assert.Equal(t, MaxTotalSamplesCap, cfg.MaxTotalSamples)
}

func TestPatchApply_PartialUpdate(t *testing.T) {
	base := DefaultConfig()

	got, err := Patch{
		SamplesPerPrimitive: intp(250),
		EscapeCollapse:      boolp(true),
		PropagateAdjacency:  strp("mutual-knn"),
	}.Apply(base)
	require.NoError(t, err)

	assert.Equal(t, 250, got.SamplesPerPrimitive)
	assert.True(t, got.EscapeCollapse)
	assert.Equal(t, AdjacencyMutualKNN, got.PropagateAdjacency)
	// Untouched fields keep their values.
	assert.Equal(t, base.NearBand, got.NearBand)
	assert.Equal(t, base.PropagateK, got.PropagateK)
}

func TestPatchApply_ClampsInsteadOfRejecting(t *testing.T) {
	got, err := Patch{SamplesPerPrimitive: intp(99999)}.Apply(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, SamplesPerPrimitiveMax, got.SamplesPerPrimitive)

	got, err = Patch{SamplesPerPrimitive: intp(5)}.Apply(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, SamplesPerPrimitiveMin, got.SamplesPerPrimitive)
}

func TestPatchApply_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
	}{
		{name: "invalid adjacency", patch: Patch{PropagateAdjacency: strp("voronoi")}},
		{name: "shell ratio above one", patch: Patch{ShellRatio: floatp(1.5)}},
		{name: "negative near band", patch: Patch{NearBand: floatp(-0.1)}},
		{name: "zero ray step", patch: Patch{RayStep: floatp(0)}},
		{name: "negative propagate radius", patch: Patch{PropagateRadius: floatp(-1)}},
		{name: "zero propagate k", patch: Patch{PropagateK: intp(0)}},
		{name: "zero max region", patch: Patch{PropagateMaxRegion: intp(0)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.patch.Apply(DefaultConfig())
			require.Error(t, err)
		})
	}
}

func TestPatchApply_FailureLeavesBaseUntouched(t *testing.T) {
	base := DefaultConfig()
	_, err := Patch{NearBand: floatp(-1)}.Apply(base)
	require.Error(t, err)
	assert.Equal(t, DefaultConfig(), base)
}
