package models

import (
	"testing"
	"time"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signa/pkg/domain"
	dErrors "signa/pkg/domain-errors"
)

var now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func boxTransform(hx, hy, hz float64) Transform {
	return Transform{Size: v3.Vec{X: hx, Y: hy, Z: hz}}
}

func TestNewPrimitive_SizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		shape   domain.PrimitiveKind
		size    v3.Vec
		wantErr bool
	}{
		{"valid box", domain.PrimitiveBox, v3.Vec{X: 1, Y: 1, Z: 1}, false},
		{"zero box extent", domain.PrimitiveBox, v3.Vec{X: 1, Y: 0, Z: 1}, true},
		{"negative box extent", domain.PrimitiveBox, v3.Vec{X: 1, Y: 1, Z: -2}, true},
		{"near-zero box extent", domain.PrimitiveBox, v3.Vec{X: 1, Y: 1, Z: 1e-9}, true},
		{"valid sphere", domain.PrimitiveSphere, v3.Vec{X: 0.5}, false},
		{"zero sphere radius", domain.PrimitiveSphere, v3.Vec{}, true},
		{"valid cylinder", domain.PrimitiveCylinder, v3.Vec{X: 0.5, Y: 2}, false},
		{"zero cylinder height", domain.PrimitiveCylinder, v3.Vec{X: 0.5}, true},
		{"halfspace ignores size", domain.PrimitiveHalfspace, v3.Vec{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPrimitive(tt.shape, domain.LabelSolid, Transform{Size: tt.size}, 1, now)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNewPrimitive_Defaults(t *testing.T) {
	c, err := NewPrimitive(domain.PrimitiveBox, domain.LabelSolid, boxTransform(1, 1, 1), 0, now)
	require.NoError(t, err)

	assert.Equal(t, KindPrimitive, c.Kind)
	assert.False(t, c.ID.IsNil())
	assert.Equal(t, float64(1), c.Weight, "zero weight takes the default")
	assert.Equal(t, now, c.CreatedAt)
	require.NotNil(t, c.Primitive)
	assert.Nil(t, c.Region)
}

func TestNewPrimitive_WeightRange(t *testing.T) {
	_, err := NewPrimitive(domain.PrimitiveBox, domain.LabelSolid, boxTransform(1, 1, 1), 11, now)
	require.Error(t, err)

	_, err = NewPrimitive(domain.PrimitiveBox, domain.LabelSolid, boxTransform(1, 1, 1), -1, now)
	require.Error(t, err)

	c, err := NewPrimitive(domain.PrimitiveBox, domain.LabelSolid, boxTransform(1, 1, 1), 10, now)
	require.NoError(t, err)
	assert.Equal(t, float64(10), c.Weight)
}

func TestNewPaintedRegion_IndexValidation(t *testing.T) {
	t.Run("rejects empty indices", func(t *testing.T) {
		_, err := NewPaintedRegion(domain.LabelEmpty, nil, 100, 1, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects out-of-range indices", func(t *testing.T) {
		_, err := NewPaintedRegion(domain.LabelEmpty, []int{0, 100}, 100, 1, now)
		require.Error(t, err)

		_, err = NewPaintedRegion(domain.LabelEmpty, []int{-1}, 100, 1, now)
		require.Error(t, err)
	})

	t.Run("accepts valid indices", func(t *testing.T) {
		c, err := NewPaintedRegion(domain.LabelEmpty, []int{0, 50, 99}, 100, 1, now)
		require.NoError(t, err)
		assert.Equal(t, KindPaintedRegion, c.Kind)
		assert.True(t, c.IsRegion())
		assert.Equal(t, "brush", c.Region.SourceTag)
	})
}

func TestNewMLImport_Confidences(t *testing.T) {
	indices := []int{1, 2, 3}

	t.Run("length mismatch rejected", func(t *testing.T) {
		_, err := NewMLImport(domain.LabelSolid, "model-a", indices, []float64{0.5}, 10, 1, now)
		require.Error(t, err)
	})

	t.Run("out-of-range confidence rejected", func(t *testing.T) {
		_, err := NewMLImport(domain.LabelSolid, "model-a", indices, []float64{0.5, 1.5, 0.2}, 10, 1, now)
		require.Error(t, err)
	})

	t.Run("valid import", func(t *testing.T) {
		c, err := NewMLImport(domain.LabelSolid, "model-a", indices, []float64{0.5, 1, 0.2}, 10, 1, now)
		require.NoError(t, err)
		assert.Equal(t, KindMLImport, c.Kind)
		assert.Equal(t, "model-a", c.Region.SourceTag)
	})

	t.Run("nil confidences allowed", func(t *testing.T) {
		_, err := NewMLImport(domain.LabelSolid, "", indices, nil, 10, 1, now)
		require.NoError(t, err)
	})
}

func TestNewRayCarve_Validation(t *testing.T) {
	valid := Ray{Origin: v3.Vec{}, Direction: v3.Vec{Z: 1}, HitDistance: 2}

	t.Run("rejects empty ray set", func(t *testing.T) {
		_, err := NewRayCarve(domain.LabelEmpty, nil, 1, now)
		require.Error(t, err)
	})

	t.Run("rejects non-unit direction", func(t *testing.T) {
		r := valid
		r.Direction = v3.Vec{Z: 2}
		_, err := NewRayCarve(domain.LabelEmpty, []Ray{r}, 1, now)
		require.Error(t, err)
	})

	t.Run("rejects non-positive hit", func(t *testing.T) {
		r := valid
		r.HitDistance = 0
		_, err := NewRayCarve(domain.LabelEmpty, []Ray{r}, 1, now)
		require.Error(t, err)
	})

	t.Run("accepts valid rays", func(t *testing.T) {
		c, err := NewRayCarve(domain.LabelEmpty, []Ray{valid}, 1, now)
		require.NoError(t, err)
		assert.Equal(t, KindRayCarve, c.Kind)
		assert.Len(t, c.Rays, 1)
	})
}

func TestClone_DoesNotAliasSlices(t *testing.T) {
	c, err := NewPaintedRegion(domain.LabelSolid, []int{1, 2, 3}, 10, 1, now)
	require.NoError(t, err)

	clone := c.Clone()
	clone.Region.PointIndices[0] = 99

	assert.Equal(t, 1, c.Region.PointIndices[0], "clone mutation must not reach the original")
}
