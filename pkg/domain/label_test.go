package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "signa/pkg/domain-errors"
)

func TestParseLabel(t *testing.T) {
	t.Run("accepts supported labels", func(t *testing.T) {
		for _, s := range []string{"solid", "empty", "surface"} {
			l, err := ParseLabel(s)
			require.NoError(t, err)
			assert.True(t, l.IsValid())
		}
	})

	t.Run("rejects empty and unknown", func(t *testing.T) {
		for _, s := range []string{"", "SOLID", "air", "inside"} {
			_, err := ParseLabel(s)
			require.Error(t, err, "input %q", s)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		}
	})
}

func TestLabelNext_WrapsAround(t *testing.T) {
	assert.Equal(t, LabelEmpty, LabelSolid.Next())
	assert.Equal(t, LabelSurface, LabelEmpty.Next())
	assert.Equal(t, LabelSolid, LabelSurface.Next())

	// Three presses return to the start regardless of origin
	for _, l := range []Label{LabelSolid, LabelEmpty, LabelSurface} {
		assert.Equal(t, l, l.Next().Next().Next())
	}
}

func TestLabelOpposite(t *testing.T) {
	assert.Equal(t, LabelEmpty, LabelSolid.Opposite())
	assert.Equal(t, LabelSolid, LabelEmpty.Opposite())
	assert.Equal(t, LabelSurface, LabelSurface.Opposite())
}

func TestLabelPhiSign(t *testing.T) {
	assert.Negative(t, LabelSolid.Phi())
	assert.Positive(t, LabelEmpty.Phi())
	assert.Zero(t, LabelSurface.Phi())
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"orbit", "primitive", "slice", "brush", "seed", "import", "ray_scribble", "click_pocket"} {
		m, err := ParseMode(s)
		require.NoError(t, err)
		assert.True(t, m.IsValid())
	}

	_, err := ParseMode("fly")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestParseGizmoMode(t *testing.T) {
	for _, s := range []string{"translate", "rotate", "scale"} {
		g, err := ParseGizmoMode(s)
		require.NoError(t, err)
		assert.True(t, g.IsValid())
	}

	_, err := ParseGizmoMode("shear")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestSlicePlaneNormalAxis(t *testing.T) {
	assert.Equal(t, 2, PlaneXY.NormalAxis())
	assert.Equal(t, 1, PlaneXZ.NormalAxis())
	assert.Equal(t, 0, PlaneYZ.NormalAxis())
}
