package sdfeval

import (
	"math"
	"testing"
	"time"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signa/internal/constraint/models"
	"signa/pkg/domain"
)

var now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestSignedDistance_BoxSigns(t *testing.T) {
	tr := models.Transform{
		Translation: v3.Vec{X: 1, Y: 2, Z: 3},
		Size:        v3.Vec{X: 0.5, Y: 0.5, Z: 0.5},
	}

	center, err := SignedDistance(domain.PrimitiveBox, tr, v3.Vec{X: 1, Y: 2, Z: 3})
	require.NoError(t, err)
	assert.Negative(t, center, "box center is inside")

	far, err := SignedDistance(domain.PrimitiveBox, tr, v3.Vec{X: 10, Y: 10, Z: 10})
	require.NoError(t, err)
	assert.Positive(t, far, "far point is outside")

	face, err := SignedDistance(domain.PrimitiveBox, tr, v3.Vec{X: 1.5, Y: 2, Z: 3})
	require.NoError(t, err)
	assert.InDelta(t, 0, face, 1e-9, "face center sits on the surface")
}

func TestSignedDistance_Sphere(t *testing.T) {
	tr := models.Transform{Size: v3.Vec{X: 2}} // radius 2 at origin

	d, err := SignedDistance(domain.PrimitiveSphere, tr, v3.Vec{X: 3})
	require.NoError(t, err)
	assert.InDelta(t, 1, d, 1e-9)

	d, err = SignedDistance(domain.PrimitiveSphere, tr, v3.Vec{})
	require.NoError(t, err)
	assert.InDelta(t, -2, d, 1e-9)
}

func TestSignedDistance_CylinderRotated(t *testing.T) {
	// Unit-radius cylinder of height 4, rotated 90 degrees about X so its
	// axis lies along world Y.
	tr := models.Transform{
		Rotation: v3.Vec{X: math.Pi / 2},
		Size:     v3.Vec{X: 1, Y: 4},
	}

	onAxis, err := SignedDistance(domain.PrimitiveCylinder, tr, v3.Vec{Y: 1})
	require.NoError(t, err)
	assert.Negative(t, onAxis, "point on the rotated axis is inside")

	beyondCap, err := SignedDistance(domain.PrimitiveCylinder, tr, v3.Vec{Y: 3})
	require.NoError(t, err)
	assert.Positive(t, beyondCap, "point beyond the cap is outside")
}

func TestSignedDistance_Halfspace(t *testing.T) {
	// Plane through the origin with normal +Z: below is solid.
	tr := models.Transform{}

	below, err := SignedDistance(domain.PrimitiveHalfspace, tr, v3.Vec{Z: -1})
	require.NoError(t, err)
	assert.Negative(t, below)

	above, err := SignedDistance(domain.PrimitiveHalfspace, tr, v3.Vec{Z: 1})
	require.NoError(t, err)
	assert.Positive(t, above)
}

func TestPlaneNormal_Rotation(t *testing.T) {
	// Unrotated: +Z.
	n := PlaneNormal(models.Transform{})
	assert.InDelta(t, 0, n.X, 1e-9)
	assert.InDelta(t, 0, n.Y, 1e-9)
	assert.InDelta(t, 1, n.Z, 1e-9)

	// 90 degrees about X swings the normal to -Y.
	n = PlaneNormal(models.Transform{Rotation: v3.Vec{X: math.Pi / 2}})
	assert.InDelta(t, 0, n.X, 1e-9)
	assert.InDelta(t, -1, n.Y, 1e-9)
	assert.InDelta(t, 0, n.Z, 1e-9)
}

func TestGradient_PointsOutward(t *testing.T) {
	s, err := Build(domain.PrimitiveSphere, models.Transform{Size: v3.Vec{X: 1}})
	require.NoError(t, err)

	g := Gradient(s, v3.Vec{X: 2})
	assert.Positive(t, g.X, "gradient points away from the sphere")
	assert.InDelta(t, 0, g.Y, 1e-3)
	assert.InDelta(t, 0, g.Z, 1e-3)
}

func TestEvaluator_CacheInvalidationOnRevision(t *testing.T) {
	c, err := models.NewPrimitive(domain.PrimitiveBox, domain.LabelSolid,
		models.Transform{Size: v3.Vec{X: 1, Y: 1, Z: 1}}, 1, now)
	require.NoError(t, err)

	eval := NewEvaluator()
	d, err := eval.Distance(&c, v3.Vec{})
	require.NoError(t, err)
	assert.Negative(t, d)

	// Move the box away and bump the revision, as the store does.
	c.Primitive.Transform.Translation = v3.Vec{X: 100}
	c.Revision++
	d, err = eval.Distance(&c, v3.Vec{})
	require.NoError(t, err)
	assert.Positive(t, d, "the cache must rebuild after a transform write")
}

func TestBuild_UnknownShape(t *testing.T) {
	_, err := Build(domain.PrimitiveKind("torus"), models.Transform{Size: v3.Vec{X: 1, Y: 1, Z: 1}})
	require.Error(t, err)
}
