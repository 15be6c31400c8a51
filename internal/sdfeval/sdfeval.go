// Package sdfeval evaluates signed distance for primitive constraints.
// Convention: positive outside, negative inside, zero on the boundary.
//
// The heavy lifting is delegated to the sdfx CAD kernel: primitives are
// built in their local frame and placed with a translate ∘ rotZ ∘ rotY ∘
// rotX transform, so evaluation happens in the primitive's local frame.
// Degenerate sizes are rejected at constraint construction and never reach
// this package.
package sdfeval

import (
	"math"
	"sync"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"signa/internal/constraint/models"
	"signa/pkg/domain"
	dErrors "signa/pkg/domain-errors"
)

// halfspaceSlab bounds the halfspace's reported bounding box. Sampling code
// clips to the cloud bounds anyway; the slab only has to be "large enough".
const halfspaceSlab = 1e6

// halfspace is the one primitive sdfx does not ship: the signed plane
// distance dot(p - origin, normal) with the normal fixed to local +Z.
type halfspace struct{}

func (halfspace) Evaluate(p v3.Vec) float64 { return p.Z }

func (halfspace) BoundingBox() sdf.Box3 {
	return sdf.Box3{
		Min: v3.Vec{X: -halfspaceSlab, Y: -halfspaceSlab, Z: -halfspaceSlab},
		Max: v3.Vec{X: halfspaceSlab, Y: halfspaceSlab, Z: 0},
	}
}

// placement builds the local-to-world matrix for a transform.
func placement(t models.Transform) sdf.M44 {
	return sdf.Translate3d(t.Translation).
		Mul(sdf.RotateZ(t.Rotation.Z)).
		Mul(sdf.RotateY(t.Rotation.Y)).
		Mul(sdf.RotateX(t.Rotation.X))
}

// Build constructs the world-space SDF for a primitive. Size interpretation
// follows the constraint model: box half extents, sphere radius in X,
// cylinder radius in X and full height in Y.
func Build(shape domain.PrimitiveKind, t models.Transform) (sdf.SDF3, error) {
	if err := models.ValidateSize(shape, t); err != nil {
		return nil, err
	}

	var s sdf.SDF3
	var err error
	switch shape {
	case domain.PrimitiveBox:
		s, err = sdf.Box3D(t.Size.MulScalar(2), 0)
	case domain.PrimitiveSphere:
		s, err = sdf.Sphere3D(t.Size.X)
	case domain.PrimitiveCylinder:
		s, err = sdf.Cylinder3D(t.Size.Y, t.Size.X, 0)
	case domain.PrimitiveHalfspace:
		s = halfspace{}
	default:
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid primitive kind %q", shape)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "primitive construction failed")
	}
	return sdf.Transform3D(s, placement(t)), nil
}

// SignedDistance evaluates one point against one primitive. Convenience
// wrapper for callers without a cached SDF.
func SignedDistance(shape domain.PrimitiveKind, t models.Transform, p v3.Vec) (float64, error) {
	s, err := Build(shape, t)
	if err != nil {
		return 0, err
	}
	return s.Evaluate(p), nil
}

// PlaneNormal returns the world-space normal of a halfspace transform (local
// +Z through the rotation).
func PlaneNormal(t models.Transform) v3.Vec {
	m := sdf.RotateZ(t.Rotation.Z).
		Mul(sdf.RotateY(t.Rotation.Y)).
		Mul(sdf.RotateX(t.Rotation.X))
	return m.MulPosition(v3.Vec{Z: 1})
}

// Gradient estimates the SDF gradient at p by central differences, h scaled
// to the local magnitude. Used to project shell samples onto the boundary.
func Gradient(s sdf.SDF3, p v3.Vec) v3.Vec {
	h := 1e-4 * math.Max(1, p.Length())
	g := v3.Vec{
		X: s.Evaluate(v3.Vec{X: p.X + h, Y: p.Y, Z: p.Z}) - s.Evaluate(v3.Vec{X: p.X - h, Y: p.Y, Z: p.Z}),
		Y: s.Evaluate(v3.Vec{X: p.X, Y: p.Y + h, Z: p.Z}) - s.Evaluate(v3.Vec{X: p.X, Y: p.Y - h, Z: p.Z}),
		Z: s.Evaluate(v3.Vec{X: p.X, Y: p.Y, Z: p.Z + h}) - s.Evaluate(v3.Vec{X: p.X, Y: p.Y, Z: p.Z - h}),
	}
	if g.Length() == 0 {
		return v3.Vec{Z: 1}
	}
	return g.Normalize()
}

type cacheKey struct {
	id       domain.ConstraintID
	revision int64
}

// Evaluator caches built SDFs keyed by constraint id and revision, so drag
// streams rebuild only when the transform actually changed.
type Evaluator struct {
	mu    sync.Mutex
	cache map[cacheKey]sdf.SDF3
}

// NewEvaluator creates an empty evaluator cache.
func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[cacheKey]sdf.SDF3)}
}

// For returns the world-space SDF for a primitive constraint, building and
// caching it on first use per revision.
func (e *Evaluator) For(c *models.Constraint) (sdf.SDF3, error) {
	if c.Kind != models.KindPrimitive || c.Primitive == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evaluator requires a primitive constraint")
	}
	key := cacheKey{id: c.ID, revision: c.Revision}

	e.mu.Lock()
	s, ok := e.cache[key]
	e.mu.Unlock()
	if ok {
		return s, nil
	}

	s, err := Build(c.Primitive.Shape, c.Primitive.Transform)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	// Stale revisions accumulate only for the duration of one generation
	// pass; reset drops them wholesale.
	e.cache[key] = s
	e.mu.Unlock()
	return s, nil
}

// Reset drops all cached SDFs.
func (e *Evaluator) Reset() {
	e.mu.Lock()
	e.cache = make(map[cacheKey]sdf.SDF3)
	e.mu.Unlock()
}

// Distance evaluates the signed distance of p to a primitive constraint via
// the cache.
func (e *Evaluator) Distance(c *models.Constraint, p v3.Vec) (float64, error) {
	s, err := e.For(c)
	if err != nil {
		return 0, err
	}
	return s.Evaluate(p), nil
}
