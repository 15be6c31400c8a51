// Package models defines the constraint data model: the tagged variant of
// labeling rules a project accumulates and the transform applied to
// primitive constraints.
//
// Invariants:
//   - A constraint's id is unique within its project for the project's
//     lifetime.
//   - Region point indices reference valid cloud indices < N.
//   - Primitive size components relevant to the kind are strictly positive.
//   - Weight is within (0, 10]; zero at construction means unset and takes
//     the default of 1.
//
// Constraints are immutable after creation except for the primitive
// transform, label, and weight, which the store mutates in place under its
// lock; Revision increments on every transform write so evaluator caches
// can detect staleness.
package models

import (
	"math"
	"time"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"signa/pkg/domain"
	dErrors "signa/pkg/domain-errors"
)

// Kind discriminates the constraint variant.
type Kind string

const (
	KindPrimitive      Kind = "primitive"
	KindPaintedRegion  Kind = "painted_region"
	KindPropagatedSeed Kind = "propagated_seed"
	KindRayCarve       Kind = "ray_carve"
	KindPocket         Kind = "pocket"
	KindSliceRegion    Kind = "slice_region"
	KindMLImport       Kind = "ml_import"
)

// MinExtent is the smallest admissible primitive size component. Sizes at
// or below this are degenerate and rejected rather than evaluated.
const MinExtent = 1e-6

const (
	weightMax     = 10
	weightDefault = 1
)

// Transform places a primitive in world space.
//
// Size interpretation depends on the primitive kind:
//   - Box: half extents along local x/y/z
//   - Sphere: X is the radius, Y/Z ignored
//   - Cylinder: X is the radius, Y the full height, Z ignored
//   - Halfspace: unused; the plane passes through Translation with its
//     normal derived from Rotation (local +Z)
type Transform struct {
	Translation v3.Vec `json:"translation"`
	Rotation    v3.Vec `json:"rotation"` // XYZ Euler, radians
	Size        v3.Vec `json:"size"`
}

// PrimitiveSpec is the payload of a primitive constraint.
type PrimitiveSpec struct {
	Shape     domain.PrimitiveKind `json:"shape"`
	Transform Transform            `json:"transform"`
}

// RegionSpec is the payload of the index-claiming constraint kinds. Painted
// and propagated regions use only PointIndices; slice regions add plane
// provenance; imports add per-point confidences and a source tag.
type RegionSpec struct {
	PointIndices []int             `json:"point_indices"`
	Confidences  []float64         `json:"confidences,omitempty"`
	Plane        domain.SlicePlane `json:"plane,omitempty"`
	Position     float64           `json:"position,omitempty"`
	SourceTag    string            `json:"source_tag,omitempty"`
}

// Ray is one scribble ray with its resolved hit.
type Ray struct {
	Origin       v3.Vec  `json:"origin"`
	Direction    v3.Vec  `json:"direction"` // unit length after intake
	HitDistance  float64 `json:"hit_distance"`
	LocalSpacing float64 `json:"local_spacing,omitempty"` // 0 = unknown
}

// PocketSpec is the payload of an accepted pocket: the voxel centers of the
// cavity at the analysis resolution.
type PocketSpec struct {
	VoxelCenters []v3.Vec `json:"voxel_centers"`
	VoxelSize    float64  `json:"voxel_size"`
}

// Constraint is the tagged variant. Exactly one payload pointer is non-nil,
// matching Kind; Rays is the payload for KindRayCarve.
type Constraint struct {
	ID        domain.ConstraintID `json:"id"`
	Kind      Kind                `json:"kind"`
	Label     domain.Label        `json:"label"`
	Weight    float64             `json:"weight"`
	CreatedAt time.Time           `json:"created_at"`
	Revision  int64               `json:"-"`

	Primitive *PrimitiveSpec `json:"primitive,omitempty"`
	Region    *RegionSpec    `json:"region,omitempty"`
	Rays      []Ray          `json:"rays,omitempty"`
	Pocket    *PocketSpec    `json:"pocket,omitempty"`
}

// IsRegion reports whether the constraint claims cloud point indices.
func (c *Constraint) IsRegion() bool {
	switch c.Kind {
	case KindPaintedRegion, KindPropagatedSeed, KindSliceRegion, KindMLImport:
		return true
	}
	return false
}

// Clone returns a deep copy so store reads never alias store-owned slices.
func (c *Constraint) Clone() Constraint {
	out := *c
	if c.Primitive != nil {
		p := *c.Primitive
		out.Primitive = &p
	}
	if c.Region != nil {
		r := *c.Region
		r.PointIndices = append([]int(nil), c.Region.PointIndices...)
		if c.Region.Confidences != nil {
			r.Confidences = append([]float64(nil), c.Region.Confidences...)
		}
		out.Region = &r
	}
	if c.Rays != nil {
		out.Rays = append([]Ray(nil), c.Rays...)
	}
	if c.Pocket != nil {
		p := *c.Pocket
		p.VoxelCenters = append([]v3.Vec(nil), c.Pocket.VoxelCenters...)
		out.Pocket = &p
	}
	return out
}

func validWeight(w float64) (float64, error) {
	if w == 0 {
		return weightDefault, nil
	}
	if math.IsNaN(w) || w < 0 || w > weightMax {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "weight must be within [0, %d]", weightMax)
	}
	return w, nil
}

func validIndices(indices []int, pointCount int) error {
	if len(indices) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "point indices cannot be empty")
	}
	for _, idx := range indices {
		if idx < 0 || idx >= pointCount {
			return dErrors.Newf(dErrors.CodeInvalidInput, "point index %d out of range [0, %d)", idx, pointCount)
		}
	}
	return nil
}

func finite(v v3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// ValidateSize enforces the kind-specific strict positivity rule on a
// transform. Exported because the transform session re-checks drafts and
// drag results before they reach the store.
func ValidateSize(shape domain.PrimitiveKind, t Transform) error {
	if !finite(t.Translation) || !finite(t.Rotation) || !finite(t.Size) {
		return dErrors.New(dErrors.CodeInvalidInput, "transform components must be finite")
	}
	switch shape {
	case domain.PrimitiveBox:
		if t.Size.X <= MinExtent || t.Size.Y <= MinExtent || t.Size.Z <= MinExtent {
			return dErrors.New(dErrors.CodeInvalidInput, "box half extents must be strictly positive")
		}
	case domain.PrimitiveSphere:
		if t.Size.X <= MinExtent {
			return dErrors.New(dErrors.CodeInvalidInput, "sphere radius must be strictly positive")
		}
	case domain.PrimitiveCylinder:
		if t.Size.X <= MinExtent || t.Size.Y <= MinExtent {
			return dErrors.New(dErrors.CodeInvalidInput, "cylinder radius and height must be strictly positive")
		}
	case domain.PrimitiveHalfspace:
		// No size; the plane is fully determined by translation and rotation.
	default:
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid primitive kind %q", shape)
	}
	return nil
}

// NewPrimitive builds a validated primitive constraint.
func NewPrimitive(shape domain.PrimitiveKind, label domain.Label, t Transform, weight float64, now time.Time) (Constraint, error) {
	if !label.IsValid() {
		return Constraint{}, dErrors.New(dErrors.CodeInvalidInput, "invalid label")
	}
	if err := ValidateSize(shape, t); err != nil {
		return Constraint{}, err
	}
	w, err := validWeight(weight)
	if err != nil {
		return Constraint{}, err
	}
	return Constraint{
		ID:        domain.NewConstraintID(),
		Kind:      KindPrimitive,
		Label:     label,
		Weight:    w,
		CreatedAt: now,
		Primitive: &PrimitiveSpec{Shape: shape, Transform: t},
	}, nil
}

func newRegion(kind Kind, label domain.Label, spec RegionSpec, pointCount int, weight float64, now time.Time) (Constraint, error) {
	if !label.IsValid() {
		return Constraint{}, dErrors.New(dErrors.CodeInvalidInput, "invalid label")
	}
	if err := validIndices(spec.PointIndices, pointCount); err != nil {
		return Constraint{}, err
	}
	w, err := validWeight(weight)
	if err != nil {
		return Constraint{}, err
	}
	return Constraint{
		ID:        domain.NewConstraintID(),
		Kind:      kind,
		Label:     label,
		Weight:    w,
		CreatedAt: now,
		Region:    &spec,
	}, nil
}

// NewPaintedRegion builds a region constraint from brush-covered indices.
func NewPaintedRegion(label domain.Label, indices []int, pointCount int, weight float64, now time.Time) (Constraint, error) {
	return newRegion(KindPaintedRegion, label, RegionSpec{PointIndices: indices, SourceTag: "brush"}, pointCount, weight, now)
}

// NewPropagatedSeed builds the region constraint produced by seed
// propagation. Kept distinct from painted regions for provenance.
func NewPropagatedSeed(label domain.Label, indices []int, pointCount int, weight float64, now time.Time) (Constraint, error) {
	return newRegion(KindPropagatedSeed, label, RegionSpec{PointIndices: indices, SourceTag: "propagation"}, pointCount, weight, now)
}

// NewSliceRegion builds a region constraint from a 2D slab selection.
func NewSliceRegion(label domain.Label, plane domain.SlicePlane, position float64, indices []int, pointCount int, weight float64, now time.Time) (Constraint, error) {
	if !plane.IsValid() {
		return Constraint{}, dErrors.New(dErrors.CodeInvalidInput, "invalid slice plane")
	}
	spec := RegionSpec{PointIndices: indices, Plane: plane, Position: position, SourceTag: "slice"}
	return newRegion(KindSliceRegion, label, spec, pointCount, weight, now)
}

// NewMLImport builds a region constraint from imported predictions.
// Confidences are optional; when present they must pair 1:1 with indices
// and lie within [0, 1].
func NewMLImport(label domain.Label, sourceTag string, indices []int, confidences []float64, pointCount int, weight float64, now time.Time) (Constraint, error) {
	if sourceTag == "" {
		sourceTag = "ml_import"
	}
	if confidences != nil {
		if len(confidences) != len(indices) {
			return Constraint{}, dErrors.New(dErrors.CodeInvalidInput, "confidences must pair 1:1 with point indices")
		}
		for _, c := range confidences {
			if math.IsNaN(c) || c < 0 || c > 1 {
				return Constraint{}, dErrors.New(dErrors.CodeInvalidInput, "confidences must be within [0, 1]")
			}
		}
	}
	spec := RegionSpec{PointIndices: indices, Confidences: confidences, SourceTag: sourceTag}
	return newRegion(KindMLImport, label, spec, pointCount, weight, now)
}

// NewRayCarve builds a ray constraint. Directions must already be unit
// length (intake normalizes); hits must be strictly positive.
func NewRayCarve(label domain.Label, rays []Ray, weight float64, now time.Time) (Constraint, error) {
	if !label.IsValid() {
		return Constraint{}, dErrors.New(dErrors.CodeInvalidInput, "invalid label")
	}
	if len(rays) == 0 {
		return Constraint{}, dErrors.New(dErrors.CodeInvalidInput, "ray set cannot be empty")
	}
	for i, r := range rays {
		if !finite(r.Origin) || !finite(r.Direction) {
			return Constraint{}, dErrors.Newf(dErrors.CodeInvalidInput, "ray %d has non-finite components", i)
		}
		if math.Abs(r.Direction.Length()-1) > 1e-6 {
			return Constraint{}, dErrors.Newf(dErrors.CodeInvalidInput, "ray %d direction must be unit length", i)
		}
		if r.HitDistance <= 0 || math.IsNaN(r.HitDistance) || math.IsInf(r.HitDistance, 0) {
			return Constraint{}, dErrors.Newf(dErrors.CodeInvalidInput, "ray %d hit distance must be strictly positive", i)
		}
		if r.LocalSpacing < 0 {
			return Constraint{}, dErrors.Newf(dErrors.CodeInvalidInput, "ray %d local spacing cannot be negative", i)
		}
	}
	w, err := validWeight(weight)
	if err != nil {
		return Constraint{}, err
	}
	return Constraint{
		ID:        domain.NewConstraintID(),
		Kind:      KindRayCarve,
		Label:     label,
		Weight:    w,
		CreatedAt: now,
		Rays:      append([]Ray(nil), rays...),
	}, nil
}

// NewPocket builds a constraint from an accepted pocket.
func NewPocket(label domain.Label, voxelCenters []v3.Vec, voxelSize float64, weight float64, now time.Time) (Constraint, error) {
	if !label.IsValid() {
		return Constraint{}, dErrors.New(dErrors.CodeInvalidInput, "invalid label")
	}
	if len(voxelCenters) == 0 {
		return Constraint{}, dErrors.New(dErrors.CodeInvalidInput, "pocket has no voxels")
	}
	if voxelSize <= 0 {
		return Constraint{}, dErrors.New(dErrors.CodeInvalidInput, "voxel size must be strictly positive")
	}
	w, err := validWeight(weight)
	if err != nil {
		return Constraint{}, err
	}
	return Constraint{
		ID:        domain.NewConstraintID(),
		Kind:      KindPocket,
		Label:     label,
		Weight:    w,
		CreatedAt: now,
		Pocket:    &PocketSpec{VoxelCenters: append([]v3.Vec(nil), voxelCenters...), VoxelSize: voxelSize},
	}, nil
}
