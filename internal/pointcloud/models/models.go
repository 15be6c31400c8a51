// Package models defines the point cloud owned by a labeling session: the
// immutable point set plus the derived statistics (bounds, centroid, mean
// spacing) computed once at load.
package models

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	dErrors "signa/pkg/domain-errors"
)

// Cloud is one uploaded point cloud. Immutable after construction; a new
// upload builds a new Cloud and the session swaps the pointer.
type Cloud struct {
	Points []v3.Vec
	// Normals pairs 1:1 with Points when the decoder supplied them, nil
	// otherwise. Normals are never estimated here.
	Normals []v3.Vec
	// Intensities pairs 1:1 with Points when supplied, nil otherwise.
	Intensities []float64

	Bounds   sdf.Box3
	Centroid v3.Vec
	// Spacing is the estimated mean point spacing, used as the base unit for
	// auto-scaled radii. Zero until EstimateSpacing has run (it needs the
	// spatial index, which is built after the cloud).
	Spacing float64
}

// New builds a Cloud and computes its load-time statistics. The decoder owns
// format errors; this constructor only enforces the structural invariants.
func New(points []v3.Vec, normals []v3.Vec, intensities []float64) (*Cloud, error) {
	if len(points) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "point cloud has zero points")
	}
	if normals != nil && len(normals) != len(points) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "normals must pair 1:1 with points")
	}
	if intensities != nil && len(intensities) != len(points) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "intensities must pair 1:1 with points")
	}

	min := points[0]
	max := points[0]
	var sum v3.Vec
	for _, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) ||
			math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) || math.IsInf(p.Z, 0) {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "point cloud contains non-finite coordinates")
		}
		min = min.Min(p)
		max = max.Max(p)
		sum = sum.Add(p)
	}

	return &Cloud{
		Points:      points,
		Normals:     normals,
		Intensities: intensities,
		Bounds:      sdf.Box3{Min: min, Max: max},
		Centroid:    sum.DivScalar(float64(len(points))),
	}, nil
}

// Count returns the number of points.
func (c *Cloud) Count() int { return len(c.Points) }

// HasNormals reports whether per-point normals were supplied at upload.
func (c *Cloud) HasNormals() bool { return c.Normals != nil }

// Normal returns the normal of point i, or the zero vector when the cloud
// carries no normals.
func (c *Cloud) Normal(i int) v3.Vec {
	if c.Normals == nil {
		return v3.Vec{}
	}
	return c.Normals[i]
}

// MaxExtent returns the length of the longest bounding box axis.
func (c *Cloud) MaxExtent() float64 {
	size := c.Bounds.Size()
	return math.Max(size.X, math.Max(size.Y, size.Z))
}
