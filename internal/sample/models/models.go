// Package models defines the labeled training samples the generator
// produces and the tabular dataset shape the exporter emits.
package models

import (
	v3 "github.com/deadsy/sdfx/vec/v3"

	"signa/pkg/domain"
)

// Sample is one labeled training point. Immutable once generated; a new
// generation request replaces the whole set.
type Sample struct {
	Position v3.Vec       `json:"position"`
	Phi      float64      `json:"phi"`
	Label    domain.Label `json:"label"`
	// Normal is zero unless known (cloud normals passed through, or the
	// plane normal for halfspace surface samples).
	Normal v3.Vec  `json:"normal"`
	Weight float64 `json:"weight"`
	// Source is the provenance tag, e.g. "box_solid" or "ray_carve_surface".
	Source       string              `json:"source"`
	ConstraintID domain.ConstraintID `json:"constraint_id"`
}

// Columns is the export schema, in column order.
var Columns = []string{"x", "y", "z", "phi", "label", "nx", "ny", "nz", "weight", "source", "constraint_id"}

// Dataset is the tabular export: the schema plus one row per sample in
// generation order.
type Dataset struct {
	Columns []string
	Rows    []Sample
}
