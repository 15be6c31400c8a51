// Package models defines labeling projects and their per-project tunables.
// Every algorithmic knob the engine exposes lives in Config so behavior is
// adjustable per project instead of hard-coded.
package models

import (
	"time"

	dErrors "signa/pkg/domain-errors"

	"signa/pkg/domain"
)

// Project is one labeling workspace: a name, a config, and (while open) a
// session owning the cloud and constraints.
type Project struct {
	ID        domain.ProjectID `json:"id"`
	Name      string           `json:"name"`
	CreatedAt time.Time        `json:"created_at"`
	Config    Config           `json:"config"`
}

// Clamp bounds for the sampling knobs.
const (
	SamplesPerPrimitiveMin = 10
	SamplesPerPrimitiveMax = 10000
	MaxTotalSamplesCap     = 1000000
)

// Adjacency selects how seed propagation connects points.
type Adjacency string

const (
	AdjacencyRadius    Adjacency = "radius"
	AdjacencyMutualKNN Adjacency = "mutual-knn"
)

// Config carries the per-project tunables. All fields have working defaults;
// a PATCH updates only the supplied fields and clamps rather than rejects
// the sampling counts.
type Config struct {
	// Sampling.
	SamplesPerPrimitive int     `json:"samples_per_primitive"`
	MaxTotalSamples     int     `json:"max_total_samples"`
	NearBand            float64 `json:"near_band"`
	SurfaceEpsilon      float64 `json:"surface_epsilon"`
	ShellWidth          float64 `json:"shell_width"`
	ShellRatio          float64 `json:"shell_ratio"`
	RegionPhi           float64 `json:"region_phi"`
	RandomSeed          int64   `json:"random_seed"`

	// Seed propagation. PropagateRadius zero means auto: 2.5 × the cloud's
	// estimated mean spacing.
	PropagateRadius    float64   `json:"propagate_radius"`
	PropagateMaxRegion int       `json:"propagate_max_region"`
	PropagateK         int       `json:"propagate_k"`
	PropagateAdjacency Adjacency `json:"propagate_adjacency"`

	// Interaction.
	EscapeCollapse   bool    `json:"escape_collapse"`
	GizmoRotateSpeed float64 `json:"gizmo_rotate_speed"`
	GizmoScaleSpeed  float64 `json:"gizmo_scale_speed"`
	MinExtent        float64 `json:"min_extent"`

	// Ray carving.
	RayEmptyBand    float64 `json:"ray_empty_band"`
	RaySurfaceBand  float64 `json:"ray_surface_band"`
	RayStep         float64 `json:"ray_step"`
	RaySpacingCoeff float64 `json:"ray_spacing_coeff"`
	RayBackBuffer   float64 `json:"ray_back_buffer"`

	// Pocket analysis.
	PocketVoxelTarget      int `json:"pocket_voxel_target"`
	PocketMaxVoxelsPerAxis int `json:"pocket_max_voxels_per_axis"`
	PocketDilation         int `json:"pocket_dilation"`
	PocketMinVoxels        int `json:"pocket_min_voxels"`
}

// DefaultConfig returns the working defaults.
func DefaultConfig() Config {
	return Config{
		SamplesPerPrimitive: 100,
		MaxTotalSamples:     200000,
		NearBand:            0.02,
		SurfaceEpsilon:      0.005,
		ShellWidth:          0.02,
		ShellRatio:          0.3,
		RegionPhi:           0.01,
		RandomSeed:          42,

		PropagateRadius:    0,
		PropagateMaxRegion: 200000,
		PropagateK:         16,
		PropagateAdjacency: AdjacencyRadius,

		EscapeCollapse:   false,
		GizmoRotateSpeed: 0.01,
		GizmoScaleSpeed:  0.01,
		MinExtent:        1e-6,

		RayEmptyBand:    0.02,
		RaySurfaceBand:  0.01,
		RayStep:         0.05,
		RaySpacingCoeff: 4.0,
		RayBackBuffer:   0.03,

		PocketVoxelTarget:      96,
		PocketMaxVoxelsPerAxis: 192,
		PocketDilation:         1,
		PocketMinVoxels:        8,
	}
}

// ClampSamplesPerPrimitive applies the documented clamp. Out-of-range values
// are pulled to the nearest bound, never rejected.
func ClampSamplesPerPrimitive(n int) int {
	if n < SamplesPerPrimitiveMin {
		return SamplesPerPrimitiveMin
	}
	if n > SamplesPerPrimitiveMax {
		return SamplesPerPrimitiveMax
	}
	return n
}

// Normalize clamps the clampable fields and restores defaults for fields
// whose zero value would break the engine.
func (c *Config) Normalize() {
	c.SamplesPerPrimitive = ClampSamplesPerPrimitive(c.SamplesPerPrimitive)
	if c.MaxTotalSamples <= 0 {
		c.MaxTotalSamples = DefaultConfig().MaxTotalSamples
	}
	if c.MaxTotalSamples > MaxTotalSamplesCap {
		c.MaxTotalSamples = MaxTotalSamplesCap
	}
	if c.PropagateAdjacency == "" {
		c.PropagateAdjacency = AdjacencyRadius
	}
	if c.MinExtent <= 0 {
		c.MinExtent = DefaultConfig().MinExtent
	}
}

// Patch is a partial config update; nil fields are left unchanged.
type Patch struct {
	SamplesPerPrimitive *int     `json:"samples_per_primitive,omitempty"`
	MaxTotalSamples     *int     `json:"max_total_samples,omitempty"`
	NearBand            *float64 `json:"near_band,omitempty"`
	SurfaceEpsilon      *float64 `json:"surface_epsilon,omitempty"`
	ShellWidth          *float64 `json:"shell_width,omitempty"`
	ShellRatio          *float64 `json:"shell_ratio,omitempty"`
	RegionPhi           *float64 `json:"region_phi,omitempty"`
	RandomSeed          *int64   `json:"random_seed,omitempty"`

	PropagateRadius    *float64 `json:"propagate_radius,omitempty"`
	PropagateMaxRegion *int     `json:"propagate_max_region,omitempty"`
	PropagateK         *int     `json:"propagate_k,omitempty"`
	PropagateAdjacency *string  `json:"propagate_adjacency,omitempty"`

	EscapeCollapse   *bool    `json:"escape_collapse,omitempty"`
	GizmoRotateSpeed *float64 `json:"gizmo_rotate_speed,omitempty"`
	GizmoScaleSpeed  *float64 `json:"gizmo_scale_speed,omitempty"`

	RayEmptyBand    *float64 `json:"ray_empty_band,omitempty"`
	RaySurfaceBand  *float64 `json:"ray_surface_band,omitempty"`
	RayStep         *float64 `json:"ray_step,omitempty"`
	RaySpacingCoeff *float64 `json:"ray_spacing_coeff,omitempty"`
	RayBackBuffer   *float64 `json:"ray_back_buffer,omitempty"`

	PocketVoxelTarget      *int `json:"pocket_voxel_target,omitempty"`
	PocketMaxVoxelsPerAxis *int `json:"pocket_max_voxels_per_axis,omitempty"`
	PocketDilation         *int `json:"pocket_dilation,omitempty"`
	PocketMinVoxels        *int `json:"pocket_min_voxels,omitempty"`
}

// Apply merges the patch into the config, validating enum fields and
// clamping the sampling counts.
func (p Patch) Apply(c Config) (Config, error) {
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setFloat := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}

	setInt(&c.SamplesPerPrimitive, p.SamplesPerPrimitive)
	setInt(&c.MaxTotalSamples, p.MaxTotalSamples)
	setFloat(&c.NearBand, p.NearBand)
	setFloat(&c.SurfaceEpsilon, p.SurfaceEpsilon)
	setFloat(&c.ShellWidth, p.ShellWidth)
	setFloat(&c.ShellRatio, p.ShellRatio)
	setFloat(&c.RegionPhi, p.RegionPhi)
	if p.RandomSeed != nil {
		c.RandomSeed = *p.RandomSeed
	}

	setFloat(&c.PropagateRadius, p.PropagateRadius)
	setInt(&c.PropagateMaxRegion, p.PropagateMaxRegion)
	setInt(&c.PropagateK, p.PropagateK)
	if p.PropagateAdjacency != nil {
		adj := Adjacency(*p.PropagateAdjacency)
		if adj != AdjacencyRadius && adj != AdjacencyMutualKNN {
			return Config{}, dErrors.Newf(dErrors.CodeInvalidInput, "invalid propagate adjacency %q", *p.PropagateAdjacency)
		}
		c.PropagateAdjacency = adj
	}

	if p.EscapeCollapse != nil {
		c.EscapeCollapse = *p.EscapeCollapse
	}
	setFloat(&c.GizmoRotateSpeed, p.GizmoRotateSpeed)
	setFloat(&c.GizmoScaleSpeed, p.GizmoScaleSpeed)

	setFloat(&c.RayEmptyBand, p.RayEmptyBand)
	setFloat(&c.RaySurfaceBand, p.RaySurfaceBand)
	setFloat(&c.RayStep, p.RayStep)
	setFloat(&c.RaySpacingCoeff, p.RaySpacingCoeff)
	setFloat(&c.RayBackBuffer, p.RayBackBuffer)

	setInt(&c.PocketVoxelTarget, p.PocketVoxelTarget)
	setInt(&c.PocketMaxVoxelsPerAxis, p.PocketMaxVoxelsPerAxis)
	setInt(&c.PocketDilation, p.PocketDilation)
	setInt(&c.PocketMinVoxels, p.PocketMinVoxels)

	if c.ShellRatio < 0 || c.ShellRatio > 1 {
		return Config{}, dErrors.New(dErrors.CodeInvalidInput, "shell ratio must be within [0, 1]")
	}
	for name, v := range map[string]float64{
		"near_band":        c.NearBand,
		"surface_epsilon":  c.SurfaceEpsilon,
		"shell_width":      c.ShellWidth,
		"region_phi":       c.RegionPhi,
		"ray_empty_band":   c.RayEmptyBand,
		"ray_surface_band": c.RaySurfaceBand,
		"ray_step":         c.RayStep,
		"ray_back_buffer":  c.RayBackBuffer,
	} {
		if v <= 0 {
			return Config{}, dErrors.Newf(dErrors.CodeInvalidInput, "%s must be strictly positive", name)
		}
	}
	if c.PropagateRadius < 0 {
		return Config{}, dErrors.New(dErrors.CodeInvalidInput, "propagate radius cannot be negative")
	}
	if c.PropagateK < 1 {
		return Config{}, dErrors.New(dErrors.CodeInvalidInput, "propagate k must be at least 1")
	}
	if c.PropagateMaxRegion < 1 {
		return Config{}, dErrors.New(dErrors.CodeInvalidInput, "propagate max region must be at least 1")
	}

	c.Normalize()
	return c, nil
}
