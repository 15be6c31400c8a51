// Package generator turns the constraint store into a labeled training set.
// Generation is a pure function of (constraints, cloud, config): samples are
// recomputed wholesale per request, per-constraint synthesis fans out in
// parallel with deterministic per-constraint random substreams, and the
// merge replays store order so parallelism never changes the output.
package generator

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"golang.org/x/sync/errgroup"

	cmodels "signa/internal/constraint/models"
	pcmodels "signa/internal/pointcloud/models"
	projmodels "signa/internal/project/models"
	smodels "signa/internal/sample/models"
	"signa/internal/sdfeval"
	"signa/pkg/domain"
	dErrors "signa/pkg/domain-errors"
)

// interiorAttemptsPerSample caps rejection sampling; volumes thinner than
// their bounding box fall back to boundary projection.
const interiorAttemptsPerSample = 64

// surfaceBandSamplesPerRay is how many samples each ray contributes to its
// surface band.
const surfaceBandSamplesPerRay = 8

// Stats summarizes one generation pass.
type Stats struct {
	Total     int
	Truncated int
	ByLabel   map[domain.Label]int
}

// Generate produces the sample set for the given constraints. Deterministic
// for a fixed config seed: constraint index keys each substream.
func Generate(ctx context.Context, constraints []cmodels.Constraint, cloud *pcmodels.Cloud, eval *sdfeval.Evaluator, cfg projmodels.Config) ([]smodels.Sample, Stats, error) {
	if cloud == nil {
		return nil, Stats{}, dErrors.New(dErrors.CodeInvariantViolation, "generation requires a point cloud")
	}

	winners := claimWinners(constraints, cloud.Count())

	perConstraint := make([][]smodels.Sample, len(constraints))
	g, gctx := errgroup.WithContext(ctx)
	for pos := range constraints {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(uint64(cfg.RandomSeed), uint64(pos)))
			out, err := synthesize(gctx, &constraints[pos], pos, winners, cloud, eval, cfg, rng)
			if err != nil {
				return fmt.Errorf("constraint %s: %w", constraints[pos].ID, err)
			}
			perConstraint[pos] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	var samples []smodels.Sample
	for _, chunk := range perConstraint {
		samples = append(samples, chunk...)
	}

	if err := overrideByLaterPrimitives(ctx, constraints, samples, eval, cfg); err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{ByLabel: make(map[domain.Label]int)}
	if len(samples) > cfg.MaxTotalSamples {
		stats.Truncated = len(samples) - cfg.MaxTotalSamples
		samples = samples[:cfg.MaxTotalSamples]
	}
	stats.Total = len(samples)
	for i := range samples {
		stats.ByLabel[samples[i].Label]++
	}
	return samples, stats, nil
}

// claimWinners resolves index-claiming conflicts up front: for every cloud
// index claimed by region-style constraints, the last claimant in store
// order wins.
func claimWinners(constraints []cmodels.Constraint, pointCount int) map[int]int {
	winners := make(map[int]int)
	for pos := range constraints {
		c := &constraints[pos]
		if !c.IsRegion() && c.Kind != cmodels.KindPocket {
			continue
		}
		if c.Region == nil {
			continue
		}
		for _, idx := range c.Region.PointIndices {
			if idx < pointCount {
				winners[idx] = pos
			}
		}
	}
	return winners
}

func synthesize(ctx context.Context, c *cmodels.Constraint, pos int, winners map[int]int, cloud *pcmodels.Cloud, eval *sdfeval.Evaluator, cfg projmodels.Config, rng *rand.Rand) ([]smodels.Sample, error) {
	switch c.Kind {
	case cmodels.KindPrimitive:
		return primitiveSamples(ctx, c, cloud, eval, cfg, rng)
	case cmodels.KindPaintedRegion, cmodels.KindPropagatedSeed, cmodels.KindSliceRegion, cmodels.KindMLImport:
		return regionSamples(c, pos, winners, cloud, cfg), nil
	case cmodels.KindRayCarve:
		return raySamples(c, cfg, rng), nil
	case cmodels.KindPocket:
		return pocketSamples(c, cfg, rng), nil
	default:
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown constraint kind %q", c.Kind)
	}
}

// sourceTag builds the provenance tag, e.g. "box_solid" or "painted_empty".
func sourceTag(c *cmodels.Constraint, label domain.Label) string {
	var base string
	switch c.Kind {
	case cmodels.KindPrimitive:
		base = string(c.Primitive.Shape)
	case cmodels.KindPaintedRegion:
		base = "painted"
	case cmodels.KindPropagatedSeed:
		base = "propagated"
	case cmodels.KindRayCarve:
		base = "ray_carve"
	case cmodels.KindPocket:
		base = "pocket"
	case cmodels.KindSliceRegion:
		base = "slice"
	case cmodels.KindMLImport:
		base = "ml_import"
	}
	return base + "_" + string(label)
}

// primitiveSamples draws the configured per-primitive count: interior
// samples labeled with the primitive's label and near-boundary shell
// samples labeled by their signed distance.
func primitiveSamples(ctx context.Context, c *cmodels.Constraint, cloud *pcmodels.Cloud, eval *sdfeval.Evaluator, cfg projmodels.Config, rng *rand.Rand) ([]smodels.Sample, error) {
	s, err := eval.For(c)
	if err != nil {
		return nil, err
	}
	bounds := sampleBounds(c, s, cloud, cfg)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := projmodels.ClampSamplesPerPrimitive(cfg.SamplesPerPrimitive)
	nShell := int(math.Round(float64(n) * cfg.ShellRatio))
	nInterior := n - nShell

	isHalfspace := c.Primitive.Shape == domain.PrimitiveHalfspace
	var planeNormal v3.Vec
	if isHalfspace {
		planeNormal = sdfeval.PlaneNormal(c.Primitive.Transform)
	}

	out := make([]smodels.Sample, 0, n)
	for i := 0; i < nInterior; i++ {
		p, phi, ok := sampleInterior(s, bounds, rng)
		if !ok {
			// Thin volume: fall back to a shell point pushed inside.
			p, phi = sampleShell(s, bounds, -cfg.ShellWidth, -cfg.SurfaceEpsilon, rng)
		}
		out = append(out, smodels.Sample{
			Position:     p,
			Phi:          phi,
			Label:        c.Label,
			Weight:       c.Weight,
			Source:       sourceTag(c, c.Label),
			ConstraintID: c.ID,
		})
	}
	// The shell band hugs the boundary from the inside: offsets span
	// [-shellWidth, +surfaceEpsilon], so a solid primitive contributes its
	// own label and Surface but never its opposite.
	for i := 0; i < nShell; i++ {
		p, phi := sampleShell(s, bounds, -cfg.ShellWidth, cfg.SurfaceEpsilon, rng)
		label := c.Label
		switch {
		case math.Abs(phi) <= cfg.SurfaceEpsilon:
			label = domain.LabelSurface
		case phi > 0:
			label = c.Label.Opposite()
		}
		sm := smodels.Sample{
			Position:     p,
			Phi:          phi,
			Label:        label,
			Weight:       c.Weight,
			Source:       sourceTag(c, label),
			ConstraintID: c.ID,
		}
		if isHalfspace && label == domain.LabelSurface {
			sm.Normal = planeNormal
		}
		out = append(out, sm)
	}
	return out, nil
}

// sampleBounds is the sampling region for a primitive: its bounding box
// inflated by the shell width, clipped to the cloud bounds for halfspaces
// (their own box is an unbounded slab).
func sampleBounds(c *cmodels.Constraint, s sdf.SDF3, cloud *pcmodels.Cloud, cfg projmodels.Config) sdf.Box3 {
	pad := v3.Vec{X: cfg.ShellWidth, Y: cfg.ShellWidth, Z: cfg.ShellWidth}
	b := s.BoundingBox()
	b = sdf.Box3{Min: b.Min.Sub(pad), Max: b.Max.Add(pad)}
	if c.Primitive.Shape == domain.PrimitiveHalfspace {
		cb := sdf.Box3{Min: cloud.Bounds.Min.Sub(pad), Max: cloud.Bounds.Max.Add(pad)}
		b = sdf.Box3{Min: b.Min.Max(cb.Min), Max: b.Max.Min(cb.Max)}
		// A plane entirely outside the cloud leaves an inverted box; fall
		// back to the cloud bounds so sampling still terminates.
		if b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z {
			b = cb
		}
	}
	return b
}

func randomIn(b sdf.Box3, rng *rand.Rand) v3.Vec {
	size := b.Size()
	return v3.Vec{
		X: b.Min.X + rng.Float64()*size.X,
		Y: b.Min.Y + rng.Float64()*size.Y,
		Z: b.Min.Z + rng.Float64()*size.Z,
	}
}

// sampleInterior rejection-samples a point strictly inside the volume.
func sampleInterior(s sdf.SDF3, bounds sdf.Box3, rng *rand.Rand) (v3.Vec, float64, bool) {
	for i := 0; i < interiorAttemptsPerSample; i++ {
		p := randomIn(bounds, rng)
		if phi := s.Evaluate(p); phi < 0 {
			return p, phi, true
		}
	}
	return v3.Vec{}, 0, false
}

// sampleShell produces a point within the shell around the zero level-set:
// a random point is projected onto the boundary along the SDF gradient and
// then offset by a distance drawn uniformly from [lo, hi].
func sampleShell(s sdf.SDF3, bounds sdf.Box3, lo, hi float64, rng *rand.Rand) (v3.Vec, float64) {
	p := randomIn(bounds, rng)
	// Two projection steps handle the mild curvature of the analytic
	// primitives well enough for band sampling.
	for i := 0; i < 2; i++ {
		phi := s.Evaluate(p)
		g := sdfeval.Gradient(s, p)
		p = p.Sub(g.MulScalar(phi))
	}
	offset := lo + rng.Float64()*(hi-lo)
	n := sdfeval.Gradient(s, p)
	p = p.Add(n.MulScalar(offset))
	return p, s.Evaluate(p)
}

// regionSamples reads the claimed cloud points directly; no synthetic
// positions. Indices lost to a later claimant, and indices stale after a
// cloud swap, are skipped.
func regionSamples(c *cmodels.Constraint, pos int, winners map[int]int, cloud *pcmodels.Cloud, cfg projmodels.Config) []smodels.Sample {
	out := make([]smodels.Sample, 0, len(c.Region.PointIndices))
	for i, idx := range c.Region.PointIndices {
		if idx >= cloud.Count() {
			continue
		}
		if winner, ok := winners[idx]; ok && winner != pos {
			continue
		}
		weight := c.Weight
		if c.Region.Confidences != nil {
			weight *= c.Region.Confidences[i]
		}
		out = append(out, smodels.Sample{
			Position:     cloud.Points[idx],
			Phi:          c.Label.Phi() * cfg.RegionPhi,
			Label:        c.Label,
			Normal:       cloud.Normal(idx),
			Weight:       weight,
			Source:       sourceTag(c, c.Label),
			ConstraintID: c.ID,
		})
	}
	return out
}

// raySamples emits free-space evidence along each ray up to the hit and a
// surface band straddling it. Offsets are measured back toward the origin:
// positive before the hit (empty side), negative past it (solid side).
func raySamples(c *cmodels.Constraint, cfg projmodels.Config, rng *rand.Rand) []smodels.Sample {
	var out []smodels.Sample
	for _, ray := range c.Rays {
		// Free space strictly before hit − emptyBand.
		for t := cfg.RayStep; t < ray.HitDistance-cfg.RayEmptyBand; t += cfg.RayStep {
			out = append(out, smodels.Sample{
				Position:     ray.Origin.Add(ray.Direction.MulScalar(t)),
				Phi:          cfg.RayEmptyBand,
				Label:        domain.LabelEmpty,
				Weight:       c.Weight,
				Source:       sourceTag(c, domain.LabelEmpty),
				ConstraintID: c.ID,
			})
		}

		backBuffer := cfg.RayBackBuffer
		if ray.LocalSpacing > 0 {
			backBuffer = ray.LocalSpacing * cfg.RaySpacingCoeff
		}
		// Band over [hit − surfaceBand, hit + backBuffer] along the ray.
		for i := 0; i < surfaceBandSamplesPerRay; i++ {
			t := ray.HitDistance - cfg.RaySurfaceBand + rng.Float64()*(cfg.RaySurfaceBand+backBuffer)
			phi := ray.HitDistance - t
			label := domain.LabelSurface
			switch {
			case phi < -cfg.SurfaceEpsilon:
				label = domain.LabelSolid
			case phi > cfg.SurfaceEpsilon:
				label = domain.LabelEmpty
			}
			out = append(out, smodels.Sample{
				Position:     ray.Origin.Add(ray.Direction.MulScalar(t)),
				Phi:          phi,
				Label:        label,
				Normal:       ray.Direction.Neg(),
				Weight:       c.Weight,
				Source:       sourceTag(c, label),
				ConstraintID: c.ID,
			})
		}
	}
	return out
}

// pocketSamples uses the cavity's voxel centers, deterministically
// subsampled to the per-primitive budget when larger.
func pocketSamples(c *cmodels.Constraint, cfg projmodels.Config, rng *rand.Rand) []smodels.Sample {
	centers := c.Pocket.VoxelCenters
	n := projmodels.ClampSamplesPerPrimitive(cfg.SamplesPerPrimitive)
	if len(centers) > n {
		picked := make([]v3.Vec, n)
		for i, j := range rng.Perm(len(centers))[:n] {
			picked[i] = centers[j]
		}
		centers = picked
	}
	out := make([]smodels.Sample, 0, len(centers))
	for _, p := range centers {
		out = append(out, smodels.Sample{
			Position:     p,
			Phi:          c.Label.Phi() * cfg.RegionPhi,
			Label:        c.Label,
			Weight:       c.Weight,
			Source:       sourceTag(c, c.Label),
			ConstraintID: c.ID,
		})
	}
	return out
}

// overrideByLaterPrimitives applies the second half of the precedence rule:
// a sample from an earlier constraint that lands inside (or within the
// surface epsilon of) a later primitive takes that primitive's verdict.
func overrideByLaterPrimitives(ctx context.Context, constraints []cmodels.Constraint, samples []smodels.Sample, eval *sdfeval.Evaluator, cfg projmodels.Config) error {
	posByID := make(map[domain.ConstraintID]int, len(constraints))
	for pos := range constraints {
		posByID[constraints[pos].ID] = pos
	}

	for pos := range constraints {
		c := &constraints[pos]
		if c.Kind != cmodels.KindPrimitive {
			continue
		}
		s, err := eval.For(c)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := range samples {
			if posByID[samples[i].ConstraintID] >= pos {
				continue
			}
			phi := s.Evaluate(samples[i].Position)
			switch {
			case math.Abs(phi) <= cfg.SurfaceEpsilon:
				samples[i].Label = domain.LabelSurface
				samples[i].Phi = phi
			case phi < 0:
				samples[i].Label = c.Label
				samples[i].Phi = phi
			}
		}
	}
	return nil
}
