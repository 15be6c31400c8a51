// Package propagate grows a label region from seed points across a point
// cloud by breadth-first search over a proximity graph. The visited set and
// the region cap together guarantee termination even on a fully connected
// cloud.
package propagate

import (
	"context"
	"sort"

	"signa/internal/pointcloud/index"
	"signa/internal/pointcloud/models"
	projmodels "signa/internal/project/models"
	dErrors "signa/pkg/domain-errors"
)

// autoRadiusFactor scales the cloud's estimated mean spacing into the
// default adjacency radius when the project does not pin one.
const autoRadiusFactor = 2.5

// cancelCheckInterval is how many admissions pass between context checks.
const cancelCheckInterval = 1024

// Params are the propagation tunables, lifted from the project config.
type Params struct {
	// Radius is the adjacency radius; zero means auto from cloud spacing.
	Radius    float64
	MaxRegion int
	K         int
	Adjacency projmodels.Adjacency
}

// ParamsFromConfig extracts the propagation tunables.
func ParamsFromConfig(cfg projmodels.Config) Params {
	return Params{
		Radius:    cfg.PropagateRadius,
		MaxRegion: cfg.PropagateMaxRegion,
		K:         cfg.PropagateK,
		Adjacency: cfg.PropagateAdjacency,
	}
}

// Result is the grown region: sorted unique point indices, always a superset
// of the seeds, plus whether growth stopped at the region cap.
type Result struct {
	Indices []int
	Capped  bool
	Radius  float64
}

// Grow runs the BFS. Seeds must be valid cloud indices; the caller rejects
// an empty seed set before calling (EmptySeedSet is a UI-level disabled
// state, not an engine fault, but the engine re-checks to hold the
// invariant).
func Grow(ctx context.Context, seeds []int, cloud *models.Cloud, ix *index.Index, p Params) (Result, error) {
	if len(seeds) == 0 {
		return Result{}, dErrors.New(dErrors.CodeInvalidInput, "seed set is empty")
	}
	n := cloud.Count()
	for _, s := range seeds {
		if s < 0 || s >= n {
			return Result{}, dErrors.Newf(dErrors.CodeInvalidInput, "seed index %d out of range [0, %d)", s, n)
		}
	}
	radius := p.Radius
	if radius <= 0 {
		radius = autoRadiusFactor * cloud.Spacing
	}
	if p.MaxRegion < 1 {
		return Result{}, dErrors.New(dErrors.CodeInvalidInput, "max region must be at least 1")
	}

	visited := make([]bool, n)
	region := make([]int, 0, len(seeds))
	frontier := make([]int, 0, len(seeds))
	for _, s := range seeds {
		if visited[s] {
			continue
		}
		visited[s] = true
		region = append(region, s)
		frontier = append(frontier, s)
	}

	capped := false
	admissions := 0
grow:
	for len(frontier) > 0 {
		next := frontier[:0:0]
		for _, i := range frontier {
			neighbors, err := adjacent(cloud, ix, i, radius, p)
			if err != nil {
				return Result{}, err
			}
			for _, j := range neighbors {
				if visited[j] {
					continue
				}
				visited[j] = true
				region = append(region, j)
				next = append(next, j)

				if len(region) >= p.MaxRegion {
					capped = true
					break grow
				}
				admissions++
				if admissions%cancelCheckInterval == 0 {
					if err := ctx.Err(); err != nil {
						return Result{}, err
					}
				}
			}
		}
		frontier = next
	}

	sort.Ints(region)
	return Result{Indices: region, Capped: capped, Radius: radius}, nil
}

// adjacent returns the neighbors of point i under the configured adjacency.
func adjacent(cloud *models.Cloud, ix *index.Index, i int, radius float64, p Params) ([]int, error) {
	switch p.Adjacency {
	case projmodels.AdjacencyRadius, "":
		return ix.QueryRadius(cloud.Points[i], radius), nil
	case projmodels.AdjacencyMutualKNN:
		return mutualKNN(cloud, ix, i, p.K), nil
	default:
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid propagate adjacency %q", p.Adjacency)
	}
}

// mutualKNN keeps only the neighbors j of i for which i is also among j's k
// nearest. Mutuality prunes one-directional links across density jumps.
func mutualKNN(cloud *models.Cloud, ix *index.Index, i, k int) []int {
	candidates := ix.QueryKNearest(cloud.Points[i], k+1) // +1: result includes i itself
	out := make([]int, 0, len(candidates))
	for _, j := range candidates {
		if j == i {
			continue
		}
		for _, back := range ix.QueryKNearest(cloud.Points[j], k+1) {
			if back == i {
				out = append(out, j)
				break
			}
		}
	}
	return out
}
