// Package index provides nearest-neighbor and radius queries over a point
// cloud, backed by a k-d tree. An index is built once per cloud and never
// mutated; a replacement cloud gets a fresh index.
package index

import (
	"math"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// cloudPoint carries the original cloud index through the tree so query
// results can reference points by index, not position.
type cloudPoint struct {
	pos v3.Vec
	idx int
}

func (p cloudPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(cloudPoint)
	switch d {
	case 0:
		return p.pos.X - q.pos.X
	case 1:
		return p.pos.Y - q.pos.Y
	default:
		return p.pos.Z - q.pos.Z
	}
}

func (p cloudPoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance, per the kdtree contract.
func (p cloudPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(cloudPoint)
	return p.pos.Sub(q.pos).Length2()
}

type cloudPoints []cloudPoint

func (p cloudPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p cloudPoints) Len() int                      { return len(p) }
func (p cloudPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}
func (p cloudPoints) Pivot(d kdtree.Dim) int {
	return plane{Dim: d, cloudPoints: p}.Pivot()
}

type plane struct {
	kdtree.Dim
	cloudPoints
}

func (p plane) Less(i, j int) bool {
	return p.cloudPoints[i].Compare(p.cloudPoints[j], p.Dim) < 0
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.cloudPoints = p.cloudPoints[start:end]
	return p
}
func (p plane) Swap(i, j int) {
	p.cloudPoints[i], p.cloudPoints[j] = p.cloudPoints[j], p.cloudPoints[i]
}

// Index answers neighbor queries over one point cloud.
type Index struct {
	tree *kdtree.Tree
	n    int
}

// Build constructs the index. The points slice is copied into tree storage;
// the caller keeps ownership of the original.
func Build(points []v3.Vec) *Index {
	data := make(cloudPoints, len(points))
	for i, p := range points {
		data[i] = cloudPoint{pos: p, idx: i}
	}
	return &Index{tree: kdtree.New(data, true), n: len(points)}
}

// Len returns the number of indexed points.
func (ix *Index) Len() int { return ix.n }

// QueryRadius returns the indices of all points within r of p, ordered by
// increasing distance. The query point itself is included when indexed.
func (ix *Index) QueryRadius(p v3.Vec, r float64) []int {
	if r <= 0 || ix.n == 0 {
		return nil
	}
	keeper := kdtree.NewDistKeeper(r * r)
	ix.tree.NearestSet(keeper, cloudPoint{pos: p, idx: -1})

	type hit struct {
		idx  int
		dist float64
	}
	hits := make([]hit, 0, keeper.Heap.Len())
	for _, cd := range keeper.Heap {
		if cd.Comparable == nil {
			continue
		}
		hits = append(hits, hit{idx: cd.Comparable.(cloudPoint).idx, dist: cd.Dist})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.idx
	}
	return out
}

// QueryKNearest returns the indices of the k points nearest to p, ordered by
// increasing distance. Fewer than k points are returned when the cloud is
// smaller than k.
func (ix *Index) QueryKNearest(p v3.Vec, k int) []int {
	if k <= 0 || ix.n == 0 {
		return nil
	}
	if k > ix.n {
		k = ix.n
	}
	keeper := kdtree.NewNKeeper(k)
	ix.tree.NearestSet(keeper, cloudPoint{pos: p, idx: -1})

	type hit struct {
		idx  int
		dist float64
	}
	hits := make([]hit, 0, keeper.Heap.Len())
	for _, cd := range keeper.Heap {
		if cd.Comparable == nil || math.IsInf(cd.Dist, 1) {
			continue
		}
		hits = append(hits, hit{idx: cd.Comparable.(cloudPoint).idx, dist: cd.Dist})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.idx
	}
	return out
}

// spacingSampleCap bounds the spacing estimate cost on large clouds.
const spacingSampleCap = 1000

// EstimateSpacing estimates the mean nearest-neighbor distance by sampling
// up to spacingSampleCap points evenly across the cloud. Single-point clouds
// fall back to a nominal unit spacing.
func (ix *Index) EstimateSpacing(points []v3.Vec) float64 {
	if len(points) < 2 {
		return 1
	}
	stride := len(points) / spacingSampleCap
	if stride < 1 {
		stride = 1
	}
	var sum float64
	var count int
	for i := 0; i < len(points); i += stride {
		// Nearest two: the point itself plus its true nearest neighbor.
		nn := ix.QueryKNearest(points[i], 2)
		if len(nn) < 2 {
			continue
		}
		sum += points[i].Sub(points[nn[1]]).Length()
		count++
	}
	if count == 0 || sum == 0 {
		return 1
	}
	return sum / float64(count)
}
