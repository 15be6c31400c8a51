// Package pocket finds enclosed cavities in a point cloud: regions of empty
// space a flood fill from outside the bounds cannot reach. The cloud is
// voxelized at an adaptive resolution, occupancy is dilated to close small
// gaps in the shell, the exterior is flood-filled from the boundary, and the
// remaining empty voxels are grouped into connected components.
package pocket

import (
	"context"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"signa/internal/pointcloud/models"
	projmodels "signa/internal/project/models"
	"signa/pkg/domain"
	dErrors "signa/pkg/domain-errors"
)

// Pocket is one detected cavity at the analysis resolution.
type Pocket struct {
	ID           domain.PocketID `json:"id"`
	VoxelCount   int             `json:"voxel_count"`
	Volume       float64         `json:"volume"`
	VoxelSize    float64         `json:"voxel_size"`
	Centroid     v3.Vec          `json:"centroid"`
	BoundsMin    v3.Vec          `json:"bounds_min"`
	BoundsMax    v3.Vec          `json:"bounds_max"`
	VoxelCenters []v3.Vec        `json:"-"`
}

// Params are the analysis tunables, lifted from the project config.
type Params struct {
	VoxelTarget      int
	MaxVoxelsPerAxis int
	Dilation         int
	MinVoxels        int
}

// ParamsFromConfig extracts the pocket tunables.
func ParamsFromConfig(cfg projmodels.Config) Params {
	return Params{
		VoxelTarget:      cfg.PocketVoxelTarget,
		MaxVoxelsPerAxis: cfg.PocketMaxVoxelsPerAxis,
		Dilation:         cfg.PocketDilation,
		MinVoxels:        cfg.PocketMinVoxels,
	}
}

// grid is a dense voxel occupancy grid over the cloud bounds, padded by one
// empty voxel layer so the exterior fill always has a connected start.
type grid struct {
	nx, ny, nz int
	origin     v3.Vec
	size       float64
	cells      []uint8 // 0 empty, 1 occupied, 2 outside
}

const (
	cellEmpty uint8 = iota
	cellOccupied
	cellOutside
)

func (g *grid) at(x, y, z int) uint8     { return g.cells[(z*g.ny+y)*g.nx+x] }
func (g *grid) set(x, y, z int, v uint8) { g.cells[(z*g.ny+y)*g.nx+x] = v }

func (g *grid) center(x, y, z int) v3.Vec {
	return v3.Vec{
		X: g.origin.X + (float64(x)+0.5)*g.size,
		Y: g.origin.Y + (float64(y)+0.5)*g.size,
		Z: g.origin.Z + (float64(z)+0.5)*g.size,
	}
}

// neighbors6 is the face-adjacency stencil used by both the exterior fill
// and the component labeling.
var neighbors6 = [6][3]int{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}

// Analyze voxelizes the cloud and returns its pockets, largest first by
// voxel count. Deterministic for a given cloud and params.
func Analyze(ctx context.Context, cloud *models.Cloud, p Params) ([]Pocket, error) {
	if p.VoxelTarget < 1 || p.MaxVoxelsPerAxis < 1 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "voxel target and axis cap must be at least 1")
	}

	g, err := voxelize(cloud, p)
	if err != nil {
		return nil, err
	}
	dilate(g, p.Dilation)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fillOutside(g)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return components(g, p.MinVoxels), nil
}

func voxelize(cloud *models.Cloud, p Params) (*grid, error) {
	bounds := cloud.Bounds
	longest := cloud.MaxExtent()
	if longest <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "cloud bounds are degenerate")
	}
	size := longest / float64(p.VoxelTarget)
	// Re-derive the voxel size if the cap would be exceeded on any axis.
	dims := bounds.Size()
	for _, extent := range []float64{dims.X, dims.Y, dims.Z} {
		if int(math.Ceil(extent/size)) > p.MaxVoxelsPerAxis {
			size = extent / float64(p.MaxVoxelsPerAxis)
		}
	}

	// One-voxel padding on every side keeps the exterior connected.
	nx := int(math.Ceil(dims.X/size)) + 2
	ny := int(math.Ceil(dims.Y/size)) + 2
	nz := int(math.Ceil(dims.Z/size)) + 2
	g := &grid{
		nx: nx, ny: ny, nz: nz,
		origin: bounds.Min.Sub(v3.Vec{X: size, Y: size, Z: size}),
		size:   size,
		cells:  make([]uint8, nx*ny*nz),
	}
	for _, pt := range cloud.Points {
		x := int((pt.X - g.origin.X) / size)
		y := int((pt.Y - g.origin.Y) / size)
		z := int((pt.Z - g.origin.Z) / size)
		x = clampInt(x, 0, nx-1)
		y = clampInt(y, 0, ny-1)
		z = clampInt(z, 0, nz-1)
		g.set(x, y, z, cellOccupied)
	}
	return g, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// dilate grows occupancy by one face-neighbor layer per iteration, closing
// shell gaps thinner than the point spacing.
func dilate(g *grid, iterations int) {
	for it := 0; it < iterations; it++ {
		grown := make([]uint8, len(g.cells))
		copy(grown, g.cells)
		for z := 0; z < g.nz; z++ {
			for y := 0; y < g.ny; y++ {
				for x := 0; x < g.nx; x++ {
					if g.at(x, y, z) != cellOccupied {
						continue
					}
					for _, d := range neighbors6 {
						xx, yy, zz := x+d[0], y+d[1], z+d[2]
						if xx < 0 || xx >= g.nx || yy < 0 || yy >= g.ny || zz < 0 || zz >= g.nz {
							continue
						}
						if grown[(zz*g.ny+yy)*g.nx+xx] == cellEmpty {
							grown[(zz*g.ny+yy)*g.nx+xx] = cellOccupied
						}
					}
				}
			}
		}
		g.cells = grown
	}
}

// fillOutside marks every empty voxel reachable from the grid boundary. The
// padding layer guarantees all boundary voxels of an occupied-free face are
// connected to each other around the cloud.
func fillOutside(g *grid) {
	queue := make([][3]int, 0, 2*(g.nx*g.ny+g.ny*g.nz+g.nx*g.nz))
	push := func(x, y, z int) {
		if g.at(x, y, z) == cellEmpty {
			g.set(x, y, z, cellOutside)
			queue = append(queue, [3]int{x, y, z})
		}
	}
	for z := 0; z < g.nz; z++ {
		for y := 0; y < g.ny; y++ {
			for x := 0; x < g.nx; x++ {
				if x == 0 || x == g.nx-1 || y == 0 || y == g.ny-1 || z == 0 || z == g.nz-1 {
					push(x, y, z)
				}
			}
		}
	}
	for len(queue) > 0 {
		c := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for _, d := range neighbors6 {
			x, y, z := c[0]+d[0], c[1]+d[1], c[2]+d[2]
			if x < 0 || x >= g.nx || y < 0 || y >= g.ny || z < 0 || z >= g.nz {
				continue
			}
			push(x, y, z)
		}
	}
}

// components labels the interior empty voxels. What is neither occupied nor
// outside after the fill is, by definition, a pocket.
func components(g *grid, minVoxels int) []Pocket {
	visited := make([]bool, len(g.cells))
	var pockets []Pocket

	for z := 0; z < g.nz; z++ {
		for y := 0; y < g.ny; y++ {
			for x := 0; x < g.nx; x++ {
				idx := (z*g.ny+y)*g.nx + x
				if visited[idx] || g.at(x, y, z) != cellEmpty {
					continue
				}
				centers := collect(g, visited, x, y, z)
				if len(centers) < minVoxels {
					continue
				}
				pockets = append(pockets, summarize(centers, g.size))
			}
		}
	}
	// Largest first; analysis order within the grid scan is already
	// deterministic so ties keep scan order.
	for i := 1; i < len(pockets); i++ {
		for j := i; j > 0 && pockets[j].VoxelCount > pockets[j-1].VoxelCount; j-- {
			pockets[j], pockets[j-1] = pockets[j-1], pockets[j]
		}
	}
	return pockets
}

func collect(g *grid, visited []bool, x, y, z int) []v3.Vec {
	var centers []v3.Vec
	stack := [][3]int{{x, y, z}}
	visited[(z*g.ny+y)*g.nx+x] = true
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		centers = append(centers, g.center(c[0], c[1], c[2]))
		for _, d := range neighbors6 {
			xx, yy, zz := c[0]+d[0], c[1]+d[1], c[2]+d[2]
			if xx < 0 || xx >= g.nx || yy < 0 || yy >= g.ny || zz < 0 || zz >= g.nz {
				continue
			}
			idx := (zz*g.ny+yy)*g.nx + xx
			if visited[idx] || g.at(xx, yy, zz) != cellEmpty {
				continue
			}
			visited[idx] = true
			stack = append(stack, [3]int{xx, yy, zz})
		}
	}
	return centers
}

func summarize(centers []v3.Vec, size float64) Pocket {
	min := centers[0]
	max := centers[0]
	var sum v3.Vec
	for _, c := range centers {
		min = min.Min(c)
		max = max.Max(c)
		sum = sum.Add(c)
	}
	half := v3.Vec{X: size / 2, Y: size / 2, Z: size / 2}
	return Pocket{
		ID:           domain.NewPocketID(),
		VoxelCount:   len(centers),
		Volume:       float64(len(centers)) * size * size * size,
		VoxelSize:    size,
		Centroid:     sum.DivScalar(float64(len(centers))),
		BoundsMin:    min.Sub(half),
		BoundsMax:    max.Add(half),
		VoxelCenters: centers,
	}
}

// Bounds reports the pocket's axis-aligned bounds as an sdf box, for callers
// that want to frame the camera on it.
func (p Pocket) Bounds() sdf.Box3 {
	return sdf.Box3{Min: p.BoundsMin, Max: p.BoundsMax}
}
