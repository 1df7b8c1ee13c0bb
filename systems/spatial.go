package systems

import (
	"fmt"
	"math"
)

// maxDenseCells bounds the dense cell array. Larger grids switch to a
// sparse map keyed by cell.
var maxDenseCells = 1 << 22

// neighborhoodRadius is the Chebyshev cell radius searched around a
// candidate. With cell size minDist/√3 any point within minDist of the
// candidate lies at most two cells away.
const neighborhoodRadius = 2

// GridCell is an integer cell coordinate.
type GridCell struct {
	I, J, K int
}

// cellStore maps an in-bounds cell to a point index, -1 when empty.
type cellStore interface {
	get(c GridCell) int32
	set(c GridCell, v int32)
}

// denseCells is a flat x-fastest array.
type denseCells struct {
	nx, ny int
	cells  []int32
}

func newDenseCells(nx, ny, nz int) *denseCells {
	cells := make([]int32, nx*ny*nz)
	for i := range cells {
		cells[i] = -1
	}
	return &denseCells{nx: nx, ny: ny, cells: cells}
}

func (d *denseCells) get(c GridCell) int32 {
	return d.cells[(c.K*d.ny+c.J)*d.nx+c.I]
}

func (d *denseCells) set(c GridCell, v int32) {
	d.cells[(c.K*d.ny+c.J)*d.nx+c.I] = v
}

type sparseCells map[GridCell]int32

func (s sparseCells) get(c GridCell) int32 {
	if v, ok := s[c]; ok {
		return v
	}
	return -1
}

func (s sparseCells) set(c GridCell, v int32) { s[c] = v }

// SpatialGrid is a uniform 3D grid over a sphere's bounding cube where
// each cell holds at most one point index.
type SpatialGrid struct {
	origin   Point3
	cellSize float64
	nx       int
	ny       int
	nz       int
	cells    cellStore
}

// NewSpatialGrid creates a grid covering the bounding cube of sphere with
// cell size minDist/√3.
func NewSpatialGrid(sphere Sphere, minDist float64) (*SpatialGrid, error) {
	if err := sphere.Validate(); err != nil {
		return nil, err
	}
	if !finite(minDist) || minDist <= 0 {
		return nil, fmt.Errorf("min distance must be positive, got %v: %w", minDist, ErrInvalidParameter)
	}

	cellSize := minDist / math.Sqrt(3)
	bbMin, bbMax := sphere.Bounds()

	nx := int(math.Ceil((bbMax.X - bbMin.X) / cellSize))
	ny := int(math.Ceil((bbMax.Y - bbMin.Y) / cellSize))
	nz := int(math.Ceil((bbMax.Z - bbMin.Z) / cellSize))

	g := &SpatialGrid{
		origin:   bbMin,
		cellSize: cellSize,
		nx:       nx,
		ny:       ny,
		nz:       nz,
	}

	// Compare in float to avoid overflow on huge radius/minDist ratios
	if float64(nx)*float64(ny)*float64(nz) <= float64(maxDenseCells) {
		g.cells = newDenseCells(nx, ny, nz)
	} else {
		g.cells = make(sparseCells)
	}
	return g, nil
}

// CellSize returns the edge length of a cell.
func (g *SpatialGrid) CellSize() float64 {
	return g.cellSize
}

// Dims returns the number of cells along each axis.
func (g *SpatialGrid) Dims() (nx, ny, nz int) {
	return g.nx, g.ny, g.nz
}

// Dense reports whether the grid uses the dense cell array.
func (g *SpatialGrid) Dense() bool {
	_, ok := g.cells.(*denseCells)
	return ok
}

// Cell returns the cell containing p. The result may lie outside the grid.
func (g *SpatialGrid) Cell(p Point3) GridCell {
	return GridCell{
		I: int(math.Floor((p.X - g.origin.X) / g.cellSize)),
		J: int(math.Floor((p.Y - g.origin.Y) / g.cellSize)),
		K: int(math.Floor((p.Z - g.origin.Z) / g.cellSize)),
	}
}

// InBounds reports whether c is a valid cell of this grid.
func (g *SpatialGrid) InBounds(c GridCell) bool {
	return c.I >= 0 && c.I < g.nx &&
		c.J >= 0 && c.J < g.ny &&
		c.K >= 0 && c.K < g.nz
}

// Occupant returns the point index stored in c, or -1.
func (g *SpatialGrid) Occupant(c GridCell) int {
	if !g.InBounds(c) {
		return -1
	}
	return int(g.cells.get(c))
}

// Insert stores index in the cell containing p.
func (g *SpatialGrid) Insert(p Point3, index int) error {
	c := g.Cell(p)
	if !g.InBounds(c) {
		return fmt.Errorf("point %v maps to cell %v outside grid: %w", p, c, ErrInvalidParameter)
	}
	if prev := g.cells.get(c); prev >= 0 {
		return fmt.Errorf("cell %v holds point %d, inserting %d: %w", c, prev, index, ErrDuplicateCellOccupant)
	}
	g.cells.set(c, int32(index))
	return nil
}

// QueryNeighborhoodInto appends the point indices held by occupied cells
// within a 2-cell Chebyshev radius of p's cell. Reuse dst across calls to
// avoid allocations. Callers do the exact distance test.
func (g *SpatialGrid) QueryNeighborhoodInto(dst []int, p Point3) []int {
	c := g.Cell(p)

	i0, i1 := max(0, c.I-neighborhoodRadius), min(g.nx-1, c.I+neighborhoodRadius)
	j0, j1 := max(0, c.J-neighborhoodRadius), min(g.ny-1, c.J+neighborhoodRadius)
	k0, k1 := max(0, c.K-neighborhoodRadius), min(g.nz-1, c.K+neighborhoodRadius)

	for k := k0; k <= k1; k++ {
		for j := j0; j <= j1; j++ {
			for i := i0; i <= i1; i++ {
				if v := g.cells.get(GridCell{I: i, J: j, K: k}); v >= 0 {
					dst = append(dst, int(v))
				}
			}
		}
	}
	return dst
}

// QueryNeighborhood returns the occupants near p in a new slice.
func (g *SpatialGrid) QueryNeighborhood(p Point3) []int {
	return g.QueryNeighborhoodInto(nil, p)
}
