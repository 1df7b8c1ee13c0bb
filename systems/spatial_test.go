package systems

import (
	"errors"
	"math"
	"testing"
)

// unitCellGrid returns a grid with cell size 1 over [-5, 5]^3.
func unitCellGrid(t *testing.T) *SpatialGrid {
	t.Helper()
	g, err := NewSpatialGrid(Sphere{Radius: 5}, math.Sqrt(3))
	if err != nil {
		t.Fatalf("NewSpatialGrid: %v", err)
	}
	return g
}

func TestSpatialGridDims(t *testing.T) {
	g := unitCellGrid(t)

	if g.CellSize() != 1 {
		t.Errorf("expected cell size 1, got %v", g.CellSize())
	}
	nx, ny, nz := g.Dims()
	if nx != 10 || ny != 10 || nz != 10 {
		t.Errorf("expected 10x10x10 cells, got %dx%dx%d", nx, ny, nz)
	}
	if !g.Dense() {
		t.Error("expected dense storage for a small grid")
	}
}

func TestSpatialGridInvalid(t *testing.T) {
	if _, err := NewSpatialGrid(Sphere{Radius: 0}, 1); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("zero radius: expected ErrInvalidParameter, got %v", err)
	}
	if _, err := NewSpatialGrid(Sphere{Radius: 1}, -1); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("negative minDist: expected ErrInvalidParameter, got %v", err)
	}
}

func TestSpatialGridInsertDuplicate(t *testing.T) {
	g := unitCellGrid(t)

	if err := g.Insert(Point3{X: 0.5, Y: 0.5, Z: 0.5}, 0); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	// Same cell, different point
	err := g.Insert(Point3{X: 0.9, Y: 0.1, Z: 0.7}, 1)
	if !errors.Is(err, ErrDuplicateCellOccupant) {
		t.Errorf("expected ErrDuplicateCellOccupant, got %v", err)
	}
	if got := g.Occupant(GridCell{5, 5, 5}); got != 0 {
		t.Errorf("expected cell to keep index 0, got %d", got)
	}
}

func TestSpatialGridInsertOutside(t *testing.T) {
	g := unitCellGrid(t)

	err := g.Insert(Point3{X: 6, Y: 0, Z: 0}, 0)
	if !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for point outside grid, got %v", err)
	}
}

func TestSpatialGridNeighborhood(t *testing.T) {
	g := unitCellGrid(t)

	if err := g.Insert(Point3{X: 0.5, Y: 0.5, Z: 0.5}, 7); err != nil {
		t.Fatalf("insert: %v", err)
	}

	testCases := []struct {
		name  string
		p     Point3
		found bool
	}{
		{"same cell", Point3{X: 0.2, Y: 0.2, Z: 0.2}, true},
		{"two cells on x", Point3{X: 2.5, Y: 0.5, Z: 0.5}, true},
		{"two cells diagonal", Point3{X: -1.5, Y: 2.5, Z: -1.5}, true},
		{"three cells on x", Point3{X: 3.5, Y: 0.5, Z: 0.5}, false},
		{"three cells on z", Point3{X: 0.5, Y: 0.5, Z: -2.5}, false},
	}

	for _, tc := range testCases {
		got := g.QueryNeighborhood(tc.p)
		found := len(got) == 1 && got[0] == 7
		if found != tc.found {
			t.Errorf("%s: expected found=%v, got %v", tc.name, tc.found, got)
		}
	}
}

func TestSpatialGridNeighborhoodClampsAtEdges(t *testing.T) {
	g := unitCellGrid(t)

	corner := Point3{X: -4.9, Y: -4.9, Z: -4.9}
	if err := g.Insert(corner, 0); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got := g.QueryNeighborhoodInto(nil, corner)
	if len(got) != 1 {
		t.Errorf("expected corner query to find 1 occupant, got %v", got)
	}
}

func TestSpatialGridSparseMatchesDense(t *testing.T) {
	dense := unitCellGrid(t)

	saved := maxDenseCells
	maxDenseCells = 1
	defer func() { maxDenseCells = saved }()

	sparse := unitCellGrid(t)
	if sparse.Dense() {
		t.Fatal("expected sparse storage")
	}

	points := []Point3{{X: 0.5, Y: 0.5, Z: 0.5}, {X: 2.5, Y: -1.5, Z: 0.5}, {X: -4.5, Y: 4.5, Z: 0}}
	for i, p := range points {
		if err := dense.Insert(p, i); err != nil {
			t.Fatalf("dense insert: %v", err)
		}
		if err := sparse.Insert(p, i); err != nil {
			t.Fatalf("sparse insert: %v", err)
		}
	}
	if err := sparse.Insert(points[0], 9); !errors.Is(err, ErrDuplicateCellOccupant) {
		t.Errorf("sparse: expected ErrDuplicateCellOccupant, got %v", err)
	}

	q := Point3{X: 1, Y: 0, Z: 0}
	d := dense.QueryNeighborhood(q)
	s := sparse.QueryNeighborhood(q)
	if len(d) != len(s) {
		t.Fatalf("dense found %v, sparse found %v", d, s)
	}
	for i := range d {
		if d[i] != s[i] {
			t.Errorf("result %d: dense %d, sparse %d", i, d[i], s[i])
		}
	}
}
