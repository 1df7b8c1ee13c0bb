package systems

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point3 is a position in world space.
type Point3 = r3.Vec

// Sphere is the simulation domain.
type Sphere struct {
	Center Point3
	Radius float64
}

// Validate checks that the sphere has a finite center and a positive radius.
func (s Sphere) Validate() error {
	if !finite(s.Radius) || s.Radius <= 0 {
		return fmt.Errorf("sphere radius must be positive, got %v: %w", s.Radius, ErrInvalidParameter)
	}
	if !finiteVec(s.Center) {
		return fmt.Errorf("sphere center must be finite, got %v: %w", s.Center, ErrInvalidParameter)
	}
	return nil
}

// Contains reports whether p lies within the sphere (boundary included).
func (s Sphere) Contains(p Point3) bool {
	return distanceSq(p, s.Center) <= s.Radius*s.Radius
}

// Bounds returns the corners of the sphere's bounding cube.
func (s Sphere) Bounds() (min, max Point3) {
	ext := Point3{X: s.Radius, Y: s.Radius, Z: s.Radius}
	return r3.Sub(s.Center, ext), r3.Add(s.Center, ext)
}

// distanceSq returns the squared distance between two points.
func distanceSq(a, b Point3) float64 {
	return r3.Norm2(r3.Sub(a, b))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteVec(p Point3) bool {
	return finite(p.X) && finite(p.Y) && finite(p.Z)
}
