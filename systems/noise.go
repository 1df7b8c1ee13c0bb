package systems

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/ojrac/opensimplex-go"
)

// Noise backends selectable from config.
const (
	NoisePerlin      = "perlin"
	NoiseOpenSimplex = "opensimplex"
)

// NoiseField is a deterministic scalar noise function of two inputs.
// Implementations are read-only after construction and safe for
// concurrent use.
type NoiseField interface {
	Noise2D(a, b float64) float64
}

// NewNoiseField builds the named backend. An empty name selects Perlin.
func NewNoiseField(backend string, seed int64) (NoiseField, error) {
	switch backend {
	case "", NoisePerlin:
		return NewPerlinNoise(seed), nil
	case NoiseOpenSimplex:
		return NewOpenSimplexNoise(seed), nil
	default:
		return nil, fmt.Errorf("unknown noise backend %q: %w", backend, ErrInvalidParameter)
	}
}

// PerlinNoise generates classic gradient noise in roughly [-1, 1].
type PerlinNoise struct {
	perm [512]int
}

// NewPerlinNoise creates a new Perlin noise generator.
func NewPerlinNoise(seed int64) *PerlinNoise {
	p := &PerlinNoise{}
	rng := rand.New(rand.NewPCG(uint64(seed), 0))

	var perm [256]int
	for i := range perm {
		perm[i] = i
	}
	for i := len(perm) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	for i := 0; i < 256; i++ {
		p.perm[i] = perm[i]
		p.perm[i+256] = perm[i]
	}

	return p
}

// Noise2D returns the noise value at (x, y).
func (p *PerlinNoise) Noise2D(x, y float64) float64 {
	fx := math.Floor(x)
	fy := math.Floor(y)

	// Lattice cell, wrapped to the permutation period
	X := int(fx) & 255
	Y := int(fy) & 255

	x -= fx
	y -= fy

	u := fade(x)
	v := fade(y)

	A := p.perm[X] + Y
	B := p.perm[X+1] + Y

	return lerp(v,
		lerp(u, grad2D(p.perm[A], x, y), grad2D(p.perm[B], x-1, y)),
		lerp(u, grad2D(p.perm[A+1], x, y-1), grad2D(p.perm[B+1], x-1, y-1)))
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

// grad2D picks one of eight gradient directions from the hash.
func grad2D(hash int, x, y float64) float64 {
	switch hash & 7 {
	case 0:
		return x + y
	case 1:
		return -x + y
	case 2:
		return x - y
	case 3:
		return -x - y
	case 4:
		return x
	case 5:
		return -x
	case 6:
		return y
	default:
		return -y
	}
}

// OpenSimplexNoise adapts opensimplex-go to NoiseField.
type OpenSimplexNoise struct {
	noise opensimplex.Noise
}

// NewOpenSimplexNoise creates an OpenSimplex-backed noise field.
func NewOpenSimplexNoise(seed int64) *OpenSimplexNoise {
	return &OpenSimplexNoise{noise: opensimplex.New(seed)}
}

// Noise2D returns the noise value at (x, y), in [-1, 1].
func (o *OpenSimplexNoise) Noise2D(x, y float64) float64 {
	return o.noise.Eval2(x, y)
}
