package systems

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"
)

// Sampler defaults.
const (
	DefaultPoissonK     = 30
	DefaultPoissonSeed  = 1234
	DefaultSeedAttempts = 1000
)

// SamplerParams configures Poisson disk generation inside a sphere.
type SamplerParams struct {
	Sphere  Sphere
	MinDist float64 // Minimum distance between any two points
	K       int     // Candidate attempts per active point
	Seed    uint64  // All 64 bits select the sequence

	// SeedAttempts bounds the rejection sampling of the first point
	// (0 = DefaultSeedAttempts).
	SeedAttempts int
}

// DefaultSamplerParams returns params with k=30 and seed=1234.
func DefaultSamplerParams(sphere Sphere, minDist float64) SamplerParams {
	return SamplerParams{
		Sphere:       sphere,
		MinDist:      minDist,
		K:            DefaultPoissonK,
		Seed:         DefaultPoissonSeed,
		SeedAttempts: DefaultSeedAttempts,
	}
}

// Validate checks the sampler preconditions.
func (p SamplerParams) Validate() error {
	if err := p.Sphere.Validate(); err != nil {
		return err
	}
	if !finite(p.MinDist) || p.MinDist <= 0 {
		return fmt.Errorf("min distance must be positive, got %v: %w", p.MinDist, ErrInvalidParameter)
	}
	if p.K < 1 {
		return fmt.Errorf("k must be at least 1, got %d: %w", p.K, ErrInvalidParameter)
	}
	if p.SeedAttempts < 0 {
		return fmt.Errorf("seed attempts must be non-negative, got %d: %w", p.SeedAttempts, ErrInvalidParameter)
	}
	return nil
}

// Generate produces a maximal Poisson disk distribution inside a sphere
// using Bridson's algorithm. Every returned point lies within radius of
// center and every pair is at least minDist apart. Identical inputs
// always yield the identical sequence.
func Generate(center Point3, radius, minDist float64, k int, seed uint64) ([]Point3, error) {
	return GenerateWith(SamplerParams{
		Sphere:  Sphere{Center: center, Radius: radius},
		MinDist: minDist,
		K:       k,
		Seed:    seed,
	})
}

// GenerateWith is Generate taking a params struct.
func GenerateWith(params SamplerParams) ([]Point3, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	grid, err := NewSpatialGrid(params.Sphere, params.MinDist)
	if err != nil {
		return nil, err
	}

	s := &poissonSampler{
		sphere:  params.Sphere,
		minDist: params.MinDist,
		k:       params.K,
		rng:     rand.New(rand.NewPCG(params.Seed, 0)),
		grid:    grid,
	}

	attempts := params.SeedAttempts
	if attempts == 0 {
		attempts = DefaultSeedAttempts
	}

	first, ok := s.seedPoint(attempts)
	if !ok {
		return nil, fmt.Errorf("no seed point inside sphere after %d attempts: %w", attempts, ErrGenerationFailure)
	}
	if err := s.accept(first); err != nil {
		return nil, err
	}

	if err := s.run(); err != nil {
		return nil, err
	}
	return s.points, nil
}

// poissonSampler holds generation state. The grid is dropped with it.
type poissonSampler struct {
	sphere  Sphere
	minDist float64
	k       int
	rng     *rand.Rand
	grid    *SpatialGrid

	points    []Point3
	active    []int
	neighbors []int
}

// seedPoint draws uniformly in the bounding cube until a draw lands
// inside the sphere.
func (s *poissonSampler) seedPoint(attempts int) (Point3, bool) {
	bbMin, bbMax := s.sphere.Bounds()
	for i := 0; i < attempts; i++ {
		p := Point3{
			X: bbMin.X + s.rng.Float64()*(bbMax.X-bbMin.X),
			Y: bbMin.Y + s.rng.Float64()*(bbMax.Y-bbMin.Y),
			Z: bbMin.Z + s.rng.Float64()*(bbMax.Z-bbMin.Z),
		}
		if s.sphere.Contains(p) && s.grid.InBounds(s.grid.Cell(p)) {
			return p, true
		}
	}
	return Point3{}, false
}

func (s *poissonSampler) accept(p Point3) error {
	idx := len(s.points)
	if err := s.grid.Insert(p, idx); err != nil {
		return err
	}
	s.points = append(s.points, p)
	s.active = append(s.active, idx)
	return nil
}

func (s *poissonSampler) run() error {
	for len(s.active) > 0 {
		ai := s.rng.IntN(len(s.active))
		origin := s.points[s.active[ai]]

		found := false
		for attempt := 0; attempt < s.k; attempt++ {
			candidate := s.candidateAround(origin)
			if !s.valid(candidate) {
				continue
			}
			if err := s.accept(candidate); err != nil {
				return err
			}
			found = true
			break
		}

		if !found {
			// Swap with last, then pop
			s.active[ai] = s.active[len(s.active)-1]
			s.active = s.active[:len(s.active)-1]
		}
	}
	return nil
}

// candidateAround draws a point at distance uniform in [minDist, 2*minDist]
// from origin along a direction uniform on the unit sphere.
func (s *poissonSampler) candidateAround(origin Point3) Point3 {
	dist := s.minDist + s.rng.Float64()*s.minDist
	return r3.Add(origin, r3.Scale(dist, randomDirection(s.rng)))
}

func (s *poissonSampler) valid(p Point3) bool {
	if !s.sphere.Contains(p) {
		return false
	}
	if !s.grid.InBounds(s.grid.Cell(p)) {
		return false
	}

	minDistSq := s.minDist * s.minDist
	s.neighbors = s.grid.QueryNeighborhoodInto(s.neighbors[:0], p)
	for _, idx := range s.neighbors {
		if distanceSq(p, s.points[idx]) < minDistSq {
			return false
		}
	}
	return true
}

// randomDirection returns a unit vector uniform over the sphere surface
// (Archimedes: uniform z and azimuth).
func randomDirection(rng *rand.Rand) Point3 {
	z := 2*rng.Float64() - 1
	phi := 2 * math.Pi * rng.Float64()
	r := math.Sqrt(1 - z*z)
	return Point3{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
}
