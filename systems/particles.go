package systems

import (
	"fmt"
	"math"
	"sync/atomic"
)

// particleOffset spaces particles apart in noise space so each index gets
// a decorrelated noise track without a per-particle RNG stream.
const particleOffset = 13.37

// Reset oscillator rates for the deterministic horizontal reentry offset.
const (
	resetRateX = 25.1234
	resetRateZ = 21.9876
)

// SimulationParams controls particle motion. It is read-only during an
// Advance call and may be changed by the owner between frames.
type SimulationParams struct {
	BaseUpSpeed              float64 // Steady upward drift
	HorizontalTurbulence     float64 // Horizontal wiggle amplitude
	VerticalTurbulence       float64 // Vertical speed variation
	NoiseFrequency           float64 // Time scale of the noise tracks
	BottomInsideFactor       float64 // Reentry height as a fraction of radius below center, 0..1
	RandomizeHorizontalReset bool
	HorizontalResetRange     float64
}

// DefaultSimulationParams returns the stock bubble motion.
func DefaultSimulationParams() SimulationParams {
	return SimulationParams{
		BaseUpSpeed:              1.0,
		HorizontalTurbulence:     0.2,
		VerticalTurbulence:       0.1,
		NoiseFrequency:           0.5,
		BottomInsideFactor:       0.9,
		RandomizeHorizontalReset: true,
		HorizontalResetRange:     0.2,
	}
}

// Validate rejects non-finite values and a reentry factor outside [0, 1].
func (p SimulationParams) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"base_up_speed", p.BaseUpSpeed},
		{"horizontal_turbulence", p.HorizontalTurbulence},
		{"vertical_turbulence", p.VerticalTurbulence},
		{"noise_frequency", p.NoiseFrequency},
		{"horizontal_reset_range", p.HorizontalResetRange},
	} {
		if !finite(f.v) {
			return fmt.Errorf("%s must be finite, got %v: %w", f.name, f.v, ErrInvalidParameter)
		}
	}
	if !finite(p.BottomInsideFactor) || p.BottomInsideFactor < 0 || p.BottomInsideFactor > 1 {
		return fmt.Errorf("bottom_inside_factor must be in [0, 1], got %v: %w", p.BottomInsideFactor, ErrInvalidParameter)
	}
	return nil
}

// FieldOptions configures NewParticleField.
type FieldOptions struct {
	Count  int
	Sphere Sphere

	// Prewarm seeds positions from a Poisson disk sample of Sphere.
	// Sampler.Sphere is ignored; the field's sphere is used.
	Prewarm bool
	Sampler SamplerParams

	// Positions are adopted when Prewarm is false. Length must equal Count.
	Positions []Point3

	// Noise defaults to Perlin with seed 0.
	Noise NoiseField

	Workers           int // 0 = GOMAXPROCS
	ParallelThreshold int // 0 = DefaultParallelThreshold
}

// ParticleField owns the live position array and advances it each frame.
type ParticleField struct {
	sphere    Sphere
	positions []Point3
	noise     NoiseField
	pool      *WorkerPool

	// Sample set size when prewarmed, 0 otherwise
	sampleCount int
}

// NewParticleField validates opts and builds the initial position array.
// Nothing is allocated for the field when an error is returned.
func NewParticleField(opts FieldOptions) (*ParticleField, error) {
	if opts.Count <= 0 {
		return nil, fmt.Errorf("particle count must be positive, got %d: %w", opts.Count, ErrInvalidParameter)
	}
	if err := opts.Sphere.Validate(); err != nil {
		return nil, err
	}

	positions := make([]Point3, opts.Count)
	sampleCount := 0

	if opts.Prewarm {
		sp := opts.Sampler
		sp.Sphere = opts.Sphere
		points, err := GenerateWith(sp)
		if err != nil {
			return nil, fmt.Errorf("prewarm: %w", err)
		}
		if len(points) == 0 {
			return nil, fmt.Errorf("prewarm produced no points: %w", ErrGenerationFailure)
		}
		// Wrap around if there are fewer samples than particles
		for i := range positions {
			positions[i] = points[i%len(points)]
		}
		sampleCount = len(points)
	} else {
		if len(opts.Positions) != opts.Count {
			return nil, fmt.Errorf("expected %d initial positions, got %d: %w", opts.Count, len(opts.Positions), ErrInvalidParameter)
		}
		copy(positions, opts.Positions)
	}

	noise := opts.Noise
	if noise == nil {
		noise = NewPerlinNoise(0)
	}

	return &ParticleField{
		sphere:      opts.Sphere,
		positions:   positions,
		noise:       noise,
		pool:        NewWorkerPool(opts.Workers, opts.ParallelThreshold),
		sampleCount: sampleCount,
	}, nil
}

// Len returns the fixed particle count.
func (f *ParticleField) Len() int {
	return len(f.positions)
}

// Sphere returns the domain sphere.
func (f *ParticleField) Sphere() Sphere {
	return f.sphere
}

// SampleCount returns the number of Poisson samples used to prewarm, or 0.
func (f *ParticleField) SampleCount() int {
	return f.sampleCount
}

// Positions returns the live array. It is only consistent between Advance
// calls and must not be retained across frames or modified.
func (f *ParticleField) Positions() []Point3 {
	return f.positions
}

// CopyPositions copies the published positions into dst, growing it if
// needed, and returns it.
func (f *ParticleField) CopyPositions(dst []Point3) []Point3 {
	if cap(dst) < len(f.positions) {
		dst = make([]Point3, len(f.positions))
	}
	dst = dst[:len(f.positions)]
	copy(dst, f.positions)
	return dst
}

// Advance moves every particle by one frame and recycles any that left the
// sphere. It returns the number of particles recycled. The array is fully
// updated when Advance returns.
func (f *ParticleField) Advance(dt, clockTime float64, params SimulationParams) (int, error) {
	if !finite(dt) || dt < 0 {
		return 0, fmt.Errorf("dt must be non-negative, got %v: %w", dt, ErrInvalidParameter)
	}
	if !finite(clockTime) {
		return 0, fmt.Errorf("clock time must be finite, got %v: %w", clockTime, ErrInvalidParameter)
	}
	if err := params.Validate(); err != nil {
		return 0, err
	}

	var recycled atomic.Int64
	f.pool.Run(len(f.positions), func(start, end int) {
		n := 0
		for i := start; i < end; i++ {
			var reset bool
			f.positions[i], reset = stepParticle(f.positions[i], i, dt, clockTime, &params, f.sphere, f.noise)
			if reset {
				n++
			}
		}
		recycled.Add(int64(n))
	})
	return int(recycled.Load()), nil
}

// Close stops the worker goroutines.
func (f *ParticleField) Close() {
	f.pool.Stop()
}

// stepParticle advances one particle. It reads no other particle's state.
func stepParticle(pos Point3, index int, dt, t float64, params *SimulationParams, sphere Sphere, noise NoiseField) (Point3, bool) {
	offset := float64(index) * particleOffset
	phase := t * params.NoiseFrequency

	hNoise := noise.Noise2D(phase, offset)
	vNoise := noise.Noise2D(offset, phase)

	// One horizontal sample drives both X and Z
	drift := hNoise * params.HorizontalTurbulence * dt
	pos.X += drift
	pos.Z += drift

	upSpeed := params.BaseUpSpeed + vNoise*params.VerticalTurbulence
	pos.Y += upSpeed * dt

	if sphere.Contains(pos) {
		return pos, false
	}

	pos.Y = sphere.Center.Y - sphere.Radius*params.BottomInsideFactor
	if params.RandomizeHorizontalReset {
		rx, rz := resetOffset(offset, t)
		pos.X = sphere.Center.X + rx*params.HorizontalResetRange
		pos.Z = sphere.Center.Z + rz*params.HorizontalResetRange
	}
	return pos, true
}

// resetOffset is a deterministic pseudo-random horizontal offset in
// [-0.5, 0.5]^2 for a particle's noise offset at time t.
func resetOffset(offset, t float64) (x, z float64) {
	return math.Sin(offset+t*resetRateX) * 0.5, math.Cos(offset+t*resetRateZ) * 0.5
}
