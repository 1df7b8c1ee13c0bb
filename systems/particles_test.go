package systems

import (
	"errors"
	"math"
	"testing"
)

func newExplicitField(t *testing.T, sphere Sphere, positions []Point3) *ParticleField {
	t.Helper()
	f, err := NewParticleField(FieldOptions{
		Count:     len(positions),
		Sphere:    sphere,
		Positions: positions,
	})
	if err != nil {
		t.Fatalf("NewParticleField: %v", err)
	}
	t.Cleanup(f.Close)
	return f
}

func TestNewParticleFieldZeroCount(t *testing.T) {
	f, err := NewParticleField(FieldOptions{
		Count:   0,
		Sphere:  Sphere{Radius: 5},
		Prewarm: true,
		Sampler: DefaultSamplerParams(Sphere{Radius: 5}, 1),
	})
	if !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
	if f != nil {
		t.Error("expected no field on error")
	}
}

func TestNewParticleFieldPositionCountMismatch(t *testing.T) {
	_, err := NewParticleField(FieldOptions{
		Count:     3,
		Sphere:    Sphere{Radius: 5},
		Positions: []Point3{{}, {}},
	})
	if !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestNewParticleFieldPrewarmInvalidSampler(t *testing.T) {
	_, err := NewParticleField(FieldOptions{
		Count:   10,
		Sphere:  Sphere{Radius: 5},
		Prewarm: true,
		Sampler: SamplerParams{MinDist: 0, K: 30},
	})
	if !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestNewParticleFieldPrewarmWraps(t *testing.T) {
	sphere := Sphere{Center: Point3{Y: 2}, Radius: 1.5}
	f, err := NewParticleField(FieldOptions{
		Count:   200,
		Sphere:  sphere,
		Prewarm: true,
		Sampler: DefaultSamplerParams(sphere, 1),
	})
	if err != nil {
		t.Fatalf("NewParticleField: %v", err)
	}
	defer f.Close()

	n := f.SampleCount()
	if n == 0 || n >= 200 {
		t.Fatalf("expected fewer samples than particles, got %d", n)
	}

	samples, err := GenerateWith(DefaultSamplerParams(sphere, 1))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	positions := f.Positions()
	for i, p := range positions {
		if p != samples[i%len(samples)] {
			t.Fatalf("particle %d: expected sample %d, got %v", i, i%len(samples), p)
		}
	}
}

func TestNewParticleFieldCopiesPositions(t *testing.T) {
	in := []Point3{{X: 1}, {X: 2}}
	f := newExplicitField(t, Sphere{Radius: 5}, in)

	in[0].X = 99
	if f.Positions()[0].X != 1 {
		t.Error("expected field to own a copy of the initial positions")
	}
}

func TestAdvanceRecyclesToBottom(t *testing.T) {
	sphere := Sphere{Radius: 5}
	f := newExplicitField(t, sphere, []Point3{{Y: 5.001}})

	params := DefaultSimulationParams()
	params.BottomInsideFactor = 0.9

	recycled, err := f.Advance(1.0/60.0, 3.0, params)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if recycled != 1 {
		t.Errorf("expected 1 recycled particle, got %d", recycled)
	}

	y := f.Positions()[0].Y
	if y != sphere.Center.Y-sphere.Radius*params.BottomInsideFactor || math.Abs(y+4.5) > 1e-12 {
		t.Errorf("expected y == -4.5 after recycle, got %v", y)
	}
}

func TestAdvanceRandomizedResetIsDeterministic(t *testing.T) {
	sphere := Sphere{Center: Point3{X: 1, Y: 1, Z: 1}, Radius: 2}
	start := []Point3{{X: 1, Y: 3.5, Z: 1}, {X: 1, Y: 3.5, Z: 1}, {X: 1, Y: 3.5, Z: 1}}

	params := DefaultSimulationParams()
	params.HorizontalResetRange = 0.8
	const clock = 12.5

	a := newExplicitField(t, sphere, start)
	b := newExplicitField(t, sphere, start)
	if _, err := a.Advance(0.02, clock, params); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if _, err := b.Advance(0.02, clock, params); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	for i, p := range a.Positions() {
		if p != b.Positions()[i] {
			t.Errorf("particle %d: runs disagree, %v vs %v", i, p, b.Positions()[i])
		}

		offset := float64(i) * particleOffset
		wantX := sphere.Center.X + math.Sin(offset+clock*resetRateX)*0.5*params.HorizontalResetRange
		wantZ := sphere.Center.Z + math.Cos(offset+clock*resetRateZ)*0.5*params.HorizontalResetRange
		if math.Abs(p.X-wantX) > 1e-12 || math.Abs(p.Z-wantZ) > 1e-12 {
			t.Errorf("particle %d: expected x,z = %.6f,%.6f, got %.6f,%.6f", i, wantX, wantZ, p.X, p.Z)
		}
	}

	// Identical start positions land apart because the offset is per index
	if a.Positions()[0] == a.Positions()[1] {
		t.Error("expected per-index reset offsets to differ")
	}
}

func TestAdvanceResetKeepsHorizontalWhenNotRandomized(t *testing.T) {
	sphere := Sphere{Radius: 5}
	f := newExplicitField(t, sphere, []Point3{{X: 0.3, Y: 6, Z: -0.4}})

	params := DefaultSimulationParams()
	params.RandomizeHorizontalReset = false
	params.HorizontalTurbulence = 0

	if _, err := f.Advance(0.1, 1, params); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	p := f.Positions()[0]
	if p.X != 0.3 || p.Z != -0.4 {
		t.Errorf("expected x,z unchanged at 0.3,-0.4, got %v,%v", p.X, p.Z)
	}
	if math.Abs(p.Y+4.5) > 1e-12 {
		t.Errorf("expected y == -4.5, got %v", p.Y)
	}
}

func TestAdvanceSharesHorizontalNoise(t *testing.T) {
	f := newExplicitField(t, Sphere{Radius: 50}, []Point3{{}, {}, {}})

	params := DefaultSimulationParams()
	params.HorizontalTurbulence = 3
	if _, err := f.Advance(0.5, 7.3, params); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	for i, p := range f.Positions() {
		if p.X != p.Z {
			t.Errorf("particle %d: expected equal x and z drift, got %v and %v", i, p.X, p.Z)
		}
	}
}

func TestAdvanceZeroDt(t *testing.T) {
	sphere := Sphere{Radius: 5}
	start := []Point3{{X: 1, Y: 2, Z: 3}, {X: -2, Y: 0, Z: 0.5}, {X: 0, Y: 7, Z: 0}}
	f := newExplicitField(t, sphere, start)

	params := DefaultSimulationParams()
	params.RandomizeHorizontalReset = false

	recycled, err := f.Advance(0, 4.2, params)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if recycled != 1 {
		t.Errorf("expected only the outside particle to recycle, got %d", recycled)
	}

	got := f.Positions()
	for i := 0; i < 2; i++ {
		if got[i] != start[i] {
			t.Errorf("particle %d: expected unchanged %v, got %v", i, start[i], got[i])
		}
	}
	if math.Abs(got[2].Y+4.5) > 1e-12 {
		t.Errorf("expected outside particle recycled to y=-4.5, got %v", got[2].Y)
	}
}

func TestAdvanceKeepsCount(t *testing.T) {
	sphere := Sphere{Radius: 3}
	f, err := NewParticleField(FieldOptions{
		Count:   500,
		Sphere:  sphere,
		Prewarm: true,
		Sampler: DefaultSamplerParams(sphere, 0.5),
	})
	if err != nil {
		t.Fatalf("NewParticleField: %v", err)
	}
	defer f.Close()

	params := DefaultSimulationParams()
	for frame := 0; frame < 300; frame++ {
		if _, err := f.Advance(1.0/60.0, float64(frame)/60.0, params); err != nil {
			t.Fatalf("frame %d: %v", frame, err)
		}
		if f.Len() != 500 || len(f.Positions()) != 500 {
			t.Fatalf("frame %d: particle count changed to %d", frame, len(f.Positions()))
		}
	}
}

func TestAdvanceParallelMatchesSequential(t *testing.T) {
	sphere := Sphere{Center: Point3{X: -1, Y: 4, Z: 2}, Radius: 4}
	sampler := DefaultSamplerParams(sphere, 0.6)

	build := func(workers, threshold int) *ParticleField {
		f, err := NewParticleField(FieldOptions{
			Count:             1000,
			Sphere:            sphere,
			Prewarm:           true,
			Sampler:           sampler,
			Workers:           workers,
			ParallelThreshold: threshold,
		})
		if err != nil {
			t.Fatalf("NewParticleField: %v", err)
		}
		t.Cleanup(f.Close)
		return f
	}

	seq := build(1, 0)
	par := build(4, 1)

	params := DefaultSimulationParams()
	params.BaseUpSpeed = 3
	for frame := 0; frame < 120; frame++ {
		clock := float64(frame) * 0.05
		n1, err := seq.Advance(0.05, clock, params)
		if err != nil {
			t.Fatalf("sequential: %v", err)
		}
		n2, err := par.Advance(0.05, clock, params)
		if err != nil {
			t.Fatalf("parallel: %v", err)
		}
		if n1 != n2 {
			t.Fatalf("frame %d: recycled %d sequential vs %d parallel", frame, n1, n2)
		}
	}

	for i, p := range seq.Positions() {
		if p != par.Positions()[i] {
			t.Fatalf("particle %d: sequential %v, parallel %v", i, p, par.Positions()[i])
		}
	}
}

func TestAdvanceRejectsInvalidInput(t *testing.T) {
	start := []Point3{{X: 1, Y: 1, Z: 1}}
	f := newExplicitField(t, Sphere{Radius: 5}, start)

	if _, err := f.Advance(-0.1, 0, DefaultSimulationParams()); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("negative dt: expected ErrInvalidParameter, got %v", err)
	}

	params := DefaultSimulationParams()
	params.BottomInsideFactor = 1.5
	if _, err := f.Advance(0.1, 0, params); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("bottom factor 1.5: expected ErrInvalidParameter, got %v", err)
	}

	if f.Positions()[0] != start[0] {
		t.Error("expected rejected frames to leave positions untouched")
	}
}

func TestCopyPositions(t *testing.T) {
	f := newExplicitField(t, Sphere{Radius: 5}, []Point3{{X: 1}, {Y: 2}, {Z: 3}})

	dst := f.CopyPositions(nil)
	if len(dst) != 3 || dst[2].Z != 3 {
		t.Fatalf("unexpected copy %v", dst)
	}
	dst[0].X = 42
	if f.Positions()[0].X != 1 {
		t.Error("expected copy to be independent of the live array")
	}
}

func BenchmarkAdvance(b *testing.B) {
	sphere := Sphere{Radius: 10}
	f, err := NewParticleField(FieldOptions{
		Count:   5000,
		Sphere:  sphere,
		Prewarm: true,
		Sampler: DefaultSamplerParams(sphere, 0.7),
	})
	if err != nil {
		b.Fatal(err)
	}
	defer f.Close()

	params := DefaultSimulationParams()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.Advance(1.0/60.0, float64(i)/60.0, params); err != nil {
			b.Fatal(err)
		}
	}
}
