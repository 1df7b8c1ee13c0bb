// Package game drives the bubble simulation: it owns the particle field,
// the ECS scene mirroring it, and the telemetry around each tick.
package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/bubbles/config"
	"github.com/pthm-cable/bubbles/systems"
	"github.com/pthm-cable/bubbles/telemetry"
)

// maxFrameDT caps the step taken after a long frame (window drag, breakpoint).
const maxFrameDT = 0.1

// Options configures a Game.
type Options struct {
	Seed          uint64 // Overrides sampler.seed when non-zero
	OutputDir     string // CSV and config snapshot directory, empty = disabled
	PositionsPath string // Initial positions CSV; takes precedence over prewarm
	LogStats      bool   // Log frame and perf stats on each telemetry window
}

// Game holds the complete simulation state.
type Game struct {
	cfg    config.Config
	field  *systems.ParticleField
	scene  *Scene
	params systems.SimulationParams

	// State
	tick   int64
	clock  float64
	paused bool

	// Telemetry
	perfCollector *telemetry.PerfCollector
	frames        *telemetry.FrameCollector
	outputManager *telemetry.OutputManager
	logStats      bool
}

// NewGameWithOptions builds the field and scene from the global config.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := *config.Cfg()
	if opts.Seed != 0 {
		cfg.Sampler.Seed = opts.Seed
		if err := cfg.Recompute(); err != nil {
			return nil, err
		}
	}

	noise, err := systems.NewNoiseField(cfg.Noise.Backend, cfg.Noise.Seed)
	if err != nil {
		return nil, fmt.Errorf("noise: %w", err)
	}

	fieldOpts := systems.FieldOptions{
		Count:             cfg.Particles.Count,
		Sphere:            cfg.Derived.Sphere,
		Noise:             noise,
		Workers:           cfg.Parallel.Workers,
		ParallelThreshold: cfg.Parallel.Threshold,
	}
	switch {
	case opts.PositionsPath != "":
		positions, err := telemetry.LoadPositions(opts.PositionsPath)
		if err != nil {
			return nil, err
		}
		fieldOpts.Positions = positions
	case cfg.Sampler.Prewarm:
		fieldOpts.Prewarm = true
		fieldOpts.Sampler = cfg.Derived.Sampler
	default:
		return nil, fmt.Errorf("sampler.prewarm is off and no positions file was given: %w", systems.ErrInvalidParameter)
	}

	field, err := systems.NewParticleField(fieldOpts)
	if err != nil {
		return nil, err
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		field.Close()
		return nil, err
	}

	g := &Game{
		cfg:           cfg,
		field:         field,
		scene:         NewScene(field.Positions()),
		params:        cfg.Derived.Params,
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		frames:        telemetry.NewFrameCollector(cfg.Telemetry.LogInterval),
		outputManager: om,
		logStats:      opts.LogStats,
	}
	g.perfCollector.SetWorkload(field.Len())

	if err := om.WriteConfig(&g.cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}
	if field.SampleCount() > 0 {
		g.reportSamples()
	}

	slog.Info("simulation ready",
		"particles", field.Len(),
		"prewarm", fieldOpts.Prewarm,
		"noise", cfg.Noise.Backend,
		"workers", cfg.Parallel.Workers,
	)
	return g, nil
}

// Tick returns the number of completed simulation steps.
func (g *Game) Tick() int64 {
	return g.tick
}

// Clock returns the simulated time in seconds.
func (g *Game) Clock() float64 {
	return g.clock
}

// Config returns the game's private copy of the configuration.
func (g *Game) Config() *config.Config {
	return &g.cfg
}

// Field returns the particle field.
func (g *Game) Field() *systems.ParticleField {
	return g.field
}

// Scene returns the ECS mirror of the field.
func (g *Game) Scene() *Scene {
	return g.scene
}

// Params returns the motion parameters used by the next step.
func (g *Game) Params() systems.SimulationParams {
	return g.params
}

// SetParams replaces the motion parameters. Invalid params are rejected
// and the current ones kept.
func (g *Game) SetParams(p systems.SimulationParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	g.params = p
	g.cfg.Motion.SetParams(p)
	g.cfg.Derived.Params = p
	return nil
}

// Paused reports whether Update skips simulation steps.
func (g *Game) Paused() bool {
	return g.paused
}

// TogglePause flips the paused state.
func (g *Game) TogglePause() {
	g.paused = !g.paused
}

// PerfStats returns the current performance window.
func (g *Game) PerfStats() telemetry.PerfStats {
	return g.perfCollector.Stats()
}

// Unload writes the final positions and releases the worker pool.
func (g *Game) Unload() {
	if err := g.outputManager.WriteSnapshot(g.field.Positions()); err != nil {
		slog.Error("failed to write final positions", "error", err)
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	g.field.Close()
}
