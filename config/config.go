// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/bubbles/systems"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Sphere    SphereConfig    `yaml:"sphere"`
	Sampler   SamplerConfig   `yaml:"sampler"`
	Particles ParticlesConfig `yaml:"particles"`
	Motion    MotionConfig    `yaml:"motion"`
	Noise     NoiseConfig     `yaml:"noise"`
	Parallel  ParallelConfig  `yaml:"parallel"`
	Sim       SimConfig       `yaml:"sim"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the graphical mode.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`

	BubbleRadius float64 `yaml:"bubble_radius"` // Draw radius in world units
}

// SphereConfig holds the simulation domain.
type SphereConfig struct {
	Center [3]float64 `yaml:"center,flow"`
	Radius float64    `yaml:"radius"`
}

// SamplerConfig holds Poisson prewarm parameters.
type SamplerConfig struct {
	Prewarm      bool    `yaml:"prewarm"`
	MinDist      float64 `yaml:"min_dist"` // Minimum distance between starting positions
	K            int     `yaml:"k"`        // Candidate attempts per active point
	Seed         uint64  `yaml:"seed"`
	SeedAttempts int     `yaml:"seed_attempts"` // Bound on first-point rejection sampling
}

// ParticlesConfig holds the particle count.
type ParticlesConfig struct {
	Count int `yaml:"count"`
}

// MotionConfig holds per-frame motion parameters.
type MotionConfig struct {
	BaseUpSpeed              float64 `yaml:"base_up_speed"`
	HorizontalTurbulence     float64 `yaml:"horizontal_turbulence"`
	VerticalTurbulence       float64 `yaml:"vertical_turbulence"`
	NoiseFrequency           float64 `yaml:"noise_frequency"`
	BottomInsideFactor       float64 `yaml:"bottom_inside_factor"` // 0..1, reentry depth below center
	RandomizeHorizontalReset bool    `yaml:"randomize_horizontal_reset"`
	HorizontalResetRange     float64 `yaml:"horizontal_reset_range"`
}

// NoiseConfig selects the turbulence noise backend.
type NoiseConfig struct {
	Backend string `yaml:"backend"` // perlin or opensimplex
	Seed    int64  `yaml:"seed"`
}

// ParallelConfig holds worker pool settings for the update pass.
type ParallelConfig struct {
	Workers   int `yaml:"workers"`   // 0 = GOMAXPROCS
	Threshold int `yaml:"threshold"` // Minimum particle count to fan out
}

// SimConfig holds the fixed step used by headless runs.
type SimConfig struct {
	DT float64 `yaml:"dt"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow  int `yaml:"perf_window"`  // Ticks averaged by the perf collector
	LogInterval int `yaml:"log_interval"` // Ticks between stats log lines
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Sphere  systems.Sphere
	Params  systems.SimulationParams
	Sampler systems.SamplerParams
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Sphere = systems.Sphere{
		Center: systems.Point3{X: c.Sphere.Center[0], Y: c.Sphere.Center[1], Z: c.Sphere.Center[2]},
		Radius: c.Sphere.Radius,
	}
	c.Derived.Params = c.Motion.Params()
	c.Derived.Sampler = systems.SamplerParams{
		Sphere:       c.Derived.Sphere,
		MinDist:      c.Sampler.MinDist,
		K:            c.Sampler.K,
		Seed:         c.Sampler.Seed,
		SeedAttempts: c.Sampler.SeedAttempts,
	}
}

// Params converts the motion section to simulation params.
func (m MotionConfig) Params() systems.SimulationParams {
	return systems.SimulationParams{
		BaseUpSpeed:              m.BaseUpSpeed,
		HorizontalTurbulence:     m.HorizontalTurbulence,
		VerticalTurbulence:       m.VerticalTurbulence,
		NoiseFrequency:           m.NoiseFrequency,
		BottomInsideFactor:       m.BottomInsideFactor,
		RandomizeHorizontalReset: m.RandomizeHorizontalReset,
		HorizontalResetRange:     m.HorizontalResetRange,
	}
}

// SetParams writes simulation params back into the motion section.
func (m *MotionConfig) SetParams(p systems.SimulationParams) {
	m.BaseUpSpeed = p.BaseUpSpeed
	m.HorizontalTurbulence = p.HorizontalTurbulence
	m.VerticalTurbulence = p.VerticalTurbulence
	m.NoiseFrequency = p.NoiseFrequency
	m.BottomInsideFactor = p.BottomInsideFactor
	m.RandomizeHorizontalReset = p.RandomizeHorizontalReset
	m.HorizontalResetRange = p.HorizontalResetRange
}

// Validate checks the loaded values. Errors wrap systems.ErrInvalidParameter.
func (c *Config) Validate() error {
	if err := c.Derived.Sphere.Validate(); err != nil {
		return fmt.Errorf("sphere: %w", err)
	}
	if c.Particles.Count <= 0 {
		return fmt.Errorf("particles.count must be positive, got %d: %w", c.Particles.Count, systems.ErrInvalidParameter)
	}
	if c.Sampler.Prewarm {
		if err := c.Derived.Sampler.Validate(); err != nil {
			return fmt.Errorf("sampler: %w", err)
		}
	}
	if err := c.Derived.Params.Validate(); err != nil {
		return fmt.Errorf("motion: %w", err)
	}
	if c.Sim.DT < 0 {
		return fmt.Errorf("sim.dt must be non-negative, got %v: %w", c.Sim.DT, systems.ErrInvalidParameter)
	}
	return nil
}

// Recompute refreshes derived values after fields were changed in code.
func (c *Config) Recompute() error {
	c.computeDerived()
	return c.Validate()
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
