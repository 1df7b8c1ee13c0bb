package main

import (
	"math"

	"github.com/pthm-cable/bubbles/config"
)

// ParamSpec defines a single tunable sampler parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the tunable sampler parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the sampler parameters, bounded relative to the
// configured sphere radius.
func NewParamVector(cfg *config.Config) *ParamVector {
	r := cfg.Sphere.Radius
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "min_dist", Path: "sampler.min_dist", Min: 0.02 * r, Max: 0.8 * r, Default: cfg.Sampler.MinDist},
			{Name: "k", Path: "sampler.k", Min: 4, Max: 60, Default: float64(cfg.Sampler.K)},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = math.Max(spec.Min, math.Min(spec.Max, v[i]))
	}
	return clamped
}

// ApplyToConfig writes clamped values into the sampler section and
// refreshes derived values. Order must match Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	clamped := pv.Clamp(values)
	cfg.Sampler.MinDist = clamped[0]
	cfg.Sampler.K = int(math.Round(clamped[1]))
	cfg.Sampler.Prewarm = true
	return cfg.Recompute()
}
