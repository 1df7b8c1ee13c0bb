package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/bubbles/config"
)

func init() {
	config.MustInit("")
}

func TestParamVector_NormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector(config.Cfg())
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-12 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestParamVector_ApplyToConfig(t *testing.T) {
	pv := NewParamVector(config.Cfg())
	cfg := *config.Cfg()

	// Out of range values are clamped, k is rounded
	if err := pv.ApplyToConfig(&cfg, []float64{-1, 12.6}); err != nil {
		t.Fatalf("ApplyToConfig: %v", err)
	}
	if cfg.Sampler.MinDist != pv.Specs[0].Min {
		t.Errorf("min_dist = %v, want clamped %v", cfg.Sampler.MinDist, pv.Specs[0].Min)
	}
	if cfg.Sampler.K != 13 {
		t.Errorf("k = %d, want 13", cfg.Sampler.K)
	}
	if cfg.Derived.Sampler.MinDist != cfg.Sampler.MinDist {
		t.Error("derived sampler not recomputed")
	}
}

func TestCountFitness(t *testing.T) {
	if countFitness(100, 100) != 0 {
		t.Error("exact match should score 0")
	}
	over := countFitness(110, 100)
	under := countFitness(90, 100)
	if under <= over {
		t.Errorf("shortfall %v should cost more than surplus %v", under, over)
	}
}

func TestEvaluate_PrefersCloserCount(t *testing.T) {
	cfg := config.Cfg()
	pv := NewParamVector(cfg)
	fe := NewFitnessEvaluator(pv, []uint64{1, 2}, cfg)

	guess := expectedMinDist(cfg.Sphere.Radius, cfg.Particles.Count)
	near := fe.Evaluate([]float64{guess, 30})
	if fe.LastStats().Count == 0 {
		t.Fatal("no samples recorded")
	}
	// Far too sparse: a handful of samples for hundreds of particles
	far := fe.Evaluate([]float64{pv.Specs[0].Max, 30})
	if near >= far {
		t.Errorf("estimate fitness %v not better than sparse %v", near, far)
	}
}
