package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/bubbles/systems"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Sphere.Radius != 5 {
		t.Errorf("expected radius 5, got %v", cfg.Sphere.Radius)
	}
	if cfg.Sampler.K != 30 || cfg.Sampler.Seed != 1234 {
		t.Errorf("expected k=30 seed=1234, got k=%d seed=%d", cfg.Sampler.K, cfg.Sampler.Seed)
	}
	if cfg.Derived.Params != systems.DefaultSimulationParams() {
		t.Errorf("expected default motion params, got %+v", cfg.Derived.Params)
	}
	if cfg.Derived.Sampler.Sphere != cfg.Derived.Sphere {
		t.Error("expected sampler sphere to match domain sphere")
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("sphere:\n  center: [1, 2, 3]\n  radius: 8\nmotion:\n  base_up_speed: 2.5\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := systems.Point3{X: 1, Y: 2, Z: 3}
	if cfg.Derived.Sphere.Center != want || cfg.Derived.Sphere.Radius != 8 {
		t.Errorf("expected sphere %v r=8, got %+v", want, cfg.Derived.Sphere)
	}
	if cfg.Derived.Params.BaseUpSpeed != 2.5 {
		t.Errorf("expected base_up_speed 2.5, got %v", cfg.Derived.Params.BaseUpSpeed)
	}
	// Untouched fields keep defaults
	if cfg.Motion.NoiseFrequency != 0.5 {
		t.Errorf("expected default noise_frequency 0.5, got %v", cfg.Motion.NoiseFrequency)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"zero radius", "sphere:\n  radius: 0\n"},
		{"zero count", "particles:\n  count: 0\n"},
		{"zero min dist", "sampler:\n  min_dist: 0\n"},
		{"bottom factor", "motion:\n  bottom_inside_factor: 2\n"},
	}

	for _, tc := range testCases {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(tc.yaml), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); !errors.Is(err, systems.ErrInvalidParameter) {
			t.Errorf("%s: expected ErrInvalidParameter, got %v", tc.name, err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Sampler.MinDist = 0.75
	cfg.Motion.HorizontalTurbulence = 0.6
	if err := cfg.Recompute(); err != nil {
		t.Fatalf("Recompute: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Derived.Sampler.MinDist != 0.75 {
		t.Errorf("expected min_dist 0.75, got %v", loaded.Derived.Sampler.MinDist)
	}
	if loaded.Derived.Params != cfg.Derived.Params {
		t.Errorf("expected params %+v, got %+v", cfg.Derived.Params, loaded.Derived.Params)
	}
}

func TestSetParams(t *testing.T) {
	var m MotionConfig
	p := systems.DefaultSimulationParams()
	p.VerticalTurbulence = 0.42
	m.SetParams(p)
	if m.Params() != p {
		t.Errorf("expected %+v, got %+v", p, m.Params())
	}
}
