package main

import (
	"math"
	"sync"

	"github.com/pthm-cable/bubbles/config"
	"github.com/pthm-cable/bubbles/systems"
	"github.com/pthm-cable/bubbles/telemetry"
)

// Penalties (lower fitness = better)
const (
	// shortfallWeight makes missing samples cost more than surplus ones,
	// since a shortfall means starting positions repeat.
	shortfallWeight = 10.0

	// failurePenalty is returned when a configuration cannot be sampled.
	failurePenalty = 1e6
)

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	stats   telemetry.SampleStats
}

// FitnessEvaluator scores sampler parameters by how closely the sample
// count matches the particle count.
type FitnessEvaluator struct {
	params     *ParamVector
	seeds      []uint64
	baseConfig *config.Config

	mu        sync.Mutex
	lastStats telemetry.SampleStats // Averaged over seeds
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, seeds []uint64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// LastStats returns sample stats from the most recent evaluation.
func (fe *FitnessEvaluator) LastStats() telemetry.SampleStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastStats
}

// Evaluate computes fitness for raw parameter values, averaged over seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := *fe.baseConfig
	if err := fe.params.ApplyToConfig(&cfg, x); err != nil {
		return failurePenalty
	}
	target := cfg.Particles.Count

	// Run all seeds in parallel
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s uint64) {
			defer wg.Done()
			sp := cfg.Derived.Sampler
			sp.Seed = s
			points, err := systems.GenerateWith(sp)
			if err != nil {
				results[idx] = seedResult{fitness: failurePenalty}
				return
			}
			results[idx] = seedResult{
				fitness: countFitness(len(points), target),
				stats:   telemetry.ComputeSampleStats(points, sp.Sphere),
			}
		}(i, seed)
	}
	wg.Wait()

	var total float64
	var avg telemetry.SampleStats
	for _, r := range results {
		total += r.fitness
		avg.Count += r.stats.Count
		avg.NearestMean += r.stats.NearestMean
		avg.MinPairDist += r.stats.MinPairDist
	}
	n := len(fe.seeds)
	avg.Count /= n
	avg.NearestMean /= float64(n)
	avg.MinPairDist /= float64(n)

	fe.mu.Lock()
	fe.lastStats = avg
	fe.mu.Unlock()

	return total / float64(n)
}

// countFitness is the relative count error, weighted up when samples
// fall short of target.
func countFitness(samples, target int) float64 {
	diff := float64(samples-target) / float64(target)
	if diff < 0 {
		return -diff * shortfallWeight
	}
	return diff
}

// expectedMinDist estimates the spacing that yields target samples in a
// sphere of radius r, assuming Bridson's typical packing density. Used as
// the starting point when the configured min_dist is far off.
func expectedMinDist(r float64, target int) float64 {
	// Bridson samples fill roughly one point per 1.4·minDist³ of volume
	volume := 4.0 / 3.0 * math.Pi * r * r * r
	return math.Cbrt(volume / (1.4 * float64(target)))
}
