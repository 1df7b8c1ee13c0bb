// Package main searches for Poisson prewarm parameters whose sample count
// covers the configured particle count, so starting positions never repeat.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/bubbles/config"
)

// EvalRecord is one row of tune_log.csv.
type EvalRecord struct {
	Eval        int     `csv:"eval"`
	Fitness     float64 `csv:"fitness"`
	MinDist     float64 `csv:"min_dist"`
	K           int     `csv:"k"`
	Samples     int     `csv:"samples"`
	NearestMean float64 `csv:"nearest_mean"`
	MinPairDist float64 `csv:"min_pair_dist"`
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	seeds := flag.Int("seeds", 3, "Number of sampler seeds per evaluation")
	maxEvals := flag.Int("max-evals", 100, "Maximum number of evaluations")
	fromConfig := flag.Bool("from-config", false, "Start from the configured min_dist instead of a density estimate")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if *seeds < 1 {
		log.Fatal("--seeds must be at least 1")
	}

	// Create output directory
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	// Load base config
	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()

	params := NewParamVector(baseCfg)

	evalSeeds := make([]uint64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = baseCfg.Sampler.Seed + uint64(i*1000)
	}

	evaluator := NewFitnessEvaluator(params, evalSeeds, baseCfg)

	start := params.DefaultVector()
	if !*fromConfig {
		start[0] = expectedMinDist(baseCfg.Sphere.Radius, baseCfg.Particles.Count)
	}
	initX := params.Normalize(params.Clamp(start))

	// Open log file
	logPath := filepath.Join(*outputDir, "tune_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	// Track evaluations and timing
	evalCount := 0
	bestFitness := failurePenalty
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			// Denormalize and clamp to get actual parameter values
			clamped := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(clamped)
			evalCount++

			if fitness < bestFitness || bestParams == nil {
				bestFitness = fitness
				bestParams = clamped
			}

			stats := evaluator.LastStats()
			record := []EvalRecord{{
				Eval:        evalCount,
				Fitness:     fitness,
				MinDist:     clamped[0],
				K:           int(clamped[1] + 0.5),
				Samples:     stats.Count,
				NearestMean: stats.NearestMean,
				MinPairDist: stats.MinPairDist,
			}}
			// First write includes headers
			if evalCount == 1 {
				err = gocsv.Marshal(record, logFile)
			} else {
				err = gocsv.MarshalWithoutHeaders(record, logFile)
			}
			if err != nil {
				log.Printf("failed to write log row: %v", err)
			}

			elapsed := time.Since(startTime)
			fmt.Printf("Eval %d/%d: min_dist=%.4f k=%d samples=%d target=%d (best=%.4f) | elapsed: %s\n",
				evalCount, *maxEvals, clamped[0], record[0].K, stats.Count, baseCfg.Particles.Count,
				bestFitness, formatDuration(elapsed))

			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Sequential evaluation; seeds run in parallel
	}
	method := &optimize.NelderMead{
		SimplexSize: 0.05,
	}

	fmt.Printf("Tuning %d parameters for %d particles, max_evals=%d, seeds=%d\n",
		params.Dim(), baseCfg.Particles.Count, *maxEvals, *seeds)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	// Use best params found (may be from any evaluation, not just final)
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		log.Fatal("no evaluations completed")
	}

	fmt.Printf("\nTuning complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best fitness: %.4f\n", bestFitness)

	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Path, bestParams[i])
	}

	// Save best config
	bestCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to reload config: %v", err)
	}
	if err := params.ApplyToConfig(bestCfg, bestParams); err != nil {
		log.Fatalf("best parameters are invalid: %v", err)
	}

	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}
