package game

import (
	"log/slog"

	"github.com/pthm-cable/bubbles/telemetry"
)

// flushTelemetry writes a frame window once enough ticks have been recorded.
func (g *Game) flushTelemetry() {
	if !g.frames.ShouldFlush() {
		return
	}

	stats := g.frames.Flush(g.tick, g.clock, g.field.Positions(), g.field.Sphere())
	perfStats := g.perfCollector.Stats()

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteFrames(stats); err != nil {
			slog.Error("failed to write frames", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEnd); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// reportSamples logs spacing stats of the prewarm sample set.
func (g *Game) reportSamples() {
	n := g.field.SampleCount()
	if n < g.field.Len() {
		slog.Warn("fewer samples than particles, starting positions repeat",
			"samples", n,
			"particles", g.field.Len(),
		)
	} else {
		n = g.field.Len()
	}

	// The first n positions are distinct samples
	points := g.field.CopyPositions(nil)[:n]
	stats := telemetry.ComputeSampleStats(points, g.field.Sphere())
	slog.Info("prewarm", "samples", stats)

	if err := g.outputManager.WriteSamples(points, stats); err != nil {
		slog.Error("failed to write samples", "error", err)
	}
}
