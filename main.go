package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/bubbles/config"
	"github.com/pthm-cable/bubbles/game"
	"github.com/pthm-cable/bubbles/renderer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output frame and perf stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	positions := flag.String("positions", "", "CSV of starting positions (index,x,y,z); skips prewarm")
	seed := flag.Uint64("seed", 0, "Prewarm sampler seed (0 = use config)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	opts := game.Options{
		Seed:          *seed,
		OutputDir:     *outputDir,
		PositionsPath: *positions,
		LogStats:      *logStats,
	}

	var err error
	if *headless {
		err = runHeadless(opts, *maxTicks)
	} else {
		err = runGraphical(opts, *maxTicks)
	}
	if err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

// runHeadless steps at the configured fixed dt with no window.
func runHeadless(opts game.Options, maxTicks int64) error {
	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	slog.Info("starting headless simulation",
		"max_ticks", maxTicks,
		"dt", config.Cfg().Sim.DT,
	)

	for {
		if err := g.UpdateHeadless(); err != nil {
			return err
		}

		if maxTicks > 0 && g.Tick() >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick(), "sim_time", g.Clock())
			return nil
		}
	}
}

// runGraphical steps by frame time and draws the scene each frame.
func runGraphical(opts game.Options, maxTicks int64) error {
	cfg := config.Cfg()

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Bubbles")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	view := renderer.NewBubbleRenderer(cfg.Derived.Sphere, cfg.Screen.BubbleRadius)

	for !rl.WindowShouldClose() {
		view.HandleInput(g)
		if err := g.Update(float64(rl.GetFrameTime())); err != nil {
			return err
		}
		view.Draw(g)

		if maxTicks > 0 && g.Tick() >= maxTicks {
			break
		}
	}
	return nil
}
