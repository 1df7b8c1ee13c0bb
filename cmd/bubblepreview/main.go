// Bubble motion preview tool - live simulation with parameter sliders.
//
// Usage: go run ./cmd/bubblepreview [-config path]
package main

import (
	"flag"
	"fmt"
	"log"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/bubbles/config"
	"github.com/pthm-cable/bubbles/game"
	"github.com/pthm-cable/bubbles/renderer"
	"github.com/pthm-cable/bubbles/systems"
)

const (
	windowWidth  = 1200
	windowHeight = 760
	panelWidth   = 330
)

// slider is one float parameter bound to a SliderBar.
type slider struct {
	label    string
	value    *float64
	min, max float32
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Cfg()

	rl.InitWindow(windowWidth, windowHeight, "Bubble Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	g, err := game.NewGameWithOptions(game.Options{})
	if err != nil {
		log.Fatalf("failed to start simulation: %v", err)
	}
	defer func() { g.Unload() }()

	view := renderer.NewBubbleRenderer(cfg.Derived.Sphere, cfg.Screen.BubbleRadius)
	params := g.Params()
	resetRange := float32(2 * cfg.Sphere.Radius)

	sliders := []slider{
		{"Base up speed", &params.BaseUpSpeed, 0, 5},
		{"Horizontal turbulence", &params.HorizontalTurbulence, 0, 2},
		{"Vertical turbulence", &params.VerticalTurbulence, 0, 2},
		{"Noise frequency", &params.NoiseFrequency, 0, 3},
		{"Bottom inside factor", &params.BottomInsideFactor, 0, 1},
		{"Horizontal reset range", &params.HorizontalResetRange, 0, resetRange},
	}

	for !rl.WindowShouldClose() {
		// Leave the mouse to the widgets while over the panel
		if rl.GetMousePosition().X < windowWidth-panelWidth-10 {
			view.HandleInput(g)
		}
		if err := g.Update(float64(rl.GetFrameTime())); err != nil {
			log.Printf("update failed: %v", err)
		}

		rl.BeginDrawing()
		view.DrawScene(g)

		// Control panel
		panelX := float32(windowWidth - panelWidth)
		panelY := float32(10)
		rl.DrawRectangle(int32(panelX)-10, 0, panelWidth+10, windowHeight, rl.Color{R: 24, G: 28, B: 36, A: 230})

		rl.DrawText("Motion Parameters", int32(panelX), int32(panelY), 20, rl.LightGray)
		panelY += 35

		for _, s := range sliders {
			rl.DrawText(s.label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			v := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: panelWidth - 90, Height: 20},
				"", "",
				float32(*s.value), s.min, s.max,
			)
			*s.value = float64(v)
			rl.DrawText(fmt.Sprintf("%.3f", *s.value), int32(panelX+panelWidth-80), int32(panelY+2), 16, rl.LightGray)
			panelY += 35
		}

		params.RandomizeHorizontalReset = gui.CheckBox(
			rl.Rectangle{X: panelX, Y: panelY, Width: 20, Height: 20},
			"Randomize horizontal reset",
			params.RandomizeHorizontalReset,
		)
		panelY += 40

		if err := g.SetParams(params); err != nil {
			// Sliders stay within valid ranges; keep the last good params
			params = g.Params()
		}

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 140, Height: 30}, toggleText(g.Paused(), "Resume", "Pause")) {
			g.TogglePause()
		}
		if gui.Button(rl.Rectangle{X: panelX + 150, Y: panelY, Width: 140, Height: 30}, "Restart") {
			g.Unload()
			if g, err = game.NewGameWithOptions(game.Options{}); err != nil {
				log.Fatalf("failed to restart simulation: %v", err)
			}
			if err := g.SetParams(params); err != nil {
				params = g.Params()
			}
		}
		panelY += 40

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 140, Height: 30}, "Reset Params") {
			params = systems.DefaultSimulationParams()
		}
		panelY += 55

		// Output YAML
		text := motionYAML(g)
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.LightGray)
		panelY += 25
		rl.DrawText(text, int32(panelX), int32(panelY), 14, rl.Gray)

		// Instructions
		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), windowHeight-30, 12, rl.DarkGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(text)
		}

		rl.EndDrawing()
	}
}

// motionYAML renders the live motion section as a config snippet.
func motionYAML(g *game.Game) string {
	out, err := yaml.Marshal(struct {
		Motion config.MotionConfig `yaml:"motion"`
	}{g.Config().Motion})
	if err != nil {
		return err.Error()
	}
	return string(out)
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
