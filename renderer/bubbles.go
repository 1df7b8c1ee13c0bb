// Package renderer draws the bubble scene with raylib.
package renderer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/bubbles/camera"
	"github.com/pthm-cable/bubbles/components"
	"github.com/pthm-cable/bubbles/game"
	"github.com/pthm-cable/bubbles/systems"
	"github.com/pthm-cable/bubbles/telemetry"
)

const fovy = 45

// Bubble tint at the bottom and top of the sphere
var (
	deepColor    = rl.Color{R: 40, G: 110, B: 200, A: 255}
	surfaceColor = rl.Color{R: 210, G: 240, B: 255, A: 255}
	boundsColor  = rl.Color{R: 80, G: 90, B: 110, A: 120}
	background   = rl.Color{R: 12, G: 16, B: 24, A: 255}
)

// BubbleRenderer draws the scene from an orbit camera.
type BubbleRenderer struct {
	cam    *camera.Camera
	sphere systems.Sphere
	radius float32 // Bubble draw radius
}

// NewBubbleRenderer creates a renderer framing sphere.
func NewBubbleRenderer(sphere systems.Sphere, bubbleRadius float64) *BubbleRenderer {
	c := sphere.Center
	dist := camera.FitSphere(float32(sphere.Radius), fovy)
	return &BubbleRenderer{
		cam:    camera.New(float32(c.X), float32(c.Y), float32(c.Z), dist),
		sphere: sphere,
		radius: float32(bubbleRadius),
	}
}

// Camera returns the orbit camera for input handling.
func (r *BubbleRenderer) Camera() *camera.Camera {
	return r.cam
}

func (r *BubbleRenderer) camera3D() rl.Camera3D {
	x, y, z := r.cam.Position()
	return rl.Camera3D{
		Position:   rl.NewVector3(x, y, z),
		Target:     rl.NewVector3(r.cam.TargetX, r.cam.TargetY, r.cam.TargetZ),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       fovy,
		Projection: rl.CameraPerspective,
	}
}

// Draw renders one frame of g.
func (r *BubbleRenderer) Draw(g *game.Game) {
	rl.BeginDrawing()
	r.DrawScene(g)
	rl.EndDrawing()
}

// DrawScene draws the sphere, bubbles and HUD inside an open drawing
// frame, so callers can overlay their own widgets.
func (r *BubbleRenderer) DrawScene(g *game.Game) {
	rl.ClearBackground(background)

	rl.BeginMode3D(r.camera3D())
	center := rl.NewVector3(float32(r.sphere.Center.X), float32(r.sphere.Center.Y), float32(r.sphere.Center.Z))
	rl.DrawSphereWires(center, float32(r.sphere.Radius), 16, 16, boundsColor)

	bottom := float32(r.sphere.Center.Y - r.sphere.Radius)
	span := float32(2 * r.sphere.Radius)
	g.Scene().Each(func(_ int, pos components.Position) {
		color := lerpColor(deepColor, surfaceColor, (pos.Y-bottom)/span)
		rl.DrawSphereEx(rl.NewVector3(pos.X, pos.Y, pos.Z), r.radius, 6, 8, color)
	})
	rl.EndMode3D()

	r.drawHUD(g)
}

func (r *BubbleRenderer) drawHUD(g *game.Game) {
	rl.DrawFPS(10, 10)
	rl.DrawText(fmt.Sprintf("Tick: %d  Time: %.1fs  Bubbles: %d", g.Tick(), g.Clock(), g.Scene().Len()), 10, 32, 18, rl.LightGray)

	perf := g.PerfStats()
	rl.DrawText(fmt.Sprintf("Advance: %.1fus  %.0f particles/s", float64(perf.PhaseAvg[telemetry.PhaseAdvance].Nanoseconds())/1000, perf.ParticlesPerSecond), 10, 54, 18, rl.Gray)

	if g.Paused() {
		rl.DrawText("PAUSED", 10, 76, 20, rl.Yellow)
	}
	rl.DrawText("Drag: orbit  Wheel: zoom  Space: pause", 10, int32(rl.GetScreenHeight())-26, 16, rl.DarkGray)
}

// lerpColor blends a toward b by t in [0, 1].
func lerpColor(a, b rl.Color, t float32) rl.Color {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	mix := func(x, y uint8) uint8 {
		return uint8(float32(x) + (float32(y)-float32(x))*t)
	}
	return rl.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
