package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/bubbles/game"
)

// orbitSpeed is radians per pixel of mouse drag.
const orbitSpeed = 0.005

// HandleInput processes pause and camera controls.
func (r *BubbleRenderer) HandleInput(g *game.Game) {
	if rl.IsKeyPressed(rl.KeySpace) {
		g.TogglePause()
	}

	// Orbit with left drag, keyboard arrows as fallback
	if rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		delta := rl.GetMouseDelta()
		r.cam.Rotate(-delta.X*orbitSpeed, delta.Y*orbitSpeed)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		r.cam.Rotate(-0.03, 0)
	}
	if rl.IsKeyDown(rl.KeyRight) {
		r.cam.Rotate(0.03, 0)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		r.cam.Rotate(0, 0.03)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		r.cam.Rotate(0, -0.03)
	}

	// Zoom controls: mouse wheel or +/- keys
	if wheelMove := rl.GetMouseWheelMove(); wheelMove != 0 {
		r.cam.Zoom(1 + wheelMove*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		r.cam.Zoom(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		r.cam.Zoom(0.8)
	}
}
