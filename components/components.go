// Package components defines ECS components for the bubble scene.
package components

// Position is a bubble's world position as published after each frame.
// Stored as float32 for the renderer.
type Position struct {
	X, Y, Z float32
}

// Bubble links an entity to its slot in the particle field.
type Bubble struct {
	Index int
}
