// Package camera provides an orbit camera for viewing the bubble sphere.
package camera

import "math"

// maxPitch keeps the camera off the poles where the up vector degenerates.
const maxPitch = math.Pi/2 - 0.01

// Camera orbits a target point at a fixed distance.
// Yaw rotates around the vertical axis, pitch tilts above or below the
// horizon.
type Camera struct {
	// Target is the orbit center in world coordinates
	TargetX, TargetY, TargetZ float32

	// Yaw and Pitch in radians
	Yaw, Pitch float32

	// Distance from target
	Distance float32

	// Distance constraints
	MinDistance, MaxDistance float32
}

// New creates a camera looking at (x, y, z) from distance, slightly
// above the horizon.
func New(x, y, z, distance float32) *Camera {
	return &Camera{
		TargetX:     x,
		TargetY:     y,
		TargetZ:     z,
		Yaw:         math.Pi / 4,
		Pitch:       0.35,
		Distance:    distance,
		MinDistance: distance * 0.25,
		MaxDistance: distance * 4,
	}
}

// FitSphere returns a camera distance at which a sphere of radius fills
// a vertical field of view of fovyDeg degrees.
func FitSphere(radius, fovyDeg float32) float32 {
	half := float64(fovyDeg) * math.Pi / 360
	return float32(float64(radius)/math.Sin(half)) * 1.1
}

// Position returns the camera position in world coordinates.
func (c *Camera) Position() (x, y, z float32) {
	yaw, pitch := float64(c.Yaw), float64(c.Pitch)
	d := float64(c.Distance)
	x = c.TargetX + float32(d*math.Cos(pitch)*math.Sin(yaw))
	y = c.TargetY + float32(d*math.Sin(pitch))
	z = c.TargetZ + float32(d*math.Cos(pitch)*math.Cos(yaw))
	return x, y, z
}

// Rotate orbits by the given yaw and pitch deltas in radians.
// Pitch is clamped short of the poles; yaw wraps to [-pi, pi].
func (c *Camera) Rotate(dyaw, dpitch float32) {
	c.Yaw = normalizeAngle(c.Yaw + dyaw)
	c.Pitch += dpitch
	if c.Pitch > maxPitch {
		c.Pitch = maxPitch
	}
	if c.Pitch < -maxPitch {
		c.Pitch = -maxPitch
	}
}

// Zoom scales the distance by factor (factor > 1 moves closer).
func (c *Camera) Zoom(factor float32) {
	if factor <= 0 {
		return
	}
	c.Distance /= factor
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}

// normalizeAngle wraps angle to [-pi, pi].
func normalizeAngle(a float32) float32 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
