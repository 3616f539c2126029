// Package lighting describes the light models are shaded with.
package lighting

import "github.com/go-gl/mathgl/mgl32"

// PointLight is a point light given in eye space.
type PointLight struct {
	Position  mgl32.Vec3
	Color     mgl32.Vec3 // RGB, 0-1
	Intensity float32
}

// Default returns a white light at (2, -2, 3) with intensity 1.
func Default() PointLight {
	return PointLight{
		Position:  mgl32.Vec3{2, -2, 3},
		Color:     mgl32.Vec3{1, 1, 1},
		Intensity: 1,
	}
}

// New creates a white light.
func New(position [3]float32, intensity float32) PointLight {
	l := Default()
	l.Position = position
	l.Intensity = intensity
	return l
}

// Radiance returns the colour clamped to 0-1 and scaled by the intensity.
// Negative intensities count as zero.
func (l PointLight) Radiance() mgl32.Vec3 {
	c := l.Color
	for i := range c {
		c[i] = mgl32.Clamp(c[i], 0, 1)
	}
	return c.Mul(max(l.Intensity, 0))
}
