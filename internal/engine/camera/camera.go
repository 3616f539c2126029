// Package camera provides the orbit camera used by the model viewer.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Projection defaults for a unit-normalized model.
const (
	DefaultFOV  = 60 // degrees
	DefaultNear = 0.3
	DefaultFar  = 1000
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center mgl32.Vec3

	// Spherical coordinates
	Distance  float32
	RotationX float32 // pitch, radians
	RotationY float32 // yaw, radians

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32

	FOV       float32 // degrees
	Near, Far float32
}

// NewOrbitCamera creates a camera at (0, 0, 1.2) looking at the origin.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        1.2,
		MinDistance:     0.1,
		MaxDistance:     100,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		FOV:             DefaultFOV,
		Near:            DefaultNear,
		Far:             DefaultFar,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	pitch, yaw := float64(c.RotationX), float64(c.RotationY)
	offset := mgl32.Vec3{
		c.Distance * float32(gomath.Cos(pitch)*gomath.Sin(yaw)),
		c.Distance * float32(gomath.Sin(pitch)),
		c.Distance * float32(gomath.Cos(pitch)*gomath.Cos(yaw)),
	}
	return c.Center.Add(offset)
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Center, mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns the perspective projection for the given aspect ratio.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX += deltaY * c.DragSensitivity
	c.RotationX = mgl32.Clamp(c.RotationX, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = mgl32.Clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// Reset restores the default orientation and distance, keeping projection settings.
func (c *OrbitCamera) Reset() {
	d := NewOrbitCamera()
	c.Center = d.Center
	c.Distance = d.Distance
	c.RotationX = d.RotationX
	c.RotationY = d.RotationY
}

// FitToBounds centres the camera on the box and backs off far enough to
// see its largest extent.
func (c *OrbitCamera) FitToBounds(minV, maxV mgl32.Vec3) {
	c.Center = minV.Add(maxV).Mul(0.5)
	size := maxV.Sub(minV)
	largest := max(size[0], size[1], size[2])
	if largest <= 0 {
		return
	}
	c.Distance = mgl32.Clamp(largest*1.2, c.MinDistance, c.MaxDistance)
}
