// Package renderer draws animated models. A Backend is either the OpenGL
// backend or the headless recorder, picked from the host's capabilities.
package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/animodel/internal/engine/animation"
	"github.com/Faultbox/animodel/internal/engine/camera"
	"github.com/Faultbox/animodel/internal/engine/lighting"
	"github.com/Faultbox/animodel/internal/engine/model"
)

// Minimum OpenGL version of the GL backend.
const (
	MinGLMajor = 3
	MinGLMinor = 3
)

var (
	ErrUnsupportedGL = errors.New("unsupported OpenGL version")
	ErrNotUploaded   = errors.New("model not uploaded")
)

// Capabilities describe what the host can render with.
type Capabilities struct {
	Headless bool
	GLMajor  int
	GLMinor  int
}

// SupportsGL reports whether the GL backend can run.
func (c Capabilities) SupportsGL() bool {
	return c.GLMajor > MinGLMajor || (c.GLMajor == MinGLMajor && c.GLMinor >= MinGLMinor)
}

// Backend draws one model.
type Backend interface {
	// Upload prepares the model's buffers. It replaces any previous model.
	Upload(m *model.Model) error
	// Draw renders one frame. poses holds one pose per mesh, as returned
	// by animation.Animator.Frame.
	Draw(m *model.Model, poses []*animation.Pose, cam Camera)
	SetLight(l lighting.PointLight)
	Resize(width, height int)
	Close()
}

// PixelReader is implemented by backends that can read back the frame.
type PixelReader interface {
	// ReadPixels returns the framebuffer as bottom-up RGBA rows.
	ReadPixels(width, height int) []byte
}

// New returns the backend matching caps. The GL backend needs a current
// OpenGL context.
func New(caps Capabilities) (Backend, error) {
	switch {
	case caps.Headless:
		return NewHeadless(), nil
	case caps.SupportsGL():
		return NewGL()
	default:
		return nil, fmt.Errorf("%w: %d.%d, need %d.%d core", ErrUnsupportedGL,
			caps.GLMajor, caps.GLMinor, MinGLMajor, MinGLMinor)
	}
}

// Camera holds the view and projection a frame is drawn with.
type Camera struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Eye        mgl32.Vec3
}

// FromOrbit snapshots an orbit camera.
func FromOrbit(c *camera.OrbitCamera, aspect float32) Camera {
	return Camera{
		View:       c.ViewMatrix(),
		Projection: c.ProjectionMatrix(aspect),
		Eye:        c.Position(),
	}
}

// DefaultCamera looks at the origin from (0, 0, 1.2) with a 60 degree field of view.
func DefaultCamera(aspect float32) Camera {
	return FromOrbit(camera.NewOrbitCamera(), aspect)
}

// BuiltinMaterial is drawn in place of the default material.
func BuiltinMaterial() model.Material {
	return model.Material{
		Name:      model.DefaultMaterialName,
		Ambient:   mgl32.Vec3{0.1, 0.05, 0},
		Diffuse:   mgl32.Vec3{0.9, 0.6, 0.2},
		Specular:  mgl32.Vec3{0.2, 0.2, 0.2},
		Shininess: 50,
	}
}

// DrawCall is one indexed draw of a mesh window.
type DrawCall struct {
	Mesh int
	Node int

	IndexOffset int
	IndexCount  int

	// Model is the root transform for skinned meshes and the owning
	// node's world transform otherwise.
	Model mgl32.Mat4
	// Bones is nil for meshes without bones.
	Bones []mgl32.Mat4

	Material model.Material
}

// PlanDraws lists the draw calls of one frame in node order. Skinned
// meshes are drawn once, since their bones position them; other meshes
// are drawn for every node that references them. Meshes without a pose
// are skipped.
func PlanDraws(m *model.Model, poses []*animation.Pose) []DrawCall {
	var calls []DrawCall
	drawn := make([]bool, len(m.Meshes))

	for ni := range m.Nodes {
		for _, mi := range m.Nodes[ni].Meshes {
			if mi < 0 || mi >= len(m.Meshes) || mi >= len(poses) || poses[mi] == nil {
				continue
			}
			mesh := &m.Meshes[mi]
			pose := poses[mi]

			call := DrawCall{
				Mesh:        mi,
				Node:        ni,
				IndexOffset: mesh.IndexOffset,
				IndexCount:  mesh.IndexCount,
				Material:    materialOf(m, mesh),
			}
			if mesh.Skinned() {
				if drawn[mi] {
					continue
				}
				call.Model = m.Nodes[m.Root].Transform
				call.Bones = pose.BoneMatrices(mesh)
			} else {
				call.Model = pose.World[ni]
			}
			drawn[mi] = true
			calls = append(calls, call)
		}
	}
	return calls
}

func materialOf(m *model.Model, mesh *model.Mesh) model.Material {
	if mesh.Material < 0 || mesh.Material >= len(m.Materials) {
		return BuiltinMaterial()
	}
	mat := m.Materials[mesh.Material]
	if mat.IsDefault() {
		return BuiltinMaterial()
	}
	return mat
}
