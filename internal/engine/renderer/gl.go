package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/animodel/internal/engine/animation"
	"github.com/Faultbox/animodel/internal/engine/lighting"
	"github.com/Faultbox/animodel/internal/engine/model"
	"github.com/Faultbox/animodel/internal/engine/renderer/shaders"
	"github.com/Faultbox/animodel/internal/engine/shader"
	"github.com/Faultbox/animodel/internal/logger"
)

// Vertex attribute locations, matching skinned.vert.
const (
	attribPosition = iota
	attribNormal
	attribTexCoord
	attribBoneIDs
	attribWeights
	attribCount
)

// GLBackend renders with an OpenGL 3.3 core context.
type GLBackend struct {
	log *zap.Logger

	program uint32

	locModel      int32
	locView       int32
	locProjection int32
	locSkinned    int32
	locBones      int32
	locLightPos   int32
	locLightInt   int32
	locKa         int32
	locKd         int32
	locKs         int32
	locShininess  int32

	vao  uint32
	vbos [attribCount]uint32
	ebo  uint32

	uploaded *model.Model
	light    lighting.PointLight
}

// NewGL creates the GL backend. Must be called after the OpenGL context
// is created.
func NewGL() (*GLBackend, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	var major, minor int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	if !(Capabilities{GLMajor: int(major), GLMinor: int(minor)}).SupportsGL() {
		return nil, fmt.Errorf("%w: context is %d.%d", ErrUnsupportedGL, major, minor)
	}

	b := &GLBackend{
		log:   logger.Named("renderer.gl"),
		light: lighting.Default(),
	}
	b.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)

	program, err := shader.CompileProgram(shaders.SkinnedVertexShader, shaders.SkinnedFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("skinned shader: %w", err)
	}
	b.program = program

	b.locModel = shader.GetUniform(program, "uModel")
	b.locView = shader.GetUniform(program, "uView")
	b.locProjection = shader.GetUniform(program, "uProjection")
	b.locSkinned = shader.GetUniform(program, "uSkinned")
	b.locBones = shader.GetUniform(program, shader.ArrayElement("boneModelMatrix", 0))
	b.locLightPos = shader.GetUniform(program, "uLightPosition")
	b.locLightInt = shader.GetUniform(program, "uLightIntensity")
	b.locKa = shader.GetUniform(program, "uKa")
	b.locKd = shader.GetUniform(program, "uKd")
	b.locKs = shader.GetUniform(program, "uKs")
	b.locShininess = shader.GetUniform(program, "uShininess")

	return b, nil
}

// Upload copies the model's vertex and index buffers to the GPU.
func (b *GLBackend) Upload(m *model.Model) error {
	if m.VertexCount() == 0 || len(m.Indices) == 0 {
		return fmt.Errorf("upload: %w", model.ErrNoMeshes)
	}
	b.release()

	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)
	gl.GenBuffers(attribCount, &b.vbos[0])

	floatAttrib(b.vbos[attribPosition], attribPosition, 3, m.Positions)
	floatAttrib(b.vbos[attribNormal], attribNormal, 3, m.Normals)
	if len(m.UVs) > 0 {
		floatAttrib(b.vbos[attribTexCoord], attribTexCoord, int32(m.UVs[0].Components), m.UVs[0].Data)
	}
	if len(m.BoneIndices) > 0 {
		gl.BindBuffer(gl.ARRAY_BUFFER, b.vbos[attribBoneIDs])
		gl.BufferData(gl.ARRAY_BUFFER, len(m.BoneIndices)*4, gl.Ptr(m.BoneIndices), gl.STATIC_DRAW)
		gl.VertexAttribIPointer(attribBoneIDs, model.BonesPerVertex, gl.INT, 0, gl.PtrOffset(0))
		gl.EnableVertexAttribArray(attribBoneIDs)

		floatAttrib(b.vbos[attribWeights], attribWeights, model.BonesPerVertex, m.BoneWeights)
	}

	gl.GenBuffers(1, &b.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, gl.Ptr(m.Indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	for i := range m.Meshes {
		if n := len(m.Meshes[i].BoneNames); n > shaders.MaxBones {
			b.log.Warn("mesh has more bones than the shader supports",
				zap.String("mesh", m.Meshes[i].Name),
				zap.Int("bones", n),
				zap.Int("max", shaders.MaxBones),
			)
		}
	}

	b.uploaded = m
	b.log.Debug("model uploaded",
		zap.Uint32("vao", b.vao),
		zap.Int("vertices", m.VertexCount()),
		zap.Int("indices", len(m.Indices)),
	)
	return nil
}

func floatAttrib(vbo, loc uint32, size int32, data []float32) {
	if len(data) == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	gl.VertexAttribPointer(loc, size, gl.FLOAT, false, 0, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(loc)
}

// Draw renders every mesh of m with its pose.
func (b *GLBackend) Draw(m *model.Model, poses []*animation.Pose, cam Camera) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	if m == nil || m != b.uploaded {
		return
	}

	gl.UseProgram(b.program)
	gl.UniformMatrix4fv(b.locView, 1, false, &cam.View[0])
	gl.UniformMatrix4fv(b.locProjection, 1, false, &cam.Projection[0])
	radiance := b.light.Radiance()
	gl.Uniform3fv(b.locLightPos, 1, &b.light.Position[0])
	gl.Uniform3fv(b.locLightInt, 1, &radiance[0])

	gl.BindVertexArray(b.vao)
	for _, call := range PlanDraws(m, poses) {
		gl.UniformMatrix4fv(b.locModel, 1, false, &call.Model[0])

		bones := call.Bones
		if len(bones) > shaders.MaxBones {
			bones = bones[:shaders.MaxBones]
		}
		if len(bones) > 0 {
			gl.Uniform1i(b.locSkinned, 1)
			gl.UniformMatrix4fv(b.locBones, int32(len(bones)), false, &bones[0][0])
		} else {
			gl.Uniform1i(b.locSkinned, 0)
		}

		mat := call.Material
		gl.Uniform3fv(b.locKa, 1, &mat.Ambient[0])
		gl.Uniform3fv(b.locKd, 1, &mat.Diffuse[0])
		gl.Uniform3fv(b.locKs, 1, &mat.Specular[0])
		gl.Uniform1f(b.locShininess, mat.Shininess)

		gl.DrawElements(gl.TRIANGLES, int32(call.IndexCount), gl.UNSIGNED_INT, gl.PtrOffset(call.IndexOffset*4))
	}
	gl.BindVertexArray(0)
}

// ReadPixels reads the back buffer as bottom-up RGBA rows.
func (b *GLBackend) ReadPixels(width, height int) []byte {
	pixels := make([]byte, width*height*4)
	if len(pixels) == 0 {
		return pixels
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

// SetLight replaces the light used by subsequent draws.
func (b *GLBackend) SetLight(l lighting.PointLight) {
	b.light = l
}

// Resize handles window resize.
func (b *GLBackend) Resize(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
	b.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

func (b *GLBackend) release() {
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
		gl.DeleteBuffers(attribCount, &b.vbos[0])
		gl.DeleteBuffers(1, &b.ebo)
		b.vao, b.ebo = 0, 0
		b.vbos = [attribCount]uint32{}
	}
	b.uploaded = nil
}

// Close cleans up renderer resources.
func (b *GLBackend) Close() {
	b.log.Info("closing renderer")
	b.release()
	if b.program != 0 {
		gl.DeleteProgram(b.program)
		b.program = 0
	}
}
