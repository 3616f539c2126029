// Package model converts raw parsed scenes into flat, renderer-agnostic
// buffers, a node arena and keyframe tracks.
package model

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// Load failures. All of them abort the load.
var (
	ErrFileNotFound = errors.New("model file not found")
	ErrParseFailure = errors.New("model parse failure")
	ErrNoMeshes     = errors.New("model has no meshes")
	ErrNoRootNode   = errors.New("model has no root node")
)

// BonesPerVertex is the fixed number of influence slots per vertex.
const BonesPerVertex = 4

// NoBone marks an empty influence slot.
const NoBone int32 = -1

// NoTrack marks a node that is not animated by a clip.
const NoTrack = -1

// UVBuffer is one texture coordinate channel, Components floats per vertex.
type UVBuffer struct {
	Components int
	Data       []float32
}

// Buffers are the model-wide vertex attribute and index streams. Every
// non-empty per-vertex buffer covers all vertices.
type Buffers struct {
	Positions  []float32 // xyz
	Normals    []float32 // xyz
	Tangents   []float32 // xyz
	Bitangents []float32 // xyz
	UVs        []UVBuffer
	Indices    []uint32

	// BonesPerVertex slots per vertex; empty when no mesh is skinned.
	BoneIndices []int32
	BoneWeights []float32
}

// VertexCount returns the number of vertices stored.
func (b *Buffers) VertexCount() int {
	return len(b.Positions) / 3
}

// Position returns the position of global vertex i.
func (b *Buffers) Position(i int) mgl32.Vec3 {
	return mgl32.Vec3{b.Positions[i*3], b.Positions[i*3+1], b.Positions[i*3+2]}
}

// Influences returns the bone slots of global vertex i.
func (b *Buffers) Influences(i int) (indices []int32, weights []float32) {
	if len(b.BoneIndices) < (i+1)*BonesPerVertex {
		return nil, nil
	}
	s := i * BonesPerVertex
	return b.BoneIndices[s : s+BonesPerVertex], b.BoneWeights[s : s+BonesPerVertex]
}

// Mesh is a window into the shared index buffer.
type Mesh struct {
	Name string

	IndexOffset  int
	IndexCount   int
	VertexOffset int
	VertexCount  int

	Material int

	// BoneNames and BoneOffsets are parallel. Bone slot values index BoneNames.
	BoneNames   []string
	BoneOffsets []mgl32.Mat4
}

// Triangles returns the number of triangles the mesh draws.
func (m *Mesh) Triangles() int {
	return m.IndexCount / 3
}

// Skinned reports whether the mesh is bound to any bone.
func (m *Mesh) Skinned() bool {
	return len(m.BoneNames) > 0
}

// Material holds resolved shading parameters.
type Material struct {
	Name      string
	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3
	Shininess float32
}

// IsDefault reports whether m is the unsupported-shading fallback.
func (m *Material) IsDefault() bool {
	return m.Name == DefaultMaterialName
}

// Node is one entry of the node arena. Parent is -1 for the root.
type Node struct {
	Name      string
	Transform mgl32.Mat4
	Parent    int
	Children  []int
	Meshes    []int

	// Tracks has one slot per clip holding an index into Model.Tracks or NoTrack.
	Tracks []int
}

// Clip is one animation.
type Clip struct {
	Name           string
	Duration       float64
	TicksPerSecond float64
}

// Extrapolation is the decoded pre/post behaviour of a track.
type Extrapolation int

const (
	ExtrapolationInvalid Extrapolation = iota
	ExtrapolationDefault
	ExtrapolationConstant
	ExtrapolationLinear
	ExtrapolationRepeat
)

func (e Extrapolation) String() string {
	switch e {
	case ExtrapolationDefault:
		return "default"
	case ExtrapolationConstant:
		return "constant"
	case ExtrapolationLinear:
		return "linear"
	case ExtrapolationRepeat:
		return "repeat"
	}
	return "invalid"
}

// VectorKey is a timed position or scale sample.
type VectorKey struct {
	Time  float64
	Value mgl32.Vec3
}

// QuatKey is a timed rotation sample.
type QuatKey struct {
	Time  float64
	Value mgl32.Quat
}

// Track is the immutable keyframe data of one node in one clip. Keys keep
// source order and are assumed to be sorted by time.
type Track struct {
	Clip      int
	Node      string
	Pre, Post Extrapolation
	Positions []VectorKey
	Rotations []QuatKey
	Scales    []VectorKey
}

// Valid reports whether the track can drive a node.
func (t *Track) Valid() bool {
	if t.Pre == ExtrapolationInvalid || t.Post == ExtrapolationInvalid {
		return false
	}
	return len(t.Positions) > 0 || len(t.Rotations) > 0 || len(t.Scales) > 0
}

// Stage names the load step that produced a diagnostic.
type Stage string

const (
	StageParse     Stage = "parse"
	StageGeometry  Stage = "geometry"
	StageBones     Stage = "bones"
	StageMaterial  Stage = "material"
	StageGraph     Stage = "graph"
	StageTracks    Stage = "tracks"
	StageNormalize Stage = "normalize"
)

// Diagnostic is a non-fatal condition recovered from during load.
type Diagnostic struct {
	Stage   Stage
	Subject string
	Message string
}

func (d Diagnostic) String() string {
	if d.Subject == "" {
		return string(d.Stage) + ": " + d.Message
	}
	return string(d.Stage) + ": " + d.Subject + ": " + d.Message
}

// Model is the immutable result of a load. Playback state lives elsewhere,
// so one Model may back any number of animated instances.
type Model struct {
	Buffers

	Meshes    []Mesh
	Materials []Material
	Nodes     []Node
	Root      int
	Clips     []Clip
	Tracks    []Track

	// InverseRoot is the inverse of the root transform after normalization.
	InverseRoot mgl32.Mat4

	Diagnostics []Diagnostic

	byName map[string][]int
}

// NodesNamed returns the arena indices of every node called name.
func (m *Model) NodesNamed(name string) []int {
	return m.byName[name]
}

// RootNode returns the root of the node arena.
func (m *Model) RootNode() *Node {
	return &m.Nodes[m.Root]
}

// Stats summarises a model.
type Stats struct {
	Vertices    int
	Triangles   int
	Meshes      int
	Materials   int
	Nodes       int
	Clips       int
	Tracks      int
	Bones       int
	Diagnostics int
}

// Stats returns counts of the model contents.
func (m *Model) Stats() Stats {
	s := Stats{
		Vertices:    m.VertexCount(),
		Triangles:   len(m.Indices) / 3,
		Meshes:      len(m.Meshes),
		Materials:   len(m.Materials),
		Nodes:       len(m.Nodes),
		Clips:       len(m.Clips),
		Tracks:      len(m.Tracks),
		Diagnostics: len(m.Diagnostics),
	}
	for i := range m.Meshes {
		s.Bones += len(m.Meshes[i].BoneNames)
	}
	return s
}

func (m *Model) indexNames() {
	m.byName = make(map[string][]int, len(m.Nodes))
	for i := range m.Nodes {
		m.byName[m.Nodes[i].Name] = append(m.byName[m.Nodes[i].Name], i)
	}
}
