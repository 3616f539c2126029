package formats

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// ShadingModel identifies the lighting model a material was authored for.
type ShadingModel int

const (
	ShadingUnknown ShadingModel = iota
	ShadingFlat
	ShadingGouraud
	ShadingPhong
	ShadingBlinn
	ShadingToon
	ShadingOrenNayar
	ShadingMinnaert
	ShadingCookTorrance
	ShadingUnlit
	ShadingFresnel
	ShadingPBR
)

var shadingNames = [...]string{
	ShadingUnknown:      "unknown",
	ShadingFlat:         "flat",
	ShadingGouraud:      "gouraud",
	ShadingPhong:        "phong",
	ShadingBlinn:        "blinn",
	ShadingToon:         "toon",
	ShadingOrenNayar:    "orennayar",
	ShadingMinnaert:     "minnaert",
	ShadingCookTorrance: "cooktorrance",
	ShadingUnlit:        "unlit",
	ShadingFresnel:      "fresnel",
	ShadingPBR:          "pbr",
}

func (s ShadingModel) String() string {
	if s >= 0 && int(s) < len(shadingNames) {
		return shadingNames[s]
	}
	return "unknown"
}

// ParseShadingModel maps a case-insensitive shading model name to its value.
func ParseShadingModel(name string) ShadingModel {
	for i, n := range shadingNames {
		if strings.EqualFold(n, name) {
			return ShadingModel(i)
		}
	}
	return ShadingUnknown
}

// Behaviour is the raw pre/post extrapolation tag of an animation channel.
// Values outside the named constants are passed through untouched.
type Behaviour int

const (
	BehaviourDefault Behaviour = iota
	BehaviourConstant
	BehaviourLinear
	BehaviourRepeat
)

// Scene is the raw, format-neutral description produced by a parser.
type Scene struct {
	Materials  []Material
	Meshes     []Mesh
	Root       *Node
	Animations []Animation

	// Warnings collects non-fatal conditions met while parsing.
	Warnings []string
}

// Material holds the shading parameters as read from the file.
type Material struct {
	Name      string
	Shading   ShadingModel
	Ambient   [3]float32
	Diffuse   [3]float32
	Specular  [3]float32
	Shininess float32
}

// UVChannel is one texture coordinate set. Only the first Components
// entries of each coordinate are meaningful.
type UVChannel struct {
	Components int
	Coords     [][3]float32
}

// Face is a polygon of mesh-local vertex indices.
type Face struct {
	Indices []uint32
}

// VertexWeight is a single bone influence on a mesh-local vertex.
type VertexWeight struct {
	VertexID uint32
	Weight   float32
}

// Bone binds a named node to mesh vertices.
type Bone struct {
	Name    string
	Offset  mgl32.Mat4
	Weights []VertexWeight
}

// Mesh is one raw mesh record.
type Mesh struct {
	Name          string
	Vertices      [][3]float32
	Normals       [][3]float32
	UVChannels    []UVChannel
	Tangents      [][3]float32
	Bitangents    [][3]float32
	Faces         []Face
	Bones         []Bone
	MaterialIndex int
}

// HasTangents reports whether the mesh carries a full tangent frame.
func (m *Mesh) HasTangents() bool {
	return len(m.Tangents) == len(m.Vertices) && len(m.Bitangents) == len(m.Vertices) && len(m.Vertices) > 0
}

// Node is one entry of the raw node hierarchy.
type Node struct {
	Name      string
	Transform mgl32.Mat4
	Meshes    []int
	Children  []*Node
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
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

// Channel animates a single node, referenced by name.
type Channel struct {
	NodeName     string
	PreState     Behaviour
	PostState    Behaviour
	PositionKeys []VectorKey
	RotationKeys []QuatKey
	ScalingKeys  []VectorKey
}

// Animation is a raw clip.
type Animation struct {
	Name           string
	Duration       float64
	TicksPerSecond float64
	Channels       []Channel
}
