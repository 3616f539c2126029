package animation

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/animodel/internal/engine/model"
)

// Pose is the result of evaluating one mesh at one tick.
type Pose struct {
	Mesh int

	// Matrices maps node names to InverseRoot*World, followed by the bone
	// offset for bones of Mesh. Duplicate names keep the last node visited.
	Matrices map[string]mgl32.Mat4

	// World holds the world transform of every node, by arena index.
	World []mgl32.Mat4
}

// BoneMatrices orders the skinning matrices by the bone names of mesh.
// Bones without a node get identity.
func (p *Pose) BoneMatrices(mesh *model.Mesh) []mgl32.Mat4 {
	out := make([]mgl32.Mat4, len(mesh.BoneNames))
	for i, name := range mesh.BoneNames {
		if m, ok := p.Matrices[name]; ok {
			out[i] = m
		} else {
			out[i] = mgl32.Ident4()
		}
	}
	return out
}
