package model

import (
	"github.com/Faultbox/animodel/pkg/formats"
)

// addBones fills the influence slots of the vertices of mesh. Each weight
// takes the first empty slot of its vertex; assigned slots are never
// overwritten and influences beyond the fourth are dropped.
func (b *builder) addBones(mesh *Mesh, src *formats.Mesh) {
	if len(src.Bones) == 0 {
		return
	}
	m := b.m
	b.skinned = true

	end := (mesh.VertexOffset + mesh.VertexCount) * BonesPerVertex
	m.BoneIndices = padBones(m.BoneIndices, end)
	m.BoneWeights = pad(m.BoneWeights, end, 0)

	var dropped, outOfRange int
	for bi := range src.Bones {
		bone := &src.Bones[bi]
		mesh.BoneNames = append(mesh.BoneNames, bone.Name)
		mesh.BoneOffsets = append(mesh.BoneOffsets, bone.Offset)

		for _, w := range bone.Weights {
			if int(w.VertexID) >= mesh.VertexCount {
				outOfRange++
				continue
			}
			slot := (mesh.VertexOffset + int(w.VertexID)) * BonesPerVertex
			k := 0
			for k < BonesPerVertex && m.BoneIndices[slot+k] != NoBone {
				k++
			}
			if k == BonesPerVertex {
				dropped++
				continue
			}
			m.BoneIndices[slot+k] = int32(bi)
			m.BoneWeights[slot+k] = w.Weight
		}
	}

	if outOfRange > 0 {
		b.diag(StageBones, mesh.Name, "dropped %d weights with out of range vertex ids", outOfRange)
	}
	if dropped > 0 {
		b.diag(StageBones, mesh.Name, "dropped %d influences beyond %d per vertex", dropped, BonesPerVertex)
	}
}

// BoneIndex returns the slot value used for the named bone, or NoBone.
func (m *Mesh) BoneIndex(name string) int32 {
	for i, n := range m.BoneNames {
		if n == name {
			return int32(i)
		}
	}
	return NoBone
}
