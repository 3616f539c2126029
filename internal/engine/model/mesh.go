package model

import (
	"github.com/Faultbox/animodel/pkg/formats"
)

// addMesh appends one raw mesh to the shared buffers and records its
// index window. Faces must be triangles with in-range indices; others are
// skipped.
func (b *builder) addMesh(src *formats.Mesh) {
	m := b.m
	base := m.VertexCount()
	count := len(src.Vertices)

	mesh := Mesh{
		Name:         src.Name,
		IndexOffset:  len(m.Indices),
		VertexOffset: base,
		VertexCount:  count,
		Material:     b.materialFor(src.Name, src.MaterialIndex),
	}

	for _, v := range src.Vertices {
		m.Positions = append(m.Positions, v[0], v[1], v[2])
	}

	if len(src.Normals) > 0 && len(src.Normals) != count {
		b.diag(StageGeometry, src.Name, "%d normals for %d vertices", len(src.Normals), count)
	}
	m.Normals = appendVec3(m.Normals, base, count, src.Normals)

	if src.HasTangents() {
		m.Tangents = appendVec3(m.Tangents, base, count, src.Tangents)
		m.Bitangents = appendVec3(m.Bitangents, base, count, src.Bitangents)
	}

	b.addUVs(src, base, count)

	var skipped, outOfRange int
	for _, f := range src.Faces {
		if len(f.Indices) != 3 {
			skipped++
			continue
		}
		if f.Indices[0] >= uint32(count) || f.Indices[1] >= uint32(count) || f.Indices[2] >= uint32(count) {
			outOfRange++
			continue
		}
		for _, idx := range f.Indices {
			m.Indices = append(m.Indices, uint32(base)+idx)
		}
	}
	if skipped > 0 {
		b.diag(StageGeometry, src.Name, "skipped %d non-triangular faces", skipped)
	}
	if outOfRange > 0 {
		b.diag(StageGeometry, src.Name, "skipped %d faces with out of range indices", outOfRange)
	}
	mesh.IndexCount = len(m.Indices) - mesh.IndexOffset

	b.addBones(&mesh, src)
	m.Meshes = append(m.Meshes, mesh)
}

// addUVs appends every channel of src. A channel keeps the component count
// it was first declared with.
func (b *builder) addUVs(src *formats.Mesh, base, count int) {
	m := b.m
	for ch, uv := range src.UVChannels {
		comps := clampComponents(uv.Components)
		if ch >= len(m.UVs) {
			m.UVs = append(m.UVs, UVBuffer{Components: comps})
		}
		buf := &m.UVs[ch]
		if comps != buf.Components {
			b.diag(StageGeometry, src.Name, "uv channel %d has %d components, buffer uses %d", ch, comps, buf.Components)
		}
		if len(uv.Coords) != count {
			b.diag(StageGeometry, src.Name, "uv channel %d has %d coordinates for %d vertices", ch, len(uv.Coords), count)
		}

		buf.Data = pad(buf.Data, base*buf.Components, 0)
		for i := 0; i < count; i++ {
			var c [3]float32
			if i < len(uv.Coords) {
				c = uv.Coords[i]
			}
			buf.Data = append(buf.Data, c[:buf.Components]...)
		}
	}
}

// finishBuffers pads every attribute buffer that exists to the final
// vertex count.
func (b *builder) finishBuffers() {
	m := b.m
	n := m.VertexCount()
	if len(m.Normals) > 0 {
		m.Normals = pad(m.Normals, n*3, 0)
	}
	if len(m.Tangents) > 0 {
		m.Tangents = pad(m.Tangents, n*3, 0)
		m.Bitangents = pad(m.Bitangents, n*3, 0)
	}
	for i := range m.UVs {
		m.UVs[i].Data = pad(m.UVs[i].Data, n*m.UVs[i].Components, 0)
	}
	if b.skinned {
		m.BoneIndices = padBones(m.BoneIndices, n*BonesPerVertex)
		m.BoneWeights = pad(m.BoneWeights, n*BonesPerVertex, 0)
	}
}

// appendVec3 appends count vectors for a mesh starting at vertex base.
// A buffer that does not exist yet stays empty unless data is given.
func appendVec3(buf []float32, base, count int, data [][3]float32) []float32 {
	if len(data) == 0 {
		return buf
	}
	buf = pad(buf, base*3, 0)
	for i := 0; i < count; i++ {
		var v [3]float32
		if i < len(data) {
			v = data[i]
		}
		buf = append(buf, v[0], v[1], v[2])
	}
	return buf
}

func clampComponents(n int) int {
	switch {
	case n < 1:
		return 2
	case n > 3:
		return 3
	}
	return n
}
