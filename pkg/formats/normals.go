package formats

import "github.com/go-gl/mathgl/mgl32"

// SmoothNormals computes per-vertex normals by summing the unnormalised
// face normals of every triangle touching a vertex, so larger faces weigh
// more. Faces that are not triangles or that reference missing vertices
// are ignored. Vertices without a contributing face get a zero normal.
func SmoothNormals(vertices [][3]float32, faces []Face) [][3]float32 {
	sums := make([]mgl32.Vec3, len(vertices))
	for _, f := range faces {
		if len(f.Indices) != 3 {
			continue
		}
		a, b, c := f.Indices[0], f.Indices[1], f.Indices[2]
		if int(a) >= len(vertices) || int(b) >= len(vertices) || int(c) >= len(vertices) {
			continue
		}
		p0, p1, p2 := mgl32.Vec3(vertices[a]), mgl32.Vec3(vertices[b]), mgl32.Vec3(vertices[c])
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		sums[a] = sums[a].Add(n)
		sums[b] = sums[b].Add(n)
		sums[c] = sums[c].Add(n)
	}

	normals := make([][3]float32, len(vertices))
	for i, s := range sums {
		if s.Len() > 0 {
			normals[i] = s.Normalize()
		}
	}
	return normals
}
