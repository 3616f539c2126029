package model

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/animodel/pkg/formats"
)

// buildTree mirrors the raw hierarchy into the node arena in pre-order.
// The raw root becomes the model root as is.
func (b *builder) buildTree(root *formats.Node) {
	visited := make(map[*formats.Node]bool)
	b.m.Root = b.addNode(root, -1, visited)
	b.m.indexNames()
}

func (b *builder) addNode(src *formats.Node, parent int, visited map[*formats.Node]bool) int {
	visited[src] = true

	idx := len(b.m.Nodes)
	tracks := make([]int, len(b.m.Clips))
	for i := range tracks {
		tracks[i] = NoTrack
	}
	b.m.Nodes = append(b.m.Nodes, Node{
		Name:      src.Name,
		Transform: src.Transform,
		Parent:    parent,
		Tracks:    tracks,
	})

	for _, mi := range src.Meshes {
		if mi < 0 || mi >= len(b.m.Meshes) {
			b.diag(StageGraph, src.Name, "mesh reference %d out of range", mi)
			continue
		}
		b.m.Nodes[idx].Meshes = append(b.m.Nodes[idx].Meshes, mi)
	}

	for _, child := range src.Children {
		if child == nil || visited[child] {
			b.diag(StageGraph, src.Name, "ignoring invalid or repeated child node")
			continue
		}
		c := b.addNode(child, idx, visited)
		b.m.Nodes[idx].Children = append(b.m.Nodes[idx].Children, c)
	}
	return idx
}

// Walk visits nodes depth-first from the root, passing each node's
// accumulated world transform (parent world * local).
func (m *Model) Walk(fn func(idx int, world mgl32.Mat4)) {
	var visit func(idx int, parent mgl32.Mat4)
	visit = func(idx int, parent mgl32.Mat4) {
		n := &m.Nodes[idx]
		world := parent.Mul4(n.Transform)
		fn(idx, world)
		for _, c := range n.Children {
			visit(c, world)
		}
	}
	visit(m.Root, mgl32.Ident4())
}
