package model

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Bounds is an axis-aligned box.
type Bounds struct {
	Min, Max mgl32.Vec3
}

// Size returns the per-axis extents.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Max.Sub(b.Size().Mul(0.5))
}

// Bounds composes node transforms from the root and folds every vertex
// referenced by each attached mesh into a box. ok is false when no mesh
// vertex is reachable.
func (m *Model) Bounds() (box Bounds, ok bool) {
	box = Bounds{
		Min: mgl32.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: mgl32.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
	m.Walk(func(idx int, world mgl32.Mat4) {
		for _, mi := range m.Nodes[idx].Meshes {
			mesh := &m.Meshes[mi]
			for _, vi := range m.Indices[mesh.IndexOffset : mesh.IndexOffset+mesh.IndexCount] {
				p := transformPoint(world, m.Position(int(vi)))
				box.Min = minVec3(box.Min, p)
				box.Max = maxVec3(box.Max, p)
				ok = true
			}
		}
	})
	return box, ok
}

// UnitTransform returns the transform that centres box at the origin and
// scales its largest extent to 1. The translation is applied first.
func UnitTransform(box Bounds) (mgl32.Mat4, bool) {
	size := box.Size()
	largest := max(size[0], size[1], size[2])
	if largest <= 0 || math.IsInf(float64(largest), 0) || math.IsNaN(float64(largest)) {
		return mgl32.Ident4(), false
	}
	s := 1 / largest
	t := box.Center().Mul(-1)
	return mgl32.Scale3D(s, s, s).Mul4(mgl32.Translate3D(t[0], t[1], t[2])), true
}

// normalize folds the unit transform into the root's local transform.
// Child transforms are left as they are.
func (b *builder) normalize() {
	box, ok := b.m.Bounds()
	if !ok {
		b.diag(StageNormalize, "", "no triangles reachable from the root, normalization skipped")
		return
	}
	t, ok := UnitTransform(box)
	if !ok {
		b.diag(StageNormalize, "", "degenerate bounds %v..%v, normalization skipped", box.Min, box.Max)
		return
	}
	root := &b.m.Nodes[b.m.Root]
	root.Transform = t.Mul4(root.Transform)
}

func (b *builder) cacheInverseRoot() {
	root := b.m.Nodes[b.m.Root].Transform
	if det := root.Det(); det == 0 || math.IsNaN(float64(det)) {
		b.diag(StageNormalize, b.m.Nodes[b.m.Root].Name, "root transform is singular, inverse root set to identity")
		b.m.InverseRoot = mgl32.Ident4()
		return
	}
	b.m.InverseRoot = root.Inv()
}
