package model

import (
	"github.com/go-gl/mathgl/mgl32"
)

// pad extends buf with v up to n elements.
func pad(buf []float32, n int, v float32) []float32 {
	for len(buf) < n {
		buf = append(buf, v)
	}
	return buf
}

// padBones extends buf with empty slots up to n elements.
func padBones(buf []int32, n int) []int32 {
	for len(buf) < n {
		buf = append(buf, NoBone)
	}
	return buf
}

func minVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	for i := 0; i < 3; i++ {
		if b[i] < a[i] {
			a[i] = b[i]
		}
	}
	return a
}

func maxVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	for i := 0; i < 3; i++ {
		if b[i] > a[i] {
			a[i] = b[i]
		}
	}
	return a
}

// transformPoint applies m to p with w=1.
func transformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}
