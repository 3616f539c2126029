package animation

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/animodel/internal/engine/model"
)

// seek moves cur forward while the next key is still before tick. It never
// moves backwards.
func seek(cur, n int, tick float64, time func(i int) float64) int {
	if cur >= n {
		cur = n - 1
	}
	for cur < n-1 && time(cur+1) < tick {
		cur++
	}
	return cur
}

// sampleTrack returns T*R*S for the keys under c at tick, advancing c.
// Keys are stepped, not interpolated. Empty channels contribute identity.
func sampleTrack(t *model.Track, c *cursor, tick float64) mgl32.Mat4 {
	tr := mgl32.Ident4()
	if n := len(t.Positions); n > 0 {
		c.pos = seek(c.pos, n, tick, func(i int) float64 { return t.Positions[i].Time })
		v := t.Positions[c.pos].Value
		tr = mgl32.Translate3D(v[0], v[1], v[2])
	}

	rot := mgl32.Ident4()
	if n := len(t.Rotations); n > 0 {
		c.rot = seek(c.rot, n, tick, func(i int) float64 { return t.Rotations[i].Time })
		rot = t.Rotations[c.rot].Value.Normalize().Mat4()
	}

	sc := mgl32.Ident4()
	if n := len(t.Scales); n > 0 {
		c.scale = seek(c.scale, n, tick, func(i int) float64 { return t.Scales[i].Time })
		v := t.Scales[c.scale].Value
		sc = mgl32.Scale3D(v[0], v[1], v[2])
	}

	return tr.Mul4(rot).Mul4(sc)
}
