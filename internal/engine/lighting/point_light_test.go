package lighting

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestDefault(t *testing.T) {
	l := Default()
	if l.Position != (mgl32.Vec3{2, -2, 3}) {
		t.Errorf("position: got %v", l.Position)
	}
	if l.Radiance() != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("radiance: got %v", l.Radiance())
	}
}

func TestRadiance(t *testing.T) {
	tests := []struct {
		name  string
		light PointLight
		want  mgl32.Vec3
	}{
		{"scaled", PointLight{Color: mgl32.Vec3{1, 0.5, 0}, Intensity: 2}, mgl32.Vec3{2, 1, 0}},
		{"clamped colour", PointLight{Color: mgl32.Vec3{3, -1, 0.5}, Intensity: 1}, mgl32.Vec3{1, 0, 0.5}},
		{"negative intensity", PointLight{Color: mgl32.Vec3{1, 1, 1}, Intensity: -4}, mgl32.Vec3{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.light.Radiance(); !got.ApproxEqual(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	l := New([3]float32{0, 5, 0}, 0.5)
	if l.Position != (mgl32.Vec3{0, 5, 0}) || l.Color != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("unexpected light %+v", l)
	}
}
