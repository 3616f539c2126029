package animation

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/animodel/internal/engine/model"
	"github.com/Faultbox/animodel/pkg/formats"
)

// armScene is a skinned triangle under root -> shoulder -> elbow with one
// clip moving the elbow.
func armScene() *formats.Scene {
	return &formats.Scene{
		Materials: []formats.Material{{Name: "skin", Shading: formats.ShadingPhong}},
		Meshes: []formats.Mesh{{
			Name:     "arm",
			Vertices: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Faces:    []formats.Face{{Indices: []uint32{0, 1, 2}}},
			Bones: []formats.Bone{
				{Name: "shoulder", Offset: mgl32.Ident4(), Weights: []formats.VertexWeight{{VertexID: 0, Weight: 1}}},
				{Name: "elbow", Offset: mgl32.Translate3D(0, -1, 0), Weights: []formats.VertexWeight{{VertexID: 1, Weight: 1}}},
				{Name: "ghost", Offset: mgl32.Ident4(), Weights: []formats.VertexWeight{{VertexID: 2, Weight: 1}}},
			},
		}},
		Root: &formats.Node{
			Name:      "root",
			Transform: mgl32.Ident4(),
			Meshes:    []int{0},
			Children: []*formats.Node{{
				Name:      "shoulder",
				Transform: mgl32.Translate3D(0, 1, 0),
				Children: []*formats.Node{{
					Name:      "elbow",
					Transform: mgl32.Translate3D(0, 1, 0),
				}},
			}},
		},
		Animations: []formats.Animation{{
			Name:           "bend",
			Duration:       100,
			TicksPerSecond: 250,
			Channels: []formats.Channel{{
				NodeName: "elbow",
				PositionKeys: []formats.VectorKey{
					{Time: 0, Value: mgl32.Vec3{0, 1, 0}},
					{Time: 20, Value: mgl32.Vec3{0, 2, 0}},
					{Time: 50, Value: mgl32.Vec3{0, 3, 0}},
				},
				RotationKeys: []formats.QuatKey{
					{Time: 0, Value: mgl32.QuatIdent()},
					{Time: 60, Value: mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1})},
				},
			}},
		}},
	}
}

func buildArm(t *testing.T) *model.Model {
	t.Helper()
	m, err := model.Build(armScene(), model.LoadOptions{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return m
}

func translation(m mgl32.Mat4) mgl32.Vec3 {
	return m.Col(3).Vec3()
}

func TestSelectClip(t *testing.T) {
	a := New(buildArm(t), DefaultSettings())

	if a.Clip() != NoClip {
		t.Errorf("expected no clip initially, got %d", a.Clip())
	}
	if err := a.SelectClip(0); err != nil {
		t.Fatalf("SelectClip(0) failed: %v", err)
	}
	a.Advance()
	if a.Tick() == 0 {
		t.Fatal("expected tick to advance")
	}
	if err := a.SelectClip(NoClip); err != nil {
		t.Fatalf("SelectClip(NoClip) failed: %v", err)
	}
	if a.Tick() != 0 {
		t.Errorf("expected selection to reset tick, got %f", a.Tick())
	}

	for _, bad := range []int{-2, 1, 99} {
		if err := a.SelectClip(bad); !errors.Is(err, ErrClipOutOfRange) {
			t.Errorf("SelectClip(%d): expected ErrClipOutOfRange, got %v", bad, err)
		}
	}
}

func TestEvaluate_NoClipUsesStaticTransforms(t *testing.T) {
	m := buildArm(t)
	a := New(m, DefaultSettings())

	for i := 0; i < 5; i++ {
		p := a.Frame()[0]
		elbow := m.NodesNamed("elbow")[0]
		if got := translation(p.World[elbow]); !got.ApproxEqual(mgl32.Vec3{0, 2, 0}) {
			t.Fatalf("frame %d: expected static elbow at (0,2,0), got %v", i, got)
		}
	}
	if a.Tick() != 0 {
		t.Errorf("expected tick to stay 0 without a clip, got %f", a.Tick())
	}
	for ti := range m.Tracks {
		if pos, rot, sc := a.Cursor(ti); pos != 0 || rot != 0 || sc != 0 {
			t.Errorf("track %d: cursors moved without a clip", ti)
		}
	}
}

func TestEvaluate_FirstKeyAtZero(t *testing.T) {
	m := buildArm(t)
	a := New(m, DefaultSettings())
	if err := a.SelectClip(0); err != nil {
		t.Fatal(err)
	}

	p := a.Evaluate(0)
	elbow := m.NodesNamed("elbow")[0]
	// shoulder static (0,1,0) + first elbow key (0,1,0)
	if got := translation(p.World[elbow]); !got.ApproxEqual(mgl32.Vec3{0, 2, 0}) {
		t.Errorf("expected first key at tick 0, got %v", got)
	}
}

func TestEvaluate_CursorsMonotonic(t *testing.T) {
	m := buildArm(t)
	a := New(m, Settings{TargetFrameRate: 25})
	if err := a.SelectClip(0); err != nil {
		t.Fatal(err)
	}

	// step 250/25 = 10 ticks: 0,10,...,100 then wrap
	lastPos, lastRot := 0, 0
	for frame := 0; frame <= 10; frame++ {
		tick := a.Tick()
		a.Frame()
		pos, rot, _ := a.Cursor(0)
		if pos < lastPos || rot < lastRot {
			t.Fatalf("tick %f: cursor moved backwards (%d,%d) -> (%d,%d)", tick, lastPos, lastRot, pos, rot)
		}
		lastPos, lastRot = pos, rot
	}
	if lastPos != 2 || lastRot != 1 {
		t.Errorf("expected cursors at last keys, got pos=%d rot=%d", lastPos, lastRot)
	}

	// 100 + 10 > duration wraps to 0, which resets the cursors
	if a.Tick() != 0 {
		t.Fatalf("expected wrap to 0, got %f", a.Tick())
	}
	a.Evaluate(0)
	if pos, rot, _ := a.Cursor(0); pos != 0 || rot != 0 {
		t.Errorf("expected cursor reset at tick 0, got (%d,%d)", pos, rot)
	}
}

func TestEvaluate_StepsNotInterpolates(t *testing.T) {
	m := buildArm(t)
	a := New(m, DefaultSettings())
	if err := a.SelectClip(0); err != nil {
		t.Fatal(err)
	}
	elbow := m.NodesNamed("elbow")[0]

	tests := []struct {
		tick float64
		want mgl32.Vec3
	}{
		{10, mgl32.Vec3{0, 2, 0}},
		{20, mgl32.Vec3{0, 2, 0}},  // next key must be strictly before the tick
		{30, mgl32.Vec3{0, 3, 0}},  // key at 20
		{60, mgl32.Vec3{0, 4, 0}},  // key at 50
		{100, mgl32.Vec3{0, 4, 0}}, // stays on the last key
	}
	for _, tt := range tests {
		a.tick = tt.tick
		p := a.Evaluate(0)
		if got := translation(p.World[elbow]); !got.ApproxEqualThreshold(tt.want, 1e-5) {
			t.Errorf("tick %f: expected %v, got %v", tt.tick, tt.want, got)
		}
	}
}

func TestEvaluate_InvalidTrackUsesStaticTransform(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(ch *formats.Channel)
	}{
		{"unknown pre state", func(ch *formats.Channel) { ch.PreState = formats.Behaviour(42) }},
		{"unknown post state", func(ch *formats.Channel) { ch.PostState = formats.Behaviour(42) }},
		{"no keys", func(ch *formats.Channel) {
			ch.PositionKeys, ch.RotationKeys, ch.ScalingKeys = nil, nil, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene := armScene()
			tt.mutate(&scene.Animations[0].Channels[0])
			m, err := model.Build(scene, model.LoadOptions{})
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}

			elbow := m.NodesNamed("elbow")[0]
			if tr := m.TrackFor(elbow, 0); tr == nil || tr.Valid() {
				t.Fatalf("expected an invalid elbow track, got %+v", tr)
			}

			a := New(m, DefaultSettings())
			if err := a.SelectClip(0); err != nil {
				t.Fatal(err)
			}
			static := mgl32.Translate3D(0, 2, 0)
			for frame := 0; frame < 5; frame++ {
				p := a.Frame()[0]
				if !p.World[elbow].ApproxEqual(static) {
					t.Fatalf("frame %d: expected static elbow transform, got %v", frame, p.World[elbow])
				}
			}
			if a.Tick() == 0 {
				t.Error("the clip should still advance")
			}
		})
	}
}

func TestAdvance_FallbackStep(t *testing.T) {
	scene := armScene()
	scene.Animations = []formats.Animation{{
		Name:     "idle",
		Duration: 100,
		Channels: []formats.Channel{{
			NodeName:     "elbow",
			PositionKeys: []formats.VectorKey{{Time: 0, Value: mgl32.Vec3{5, 0, 0}}},
		}},
	}}
	m, err := model.Build(scene, model.LoadOptions{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	a := New(m, DefaultSettings())
	if err := a.SelectClip(0); err != nil {
		t.Fatal(err)
	}
	elbow := m.NodesNamed("elbow")[0]
	for frame := 0; frame < 10; frame++ {
		if a.Tick() != float64(frame) {
			t.Fatalf("frame %d: expected tick %d, got %f", frame, frame, a.Tick())
		}
		p := a.Frame()[0]
		if got := translation(p.World[elbow]); !got.ApproxEqual(mgl32.Vec3{5, 1, 0}) {
			t.Errorf("frame %d: sampled position changed to %v", frame, got)
		}
	}
}

func TestPose_BoneMatrices(t *testing.T) {
	m := buildArm(t)
	a := New(m, DefaultSettings())

	p := a.Evaluate(0)
	mats := p.BoneMatrices(&m.Meshes[0])
	if len(mats) != 3 {
		t.Fatalf("expected 3 matrices, got %d", len(mats))
	}

	// elbow world (0,2,0) times offset (0,-1,0)
	if got := translation(mats[1]); !got.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Errorf("expected elbow skin translation (0,1,0), got %v", got)
	}
	if !mats[2].ApproxEqual(mgl32.Ident4()) {
		t.Errorf("expected identity for bone without node, got %v", mats[2])
	}

	// shoulder has an identity offset
	if got := translation(p.Matrices["shoulder"]); !got.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Errorf("expected shoulder matrix translation (0,1,0), got %v", got)
	}
}

func TestEvaluate_InverseRootCancelsNormalization(t *testing.T) {
	m, err := model.Build(armScene(), model.DefaultLoadOptions())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	a := New(m, DefaultSettings())
	p := a.Evaluate(0)

	if got := translation(p.Matrices["elbow"]); !got.ApproxEqualThreshold(mgl32.Vec3{0, 1, 0}, 1e-5) {
		t.Errorf("expected normalization to cancel in skin matrix, got %v", got)
	}
}

func TestNew_SettingsDefaults(t *testing.T) {
	a := New(buildArm(t), Settings{})
	if s := a.Settings(); s != DefaultSettings() {
		t.Errorf("expected defaults, got %+v", s)
	}
}
