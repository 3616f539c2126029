package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/animodel/internal/engine/animation"
	"github.com/Faultbox/animodel/internal/engine/model"
	"github.com/Faultbox/animodel/pkg/formats"
)

func armModel(t *testing.T) *model.Model {
	t.Helper()
	scene := &formats.Scene{
		Materials: []formats.Material{{Name: "skin", Shading: formats.ShadingPhong}},
		Meshes: []formats.Mesh{{
			Name:     "arm",
			Vertices: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Faces:    []formats.Face{{Indices: []uint32{0, 1, 2}}},
			Bones: []formats.Bone{
				{Name: "shoulder", Offset: mgl32.Ident4(), Weights: []formats.VertexWeight{{VertexID: 0, Weight: 1}}},
				{Name: "elbow", Offset: mgl32.Translate3D(0, -2, 0), Weights: []formats.VertexWeight{{VertexID: 1, Weight: 0.5}, {VertexID: 2, Weight: 1}}},
			},
		}},
		Root: &formats.Node{
			Name:      "root",
			Transform: mgl32.Ident4(),
			Meshes:    []int{0},
			Children: []*formats.Node{{
				Name:      "shoulder",
				Transform: mgl32.Translate3D(0, 1, 0),
				Children:  []*formats.Node{{Name: "elbow", Transform: mgl32.Translate3D(0, 1, 0)}},
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
					{Time: 5, Value: mgl32.Vec3{0, 3, 0}},
				},
			}},
		}},
	}
	m, err := model.Build(scene, model.LoadOptions{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return m
}

func TestPrintInfo(t *testing.T) {
	var buf bytes.Buffer
	printInfo(&buf, "arm.gltf", armModel(t))
	out := buf.String()

	for _, want := range []string{
		"Model:       arm.gltf",
		"Vertices:    3",
		"Triangles:   1",
		"Meshes (1):",
		"[0] arm",
		"Clips (1):",
		"[0] bend",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("info output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintTree(t *testing.T) {
	var buf bytes.Buffer
	printTree(&buf, armModel(t))

	want := "root [arm]\n  shoulder\n    elbow @0\n"
	if buf.String() != want {
		t.Errorf("tree:\ngot\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestPrintBones(t *testing.T) {
	m := armModel(t)
	var buf bytes.Buffer
	if err := printBones(&buf, m, "arm"); err != nil {
		t.Fatalf("printBones failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || lines[0] != "Mesh arm: 2 bones" {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
	if !strings.Contains(lines[1], "shoulder") || !strings.Contains(lines[1], " 1 vertices") {
		t.Errorf("shoulder line: %q", lines[1])
	}
	if !strings.Contains(lines[2], "elbow") || !strings.Contains(lines[2], " 2 vertices") {
		t.Errorf("elbow line: %q", lines[2])
	}

	if err := printBones(&buf, m, "leg"); !errors.Is(err, errUnknownMesh) {
		t.Errorf("expected errUnknownMesh, got %v", err)
	}
}

func TestPlay(t *testing.T) {
	m := armModel(t)
	var buf bytes.Buffer
	if err := play(&buf, m, 0, 2, animation.DefaultSettings()); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	out := buf.String()

	// 250 ticks per second at 25 fps is 10 ticks per frame
	for _, want := range []string{"frame 0 tick 0\n", "frame 1 tick 10\n", "  mesh arm\n", "shoulder", "elbow"} {
		if !strings.Contains(out, want) {
			t.Errorf("play output missing %q:\n%s", want, out)
		}
	}

	if err := play(&buf, m, 3, 1, animation.DefaultSettings()); !errors.Is(err, animation.ErrClipOutOfRange) {
		t.Errorf("expected ErrClipOutOfRange, got %v", err)
	}
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	dump(&buf, armModel(t), 0)
	for _, want := range []string{"model.Model", `"arm"`, `"bend"`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("dump missing %q", want)
		}
	}
}

func TestMatrix(t *testing.T) {
	got := matrix(mgl32.Translate3D(1, 2, 3))
	want := "[1 0 0 1 | 0 1 0 2 | 0 0 1 3 | 0 0 0 1]"
	if got != want {
		t.Errorf("matrix: got %q, want %q", got, want)
	}
}
