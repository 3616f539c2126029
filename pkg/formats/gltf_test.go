package formats

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// skinnedDoc builds a two-joint skinned triangle with one rotation clip.
func skinnedDoc(t *testing.T) *gltf.Document {
	t.Helper()

	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	nrm := modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 0}, {1, 0}, {0, 1}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	joints := modeler.WriteJoints(doc, [][4]uint8{{0, 1, 0, 0}, {0, 0, 0, 0}, {1, 0, 0, 0}})
	weights := modeler.WriteWeights(doc, [][4]float32{{0.5, 0.5, 0, 0}, {1, 0, 0, 0}, {1, 0, 0, 0}})
	ibm := modeler.WriteAccessor(doc, gltf.TargetNone, [][4][4]float32{
		{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}},
		{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, -1, 0, 1}},
	})

	doc.Materials = []*gltf.Material{{
		Name: "skin",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{0.8, 0.4, 0.2, 1},
		},
	}}
	doc.Meshes = []*gltf.Mesh{{
		Name: "body",
		Primitives: []*gltf.Primitive{{
			Attributes: gltf.Attribute{
				"POSITION":   pos,
				"NORMAL":     nrm,
				"TEXCOORD_0": uv,
				"JOINTS_0":   joints,
				"WEIGHTS_0":  weights,
			},
			Indices:  gltf.Index(idx),
			Material: gltf.Index(0),
		}},
	}}
	doc.Nodes = []*gltf.Node{
		{Name: "mesh", Mesh: gltf.Index(0), Skin: gltf.Index(0)},
		{Name: "hip", Children: []uint32{2}, Translation: [3]float32{0, 0, 1}},
		{Children: nil, Translation: [3]float32{0, 1, 0}},
	}
	doc.Skins = []*gltf.Skin{{
		Joints:              []uint32{1, 2},
		InverseBindMatrices: gltf.Index(ibm),
	}}
	doc.Scenes = []*gltf.Scene{{Nodes: []uint32{0, 1}}}
	doc.Scene = gltf.Index(0)

	keys := modeler.WriteAccessor(doc, gltf.TargetNone, []float32{0, 0.5, 1})
	rot := modeler.WriteAccessor(doc, gltf.TargetNone, [][4]float32{
		{0, 0, 0, 1},
		{0, 0, float32(math.Sin(math.Pi / 4)), float32(math.Cos(math.Pi / 4))},
		{0, 0, 1, 0},
	})
	doc.Animations = []*gltf.Animation{{
		Name: "wave",
		Samplers: []*gltf.AnimationSampler{{
			Input:         gltf.Index(keys),
			Output:        gltf.Index(rot),
			Interpolation: gltf.InterpolationLinear,
		}},
		Channels: []*gltf.Channel{{
			Sampler: gltf.Index(0),
			Target:  gltf.ChannelTarget{Node: gltf.Index(2), Path: gltf.TRSRotation},
		}},
	}}
	return doc
}

func TestFromGLTF_Geometry(t *testing.T) {
	scene, err := FromGLTF(skinnedDoc(t))
	if err != nil {
		t.Fatalf("FromGLTF failed: %v", err)
	}

	if len(scene.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(scene.Meshes))
	}
	mesh := scene.Meshes[0]
	if mesh.Name != "body" {
		t.Errorf("expected mesh name 'body', got %q", mesh.Name)
	}
	if len(mesh.Vertices) != 3 || len(mesh.Normals) != 3 {
		t.Errorf("expected 3 vertices and normals, got %d/%d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.UVChannels) != 1 || mesh.UVChannels[0].Components != 2 {
		t.Fatalf("expected one 2-component uv channel, got %+v", mesh.UVChannels)
	}
	if mesh.UVChannels[0].Coords[1] != [3]float32{1, 0, 0} {
		t.Errorf("unexpected uv %v", mesh.UVChannels[0].Coords[1])
	}
	if len(mesh.Faces) != 1 || len(mesh.Faces[0].Indices) != 3 {
		t.Fatalf("expected one triangle, got %+v", mesh.Faces)
	}
	if mesh.MaterialIndex != 0 {
		t.Errorf("expected material 0, got %d", mesh.MaterialIndex)
	}
}

func TestFromGLTF_MissingNormals(t *testing.T) {
	doc := skinnedDoc(t)
	delete(doc.Meshes[0].Primitives[0].Attributes, "NORMAL")

	scene, err := FromGLTF(doc)
	if err != nil {
		t.Fatalf("FromGLTF failed: %v", err)
	}
	mesh := scene.Meshes[0]
	if len(mesh.Normals) != 3 {
		t.Fatalf("expected 3 generated normals, got %d", len(mesh.Normals))
	}
	for i, n := range mesh.Normals {
		if n != [3]float32{0, 0, 1} {
			t.Errorf("normal %d: got %v, want +Z", i, n)
		}
	}
	if len(scene.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", scene.Warnings)
	}
}

func TestFromGLTF_Material(t *testing.T) {
	doc := skinnedDoc(t)
	doc.Materials = append(doc.Materials,
		&gltf.Material{
			Name: "legacy",
			Extras: map[string]interface{}{
				"shadingModel": "Phong",
				"diffuse":      []interface{}{0.1, 0.2, 0.3},
				"shininess":    12.0,
			},
		},
		&gltf.Material{
			Name:       "flat",
			Extensions: gltf.Extensions{"KHR_materials_unlit": struct{}{}},
		},
	)

	scene, err := FromGLTF(doc)
	if err != nil {
		t.Fatalf("FromGLTF failed: %v", err)
	}

	tests := []struct {
		name    string
		shading ShadingModel
	}{
		{"skin", ShadingPBR},
		{"legacy", ShadingPhong},
		{"flat", ShadingUnlit},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := scene.Materials[i]
			if m.Name != tt.name {
				t.Errorf("expected name %q, got %q", tt.name, m.Name)
			}
			if m.Shading != tt.shading {
				t.Errorf("expected shading %v, got %v", tt.shading, m.Shading)
			}
		})
	}

	if scene.Materials[0].Diffuse != [3]float32{0.8, 0.4, 0.2} {
		t.Errorf("expected base color as diffuse, got %v", scene.Materials[0].Diffuse)
	}
	if scene.Materials[1].Shininess != 12 {
		t.Errorf("expected shininess 12, got %f", scene.Materials[1].Shininess)
	}
	if scene.Materials[1].Diffuse != [3]float32{0.1, 0.2, 0.3} {
		t.Errorf("expected extras diffuse, got %v", scene.Materials[1].Diffuse)
	}
}

func TestFromGLTF_Skin(t *testing.T) {
	scene, err := FromGLTF(skinnedDoc(t))
	if err != nil {
		t.Fatalf("FromGLTF failed: %v", err)
	}

	bones := scene.Meshes[0].Bones
	if len(bones) != 2 {
		t.Fatalf("expected 2 bones, got %d", len(bones))
	}
	if bones[0].Name != "hip" {
		t.Errorf("expected first bone 'hip', got %q", bones[0].Name)
	}
	// unnamed joint nodes get a stable fallback name
	if bones[1].Name != "node_2" {
		t.Errorf("expected second bone 'node_2', got %q", bones[1].Name)
	}

	// vertex 0 has two influences, vertex 1 one, vertex 2 one
	if len(bones[0].Weights) != 2 {
		t.Errorf("expected 2 weights on hip, got %d", len(bones[0].Weights))
	}
	if len(bones[1].Weights) != 2 {
		t.Errorf("expected 2 weights on node_2, got %d", len(bones[1].Weights))
	}

	want := mgl32.Translate3D(0, -1, 0)
	if !bones[1].Offset.ApproxEqual(want) {
		t.Errorf("expected inverse bind %v, got %v", want, bones[1].Offset)
	}
}

func TestFromGLTF_Hierarchy(t *testing.T) {
	scene, err := FromGLTF(skinnedDoc(t))
	if err != nil {
		t.Fatalf("FromGLTF failed: %v", err)
	}

	root := scene.Root
	if root == nil || root.Name != "ROOT" {
		t.Fatalf("expected synthetic ROOT, got %+v", root)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 scene roots, got %d", len(root.Children))
	}
	if root.Count() != 4 {
		t.Errorf("expected 4 nodes, got %d", root.Count())
	}
	if got := root.Children[0].Meshes; len(got) != 1 || got[0] != 0 {
		t.Errorf("expected mesh node to reference mesh 0, got %v", got)
	}

	hip := root.Children[1]
	if hip.Transform.Col(3) != (mgl32.Vec4{0, 0, 1, 1}) {
		t.Errorf("expected hip translation (0,0,1), got %v", hip.Transform.Col(3))
	}
}

func TestFromGLTF_Animation(t *testing.T) {
	scene, err := FromGLTF(skinnedDoc(t))
	if err != nil {
		t.Fatalf("FromGLTF failed: %v", err)
	}

	if len(scene.Animations) != 1 {
		t.Fatalf("expected 1 animation, got %d", len(scene.Animations))
	}
	anim := scene.Animations[0]
	if anim.Name != "wave" {
		t.Errorf("expected name 'wave', got %q", anim.Name)
	}
	if anim.TicksPerSecond != 1000 {
		t.Errorf("expected 1000 ticks per second, got %f", anim.TicksPerSecond)
	}
	if anim.Duration != 1000 {
		t.Errorf("expected duration 1000, got %f", anim.Duration)
	}
	if len(anim.Channels) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(anim.Channels))
	}

	ch := anim.Channels[0]
	if ch.NodeName != "node_2" {
		t.Errorf("expected channel target 'node_2', got %q", ch.NodeName)
	}
	if len(ch.RotationKeys) != 3 || len(ch.PositionKeys) != 0 {
		t.Fatalf("expected 3 rotation keys only, got %d/%d", len(ch.RotationKeys), len(ch.PositionKeys))
	}
	if ch.RotationKeys[1].Time != 500 {
		t.Errorf("expected key time 500, got %f", ch.RotationKeys[1].Time)
	}
	if q := ch.RotationKeys[2].Value; q.W != 0 || q.V[2] != 1 {
		t.Errorf("expected xyzw to map to W=0 Z=1, got %v", q)
	}
}

func TestPrimitiveFaces(t *testing.T) {
	tests := []struct {
		name  string
		mode  gltf.PrimitiveMode
		in    []uint32
		faces int
		arity int
	}{
		{"triangles", gltf.PrimitiveTriangles, []uint32{0, 1, 2, 2, 1, 3}, 2, 3},
		{"strip", gltf.PrimitiveTriangleStrip, []uint32{0, 1, 2, 3}, 2, 3},
		{"fan", gltf.PrimitiveTriangleFan, []uint32{0, 1, 2, 3, 4}, 3, 3},
		{"lines", gltf.PrimitiveLines, []uint32{0, 1, 2, 3}, 2, 2},
		{"points", gltf.PrimitivePoints, []uint32{0, 1, 2}, 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faces := primitiveFaces(tt.mode, tt.in)
			if len(faces) != tt.faces {
				t.Fatalf("expected %d faces, got %d", tt.faces, len(faces))
			}
			for _, f := range faces {
				if len(f.Indices) != tt.arity {
					t.Errorf("expected arity %d, got %d", tt.arity, len(f.Indices))
				}
			}
		})
	}
}

func TestNormalizeQuats(t *testing.T) {
	got := normalizeQuats([][4]int16{{0, 0, 32767, -32768}}, 32767)
	want := [4]float32{0, 0, 1, -1}
	if got[0] != want {
		t.Errorf("expected %v, got %v", want, got[0])
	}
}
