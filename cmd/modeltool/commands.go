package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/animodel/internal/engine/animation"
	"github.com/Faultbox/animodel/internal/engine/model"
	"github.com/Faultbox/animodel/internal/engine/renderer"
)

var errUnknownMesh = errors.New("unknown mesh")

func printInfo(w io.Writer, path string, m *model.Model) {
	s := m.Stats()
	fmt.Fprintf(w, "Model:       %s\n", path)
	fmt.Fprintf(w, "Vertices:    %d\n", s.Vertices)
	fmt.Fprintf(w, "Triangles:   %d\n", s.Triangles)
	fmt.Fprintf(w, "UV channels: %d\n", len(m.UVs))
	fmt.Fprintf(w, "Nodes:       %d\n", s.Nodes)
	fmt.Fprintf(w, "Tracks:      %d\n", s.Tracks)
	if box, ok := m.Bounds(); ok {
		fmt.Fprintf(w, "Bounds:      %s .. %s\n", vec(box.Min), vec(box.Max))
	}

	fmt.Fprintf(w, "\nMeshes (%d):\n", s.Meshes)
	for i := range m.Meshes {
		mesh := &m.Meshes[i]
		fmt.Fprintf(w, "  [%d] %-20s %6d tris %6d verts  material %d  bones %d\n",
			i, mesh.Name, mesh.Triangles(), mesh.VertexCount, mesh.Material, len(mesh.BoneNames))
	}

	fmt.Fprintf(w, "\nMaterials (%d):\n", s.Materials)
	for i, mat := range m.Materials {
		fmt.Fprintf(w, "  [%d] %-20s Ka %s  Kd %s  Ks %s  shininess %g\n",
			i, mat.Name, vec(mat.Ambient), vec(mat.Diffuse), vec(mat.Specular), mat.Shininess)
	}

	fmt.Fprintf(w, "\nClips (%d):\n", s.Clips)
	for i, c := range m.Clips {
		fmt.Fprintf(w, "  [%d] %-20s duration %g  ticks/s %g\n", i, c.Name, c.Duration, c.TicksPerSecond)
	}

	if len(m.Diagnostics) > 0 {
		fmt.Fprintf(w, "\nDiagnostics (%d):\n", s.Diagnostics)
		for _, d := range m.Diagnostics {
			fmt.Fprintf(w, "  %s\n", d)
		}
	}
}

// printTree prints one node per line, indented by depth. Meshes are listed
// in brackets and animated clips after an @.
func printTree(w io.Writer, m *model.Model) {
	var visit func(idx, depth int)
	visit = func(idx, depth int) {
		n := &m.Nodes[idx]
		line := strings.Repeat("  ", depth) + n.Name

		if len(n.Meshes) > 0 {
			names := make([]string, len(n.Meshes))
			for i, mi := range n.Meshes {
				names[i] = m.Meshes[mi].Name
			}
			line += " [" + strings.Join(names, ", ") + "]"
		}

		var clips []string
		for ci := range n.Tracks {
			if m.TrackFor(idx, ci) != nil {
				clips = append(clips, fmt.Sprint(ci))
			}
		}
		if len(clips) > 0 {
			line += " @" + strings.Join(clips, ",")
		}

		fmt.Fprintln(w, line)
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	visit(m.Root, 0)
}

// printBones lists the bones of the named mesh with the number of vertices
// each one influences.
func printBones(w io.Writer, m *model.Model, meshName string) error {
	var mesh *model.Mesh
	for i := range m.Meshes {
		if m.Meshes[i].Name == meshName {
			mesh = &m.Meshes[i]
			break
		}
	}
	if mesh == nil {
		return fmt.Errorf("%w: %q", errUnknownMesh, meshName)
	}

	counts := make([]int, len(mesh.BoneNames))
	for v := mesh.VertexOffset; v < mesh.VertexOffset+mesh.VertexCount; v++ {
		ids, weights := m.Influences(v)
		for slot, id := range ids {
			if id != model.NoBone && weights[slot] > 0 && int(id) < len(counts) {
				counts[id]++
			}
		}
	}

	fmt.Fprintf(w, "Mesh %s: %d bones\n", mesh.Name, len(mesh.BoneNames))
	for i, name := range mesh.BoneNames {
		nodes := len(m.NodesNamed(name))
		fmt.Fprintf(w, "  [%d] %-24s %6d vertices  offset %s  nodes %d\n",
			i, name, counts[i], vec(mesh.BoneOffsets[i].Col(3).Vec3()), nodes)
	}
	return nil
}

// play evaluates frames of clip through the headless renderer and prints
// the bone matrices each skinned draw used.
func play(w io.Writer, m *model.Model, clip, frames int, settings animation.Settings) error {
	a := animation.New(m, settings)
	if err := a.SelectClip(clip); err != nil {
		return err
	}

	backend := renderer.NewHeadless()
	backend.KeepFrames = 1
	defer backend.Close()
	if err := backend.Upload(m); err != nil {
		return err
	}
	cam := renderer.DefaultCamera(1)

	for f := 0; f < frames; f++ {
		tick := a.Tick()
		backend.Draw(m, a.Frame(), cam)
		frame, _ := backend.LastFrame()

		fmt.Fprintf(w, "frame %d tick %g\n", f, tick)
		for _, call := range frame.Calls {
			if call.Bones == nil {
				continue
			}
			mesh := &m.Meshes[call.Mesh]
			fmt.Fprintf(w, "  mesh %s\n", mesh.Name)
			for i, bone := range call.Bones {
				fmt.Fprintf(w, "    %-24s %s\n", mesh.BoneNames[i], matrix(bone))
			}
		}
	}
	return nil
}

func dump(w io.Writer, m *model.Model, maxDepth int) {
	cfg := spew.NewDefaultConfig()
	cfg.DisableCapacities = true
	cfg.DisablePointerAddresses = true
	cfg.MaxDepth = maxDepth
	cfg.Fdump(w, m)
}

func vec(v mgl32.Vec3) string {
	return fmt.Sprintf("(%.4g, %.4g, %.4g)", v[0], v[1], v[2])
}

// matrix prints a 4x4 matrix row by row.
func matrix(m mgl32.Mat4) string {
	rows := make([]string, 4)
	for r := 0; r < 4; r++ {
		row := m.Row(r)
		rows[r] = fmt.Sprintf("%.4g %.4g %.4g %.4g", row[0], row[1], row[2], row[3])
	}
	return "[" + strings.Join(rows, " | ") + "]"
}
