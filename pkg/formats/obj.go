package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrOBJSyntax = errors.New("malformed OBJ statement")
	ErrOBJIndex  = errors.New("OBJ index out of range")
)

// objDefaultMaterial is used by faces without a resolvable usemtl.
const objDefaultMaterial = "DefaultMaterial"

// MTLOpener opens a material library referenced by an OBJ file.
type MTLOpener func(name string) (io.ReadCloser, error)

// ParseOBJ reads a Wavefront OBJ file. Material libraries are resolved
// relative to the OBJ file's directory.
func ParseOBJ(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening obj %s: %w", path, err)
	}
	defer f.Close()

	dir := filepath.Dir(path)
	return DecodeOBJ(f, func(name string) (io.ReadCloser, error) {
		return os.Open(filepath.Join(dir, name))
	})
}

// DecodeOBJ parses OBJ data from r. open may be nil, in which case
// mtllib statements only produce warnings.
func DecodeOBJ(r io.Reader, open MTLOpener) (*Scene, error) {
	d := &objDecoder{
		open:      open,
		materials: make(map[string]int),
		groups:    make(map[objGroupKey]*objGroup),
		object:    "default",
	}
	if err := d.decode(r); err != nil {
		return nil, err
	}
	return d.scene(), nil
}

type objGroupKey struct {
	object   string
	material string
}

// objGroup accumulates one raw mesh: the faces of one object using one material.
type objGroup struct {
	key     objGroupKey
	lookup  map[[3]int]uint32
	corners [][3]int
	faces   []Face
	hasUV   bool
	hasNorm bool
}

type objDecoder struct {
	open MTLOpener

	positions [][3]float32
	texcoords [][3]float32
	uvComps   int
	normals   [][3]float32

	mats      []Material
	materials map[string]int

	groups   map[objGroupKey]*objGroup
	order    []*objGroup
	objects  []string
	object   string
	material string

	warnings []string
	line     int
}

func (d *objDecoder) warnf(format string, args ...interface{}) {
	d.warnings = append(d.warnings, fmt.Sprintf(format, args...))
}

func (d *objDecoder) decode(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		d.line++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		if err := d.statement(fields[0], fields[1:]); err != nil {
			return fmt.Errorf("obj line %d: %w", d.line, err)
		}
	}
	return sc.Err()
}

func (d *objDecoder) statement(kw string, args []string) error {
	switch kw {
	case "v":
		v, err := parseFloats(args, 3)
		if err != nil {
			return err
		}
		d.positions = append(d.positions, v)
	case "vn":
		v, err := parseFloats(args, 3)
		if err != nil {
			return err
		}
		d.normals = append(d.normals, v)
	case "vt":
		n := len(args)
		if n > 3 {
			n = 3
		}
		v, err := parseFloats(args, n)
		if err != nil {
			return err
		}
		if d.uvComps == 0 {
			d.uvComps = max(n, 2)
		}
		d.texcoords = append(d.texcoords, v)
	case "f":
		return d.face(args)
	case "o", "g":
		d.object = strings.Join(args, " ")
		if d.object == "" {
			d.object = "default"
		}
	case "usemtl":
		d.material = strings.Join(args, " ")
	case "mtllib":
		for _, name := range args {
			d.loadMTL(name)
		}
	default:
		// s, l, p and vendor extensions carry nothing we import
	}
	return nil
}

func parseFloats(args []string, n int) ([3]float32, error) {
	var v [3]float32
	if len(args) < n || n == 0 {
		return v, fmt.Errorf("%w: want %d values, got %d", ErrOBJSyntax, n, len(args))
	}
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return v, fmt.Errorf("%w: %v", ErrOBJSyntax, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}

// resolveIndex turns a 1-based or negative (relative) OBJ index into a
// 0-based one.
func resolveIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOBJSyntax, err)
	}
	switch {
	case i > 0 && i <= count:
		return i - 1, nil
	case i < 0 && -i <= count:
		return count + i, nil
	}
	return 0, fmt.Errorf("%w: %d of %d", ErrOBJIndex, i, count)
}

func (d *objDecoder) currentGroup() *objGroup {
	key := objGroupKey{object: d.object, material: d.material}
	g, ok := d.groups[key]
	if !ok {
		g = &objGroup{key: key, lookup: make(map[[3]int]uint32)}
		d.groups[key] = g
		d.order = append(d.order, g)
		found := false
		for _, o := range d.objects {
			if o == d.object {
				found = true
				break
			}
		}
		if !found {
			d.objects = append(d.objects, d.object)
		}
	}
	return g
}

func (d *objDecoder) face(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: empty face", ErrOBJSyntax)
	}
	g := d.currentGroup()
	polygon := make([]uint32, 0, len(args))
	for _, a := range args {
		corner := [3]int{-1, -1, -1}
		parts := strings.Split(a, "/")
		if len(parts) > 3 {
			return fmt.Errorf("%w: face vertex %q", ErrOBJSyntax, a)
		}
		var err error
		if corner[0], err = resolveIndex(parts[0], len(d.positions)); err != nil {
			return err
		}
		if len(parts) > 1 && parts[1] != "" {
			if corner[1], err = resolveIndex(parts[1], len(d.texcoords)); err != nil {
				return err
			}
			g.hasUV = true
		}
		if len(parts) > 2 && parts[2] != "" {
			if corner[2], err = resolveIndex(parts[2], len(d.normals)); err != nil {
				return err
			}
			g.hasNorm = true
		}

		idx, ok := g.lookup[corner]
		if !ok {
			idx = uint32(len(g.corners))
			g.lookup[corner] = idx
			g.corners = append(g.corners, corner)
		}
		polygon = append(polygon, idx)
	}

	if len(polygon) <= 3 {
		g.faces = append(g.faces, Face{Indices: polygon})
		return nil
	}
	// fan around the first corner
	for i := 1; i+1 < len(polygon); i++ {
		g.faces = append(g.faces, Face{Indices: []uint32{polygon[0], polygon[i], polygon[i+1]}})
	}
	return nil
}

func (d *objDecoder) loadMTL(name string) {
	if d.open == nil {
		d.warnf("material library %q not loaded", name)
		return
	}
	rc, err := d.open(name)
	if err != nil {
		d.warnf("material library %q: %v", name, err)
		return
	}
	defer rc.Close()

	mats, err := DecodeMTL(rc)
	if err != nil {
		d.warnf("material library %q: %v", name, err)
	}
	for _, m := range mats {
		if _, dup := d.materials[m.Name]; dup {
			continue
		}
		d.materials[m.Name] = len(d.mats)
		d.mats = append(d.mats, m)
	}
}

// materialIndex returns the scene index of name, creating the default
// material on first use when name is unknown.
func (d *objDecoder) materialIndex(name string) int {
	if i, ok := d.materials[name]; ok {
		return i
	}
	if name != "" {
		d.warnf("material %q is not defined, using %s", name, objDefaultMaterial)
	}
	if i, ok := d.materials[objDefaultMaterial]; ok {
		d.materials[name] = i
		return i
	}
	i := len(d.mats)
	d.mats = append(d.mats, Material{
		Name:      objDefaultMaterial,
		Shading:   ShadingGouraud,
		Ambient:   [3]float32{0.2, 0.2, 0.2},
		Diffuse:   [3]float32{0.6, 0.6, 0.6},
		Shininess: 0,
	})
	d.materials[objDefaultMaterial] = i
	d.materials[name] = i
	return i
}

func (d *objDecoder) scene() *Scene {
	s := &Scene{
		Root: &Node{Name: "ROOT", Transform: mgl32.Ident4()},
	}

	nodes := make(map[string]*Node)
	for _, o := range d.objects {
		n := &Node{Name: o, Transform: mgl32.Ident4()}
		nodes[o] = n
		s.Root.Children = append(s.Root.Children, n)
	}

	for _, g := range d.order {
		mesh := Mesh{
			Name:          g.key.object,
			Faces:         g.faces,
			MaterialIndex: d.materialIndex(g.key.material),
		}
		if g.key.material != "" {
			mesh.Name = g.key.object + "_" + g.key.material
		}
		mesh.Vertices = make([][3]float32, len(g.corners))
		if g.hasNorm {
			mesh.Normals = make([][3]float32, len(g.corners))
		}
		var uv UVChannel
		if g.hasUV {
			uv = UVChannel{Components: d.uvComps, Coords: make([][3]float32, len(g.corners))}
		}
		for i, c := range g.corners {
			mesh.Vertices[i] = d.positions[c[0]]
			if c[1] >= 0 && g.hasUV {
				uv.Coords[i] = d.texcoords[c[1]]
			}
			if c[2] >= 0 && g.hasNorm {
				mesh.Normals[i] = d.normals[c[2]]
			}
		}
		if g.hasUV {
			mesh.UVChannels = []UVChannel{uv}
		}
		if !g.hasNorm {
			mesh.Normals = SmoothNormals(mesh.Vertices, mesh.Faces)
			d.warnf("mesh %q has no normals, generated smooth normals", mesh.Name)
		}

		nodes[g.key.object].Meshes = append(nodes[g.key.object].Meshes, len(s.Meshes))
		s.Meshes = append(s.Meshes, mesh)
	}

	s.Materials = d.mats
	s.Warnings = d.warnings
	return s
}

// DecodeMTL parses a Wavefront material library. Materials parsed before a
// syntax error are returned alongside the error.
func DecodeMTL(r io.Reader) ([]Material, error) {
	var (
		mats []Material
		cur  *Material
		line int
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		fields := strings.Fields(text)
		kw, args := fields[0], fields[1:]
		if kw == "newmtl" {
			mats = append(mats, Material{
				Name:    strings.Join(args, " "),
				Shading: ShadingGouraud,
			})
			cur = &mats[len(mats)-1]
			continue
		}
		if cur == nil {
			continue
		}

		var err error
		switch kw {
		case "Ka":
			cur.Ambient, err = parseFloats(args, 3)
		case "Kd":
			cur.Diffuse, err = parseFloats(args, 3)
		case "Ks":
			cur.Specular, err = parseFloats(args, 3)
		case "Ns":
			var v [3]float32
			v, err = parseFloats(args, 1)
			cur.Shininess = v[0]
		case "illum":
			var n int
			if len(args) == 0 {
				err = fmt.Errorf("%w: illum without value", ErrOBJSyntax)
				break
			}
			n, err = strconv.Atoi(args[0])
			cur.Shading = illumShading(n)
		}
		if err != nil {
			return mats, fmt.Errorf("mtl line %d: %w", line, err)
		}
	}
	return mats, sc.Err()
}

func illumShading(illum int) ShadingModel {
	switch {
	case illum <= 0:
		return ShadingFlat
	case illum == 1:
		return ShadingGouraud
	default:
		return ShadingPhong
	}
}
