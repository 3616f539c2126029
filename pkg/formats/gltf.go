package formats

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// glTF stores time in seconds; scenes use millisecond ticks.
const gltfTicksPerSecond = 1000

var (
	ErrGLTFAccessor = errors.New("invalid glTF accessor")
	ErrGLTFSampler  = errors.New("invalid glTF animation sampler")
)

// ParseGLTF opens a .gltf or .glb file and converts it to a raw scene.
func ParseGLTF(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening gltf %s: %w", path, err)
	}
	return FromGLTF(doc)
}

// FromGLTF converts an already decoded glTF document.
func FromGLTF(doc *gltf.Document) (*Scene, error) {
	c := &gltfConverter{
		doc:        doc,
		primitives: make(map[uint32][]int),
	}
	return c.convert()
}

type gltfConverter struct {
	doc   *gltf.Document
	scene Scene

	// glTF mesh index -> raw mesh indices, one per primitive
	primitives map[uint32][]int
}

func (c *gltfConverter) convert() (*Scene, error) {
	for _, m := range c.doc.Materials {
		c.scene.Materials = append(c.scene.Materials, gltfMaterial(m))
	}

	skins := c.meshSkins()
	for mi, m := range c.doc.Meshes {
		for pi, p := range m.Primitives {
			mesh, err := c.convertPrimitive(m, pi, p, skins[uint32(mi)])
			if err != nil {
				return nil, err
			}
			c.primitives[uint32(mi)] = append(c.primitives[uint32(mi)], len(c.scene.Meshes))
			c.scene.Meshes = append(c.scene.Meshes, *mesh)
		}
	}

	c.scene.Root = c.convertRoot()

	for ai, a := range c.doc.Animations {
		anim, err := c.convertAnimation(ai, a)
		if err != nil {
			return nil, err
		}
		c.scene.Animations = append(c.scene.Animations, *anim)
	}

	return &c.scene, nil
}

// nodeName returns the name used for node i everywhere in the scene so that
// joints, channels and hierarchy entries agree on unnamed nodes.
func (c *gltfConverter) nodeName(i uint32) string {
	if int(i) < len(c.doc.Nodes) && c.doc.Nodes[i].Name != "" {
		return c.doc.Nodes[i].Name
	}
	return "node_" + strconv.Itoa(int(i))
}

// meshSkins maps a mesh to the skin of the first node instancing it.
func (c *gltfConverter) meshSkins() map[uint32]*gltf.Skin {
	skins := make(map[uint32]*gltf.Skin)
	for _, n := range c.doc.Nodes {
		if n.Mesh == nil || n.Skin == nil || int(*n.Skin) >= len(c.doc.Skins) {
			continue
		}
		if _, ok := skins[*n.Mesh]; !ok {
			skins[*n.Mesh] = c.doc.Skins[*n.Skin]
		}
	}
	return skins
}

func gltfMaterial(m *gltf.Material) Material {
	mat := Material{
		Name:    m.Name,
		Shading: ShadingPBR,
	}
	if m.PBRMetallicRoughness != nil {
		base := m.PBRMetallicRoughness.BaseColorFactorOrDefault()
		mat.Diffuse = [3]float32{base[0], base[1], base[2]}
		mat.Ambient = mat.Diffuse
	}
	if _, ok := m.Extensions["KHR_materials_unlit"]; ok {
		mat.Shading = ShadingUnlit
	}

	// Legacy shading parameters baked by exporters into extras.
	extras, ok := m.Extras.(map[string]interface{})
	if !ok {
		return mat
	}
	if s, ok := extras["shadingModel"].(string); ok {
		mat.Shading = ParseShadingModel(s)
	}
	readColor(extras, "ambient", &mat.Ambient)
	readColor(extras, "diffuse", &mat.Diffuse)
	readColor(extras, "specular", &mat.Specular)
	if v, ok := extras["shininess"].(float64); ok {
		mat.Shininess = float32(v)
	}
	return mat
}

func readColor(extras map[string]interface{}, key string, dst *[3]float32) {
	vals, ok := extras[key].([]interface{})
	if !ok || len(vals) < 3 {
		return
	}
	for i := 0; i < 3; i++ {
		if f, ok := vals[i].(float64); ok {
			dst[i] = float32(f)
		}
	}
}

func (c *gltfConverter) accessor(idx uint32) (*gltf.Accessor, error) {
	if int(idx) >= len(c.doc.Accessors) {
		return nil, fmt.Errorf("%w: index %d out of range", ErrGLTFAccessor, idx)
	}
	return c.doc.Accessors[idx], nil
}

func (c *gltfConverter) convertPrimitive(m *gltf.Mesh, pi int, p *gltf.Primitive, skin *gltf.Skin) (*Mesh, error) {
	mesh := &Mesh{
		Name:          m.Name,
		MaterialIndex: -1,
	}
	if len(m.Primitives) > 1 {
		mesh.Name = m.Name + "_" + strconv.Itoa(pi)
	}
	if p.Material != nil {
		mesh.MaterialIndex = int(*p.Material)
	}

	posIdx, ok := p.Attributes["POSITION"]
	if !ok {
		return mesh, nil
	}
	acr, err := c.accessor(posIdx)
	if err != nil {
		return nil, err
	}
	mesh.Vertices, err = modeler.ReadPosition(c.doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("reading positions of mesh %q: %w", mesh.Name, err)
	}

	if idx, ok := p.Attributes["NORMAL"]; ok {
		if acr, err = c.accessor(idx); err != nil {
			return nil, err
		}
		if mesh.Normals, err = modeler.ReadNormal(c.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("reading normals of mesh %q: %w", mesh.Name, err)
		}
	}

	if idx, ok := p.Attributes["TANGENT"]; ok && len(mesh.Normals) == len(mesh.Vertices) {
		if acr, err = c.accessor(idx); err != nil {
			return nil, err
		}
		tangents, err := modeler.ReadTangent(c.doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("reading tangents of mesh %q: %w", mesh.Name, err)
		}
		mesh.Tangents, mesh.Bitangents = tangentFrame(mesh.Normals, tangents)
	}

	for ch := 0; ; ch++ {
		idx, ok := p.Attributes["TEXCOORD_"+strconv.Itoa(ch)]
		if !ok {
			break
		}
		if acr, err = c.accessor(idx); err != nil {
			return nil, err
		}
		uv, err := modeler.ReadTextureCoord(c.doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("reading uv channel %d of mesh %q: %w", ch, mesh.Name, err)
		}
		coords := make([][3]float32, len(uv))
		for i, t := range uv {
			coords[i] = [3]float32{t[0], t[1], 0}
		}
		mesh.UVChannels = append(mesh.UVChannels, UVChannel{Components: 2, Coords: coords})
	}

	indices, err := c.primitiveIndices(p, len(mesh.Vertices))
	if err != nil {
		return nil, fmt.Errorf("reading indices of mesh %q: %w", mesh.Name, err)
	}
	mesh.Faces = primitiveFaces(p.Mode, indices)

	if len(mesh.Normals) != len(mesh.Vertices) {
		mesh.Normals = SmoothNormals(mesh.Vertices, mesh.Faces)
		c.scene.Warnings = append(c.scene.Warnings,
			fmt.Sprintf("mesh %q has no normals, generated smooth normals", mesh.Name))
	}

	if skin != nil {
		if mesh.Bones, err = c.primitiveBones(p, skin); err != nil {
			return nil, fmt.Errorf("reading skin of mesh %q: %w", mesh.Name, err)
		}
	}
	return mesh, nil
}

func (c *gltfConverter) primitiveIndices(p *gltf.Primitive, vertexCount int) ([]uint32, error) {
	if p.Indices == nil {
		indices := make([]uint32, vertexCount)
		for i := range indices {
			indices[i] = uint32(i)
		}
		return indices, nil
	}
	acr, err := c.accessor(*p.Indices)
	if err != nil {
		return nil, err
	}
	return modeler.ReadIndices(c.doc, acr, nil)
}

// primitiveFaces groups an index list by primitive mode. Point and line
// primitives keep their native arity so that the mesh builder can reject them.
func primitiveFaces(mode gltf.PrimitiveMode, indices []uint32) []Face {
	var faces []Face
	switch mode {
	case gltf.PrimitiveTriangles:
		for i := 0; i+2 < len(indices); i += 3 {
			faces = append(faces, Face{Indices: []uint32{indices[i], indices[i+1], indices[i+2]}})
		}
	case gltf.PrimitiveTriangleStrip:
		for i := 0; i+2 < len(indices); i++ {
			if i%2 == 0 {
				faces = append(faces, Face{Indices: []uint32{indices[i], indices[i+1], indices[i+2]}})
			} else {
				faces = append(faces, Face{Indices: []uint32{indices[i+1], indices[i], indices[i+2]}})
			}
		}
	case gltf.PrimitiveTriangleFan:
		for i := 1; i+1 < len(indices); i++ {
			faces = append(faces, Face{Indices: []uint32{indices[0], indices[i], indices[i+1]}})
		}
	case gltf.PrimitiveLines:
		for i := 0; i+1 < len(indices); i += 2 {
			faces = append(faces, Face{Indices: []uint32{indices[i], indices[i+1]}})
		}
	default:
		for _, idx := range indices {
			faces = append(faces, Face{Indices: []uint32{idx}})
		}
	}
	return faces
}

func (c *gltfConverter) primitiveBones(p *gltf.Primitive, skin *gltf.Skin) ([]Bone, error) {
	jointsIdx, hasJoints := p.Attributes["JOINTS_0"]
	weightsIdx, hasWeights := p.Attributes["WEIGHTS_0"]
	if !hasJoints || !hasWeights {
		return nil, nil
	}

	acr, err := c.accessor(jointsIdx)
	if err != nil {
		return nil, err
	}
	joints, err := modeler.ReadJoints(c.doc, acr, nil)
	if err != nil {
		return nil, err
	}
	if acr, err = c.accessor(weightsIdx); err != nil {
		return nil, err
	}
	weights, err := modeler.ReadWeights(c.doc, acr, nil)
	if err != nil {
		return nil, err
	}

	offsets, err := c.inverseBindMatrices(skin)
	if err != nil {
		return nil, err
	}

	// Bones are emitted in joint order, only for joints that influence
	// at least one vertex of this primitive.
	perJoint := make([][]VertexWeight, len(skin.Joints))
	for v := 0; v < len(joints) && v < len(weights); v++ {
		for k := 0; k < 4; k++ {
			w := weights[v][k]
			j := int(joints[v][k])
			if w == 0 || j >= len(skin.Joints) {
				continue
			}
			perJoint[j] = append(perJoint[j], VertexWeight{VertexID: uint32(v), Weight: w})
		}
	}

	var bones []Bone
	for j, ws := range perJoint {
		if len(ws) == 0 {
			continue
		}
		bones = append(bones, Bone{
			Name:    c.nodeName(skin.Joints[j]),
			Offset:  offsets[j],
			Weights: ws,
		})
	}
	return bones, nil
}

func (c *gltfConverter) inverseBindMatrices(skin *gltf.Skin) ([]mgl32.Mat4, error) {
	offsets := make([]mgl32.Mat4, len(skin.Joints))
	for i := range offsets {
		offsets[i] = mgl32.Ident4()
	}
	if skin.InverseBindMatrices == nil {
		return offsets, nil
	}
	acr, err := c.accessor(*skin.InverseBindMatrices)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadAccessor(c.doc, acr, nil)
	if err != nil {
		return nil, err
	}
	mats, ok := data.([][4][4]float32)
	if !ok {
		return nil, fmt.Errorf("%w: inverse bind matrices are %T", ErrGLTFAccessor, data)
	}
	for i := 0; i < len(mats) && i < len(offsets); i++ {
		offsets[i] = mat4FromColumns(mats[i])
	}
	return offsets, nil
}

func mat4FromColumns(cols [4][4]float32) mgl32.Mat4 {
	var m mgl32.Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			m[c*4+r] = cols[c][r]
		}
	}
	return m
}

func tangentFrame(normals [][3]float32, tangents [][4]float32) (t, b [][3]float32) {
	t = make([][3]float32, len(normals))
	b = make([][3]float32, len(normals))
	for i := range normals {
		if i >= len(tangents) {
			break
		}
		tv := mgl32.Vec3{tangents[i][0], tangents[i][1], tangents[i][2]}
		nv := mgl32.Vec3(normals[i])
		bv := nv.Cross(tv).Mul(tangents[i][3])
		t[i] = tv
		b[i] = bv
	}
	return t, b
}

func (c *gltfConverter) convertRoot() *Node {
	roots := c.sceneRoots()
	if len(roots) == 0 {
		return nil
	}
	visited := make(map[uint32]bool)
	root := &Node{Name: "ROOT", Transform: mgl32.Ident4()}
	for _, r := range roots {
		if n := c.convertNode(r, visited); n != nil {
			root.Children = append(root.Children, n)
		}
	}
	return root
}

func (c *gltfConverter) sceneRoots() []uint32 {
	doc := c.doc
	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	if len(doc.Scenes) > 0 {
		return doc.Scenes[0].Nodes
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, ch := range n.Children {
			if int(ch) < len(isChild) {
				isChild[ch] = true
			}
		}
	}
	var roots []uint32
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

func (c *gltfConverter) convertNode(idx uint32, visited map[uint32]bool) *Node {
	if int(idx) >= len(c.doc.Nodes) || visited[idx] {
		return nil
	}
	visited[idx] = true

	src := c.doc.Nodes[idx]
	node := &Node{
		Name:      c.nodeName(idx),
		Transform: gltfNodeTransform(src),
	}
	if src.Mesh != nil {
		node.Meshes = append(node.Meshes, c.primitives[*src.Mesh]...)
	}
	for _, ch := range src.Children {
		if child := c.convertNode(ch, visited); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}

func gltfNodeTransform(n *gltf.Node) mgl32.Mat4 {
	m := mgl32.Mat4(n.MatrixOrDefault())
	if m != mgl32.Ident4() {
		return m
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	rot := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}.Normalize()
	return mgl32.Translate3D(t[0], t[1], t[2]).
		Mul4(rot.Mat4()).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

func (c *gltfConverter) convertAnimation(ai int, a *gltf.Animation) (*Animation, error) {
	anim := &Animation{
		Name:           a.Name,
		TicksPerSecond: gltfTicksPerSecond,
	}
	if anim.Name == "" {
		anim.Name = "animation_" + strconv.Itoa(ai)
	}

	byNode := make(map[uint32]int)
	for ci, ch := range a.Channels {
		if ch.Target.Node == nil || ch.Sampler == nil {
			continue
		}
		if int(*ch.Sampler) >= len(a.Samplers) {
			return nil, fmt.Errorf("%w: animation %q channel %d", ErrGLTFSampler, anim.Name, ci)
		}
		sampler := a.Samplers[*ch.Sampler]
		if sampler.Input == nil || sampler.Output == nil {
			return nil, fmt.Errorf("%w: animation %q channel %d has no input/output", ErrGLTFSampler, anim.Name, ci)
		}

		times, err := c.readTimes(*sampler.Input)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: %w", anim.Name, ci, err)
		}
		if len(times) > 0 && times[len(times)-1] > anim.Duration {
			anim.Duration = times[len(times)-1]
		}

		node := *ch.Target.Node
		pos, ok := byNode[node]
		if !ok {
			pos = len(anim.Channels)
			byNode[node] = pos
			anim.Channels = append(anim.Channels, Channel{
				NodeName:  c.nodeName(node),
				PreState:  BehaviourDefault,
				PostState: BehaviourDefault,
			})
		}
		target := &anim.Channels[pos]
		cubic := sampler.Interpolation == gltf.InterpolationCubicSpline

		switch ch.Target.Path {
		case gltf.TRSTranslation, gltf.TRSScale:
			values, err := c.readVec3(*sampler.Output)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d: %w", anim.Name, ci, err)
			}
			keys := make([]VectorKey, 0, len(times))
			for i, t := range times {
				v, ok := splineValue(values, i, cubic)
				if !ok {
					break
				}
				keys = append(keys, VectorKey{Time: t, Value: mgl32.Vec3(v)})
			}
			if ch.Target.Path == gltf.TRSTranslation {
				target.PositionKeys = keys
			} else {
				target.ScalingKeys = keys
			}
		case gltf.TRSRotation:
			values, err := c.readQuats(*sampler.Output)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d: %w", anim.Name, ci, err)
			}
			keys := make([]QuatKey, 0, len(times))
			for i, t := range times {
				v, ok := splineValue(values, i, cubic)
				if !ok {
					break
				}
				keys = append(keys, QuatKey{Time: t, Value: mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}})
			}
			target.RotationKeys = keys
		}
	}
	return anim, nil
}

// splineValue picks sample i; cubic spline outputs interleave
// (in-tangent, value, out-tangent) triples.
func splineValue[T any](values []T, i int, cubic bool) (T, bool) {
	idx := i
	if cubic {
		idx = i*3 + 1
	}
	if idx >= len(values) {
		var zero T
		return zero, false
	}
	return values[idx], true
}

func (c *gltfConverter) readTimes(idx uint32) ([]float64, error) {
	acr, err := c.accessor(idx)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadAccessor(c.doc, acr, nil)
	if err != nil {
		return nil, err
	}
	secs, ok := data.([]float32)
	if !ok {
		return nil, fmt.Errorf("%w: key times are %T", ErrGLTFAccessor, data)
	}
	times := make([]float64, len(secs))
	for i, s := range secs {
		times[i] = float64(s) * gltfTicksPerSecond
	}
	return times, nil
}

func (c *gltfConverter) readVec3(idx uint32) ([][3]float32, error) {
	acr, err := c.accessor(idx)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadAccessor(c.doc, acr, nil)
	if err != nil {
		return nil, err
	}
	v, ok := data.([][3]float32)
	if !ok {
		return nil, fmt.Errorf("%w: vector keys are %T", ErrGLTFAccessor, data)
	}
	return v, nil
}

// readQuats decodes float and normalized integer rotation outputs.
func (c *gltfConverter) readQuats(idx uint32) ([][4]float32, error) {
	acr, err := c.accessor(idx)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadAccessor(c.doc, acr, nil)
	if err != nil {
		return nil, err
	}
	switch v := data.(type) {
	case [][4]float32:
		return v, nil
	case [][4]int8:
		return normalizeQuats(v, 127), nil
	case [][4]uint8:
		return normalizeQuats(v, 255), nil
	case [][4]int16:
		return normalizeQuats(v, 32767), nil
	case [][4]uint16:
		return normalizeQuats(v, 65535), nil
	}
	return nil, fmt.Errorf("%w: rotation keys are %T", ErrGLTFAccessor, data)
}

func normalizeQuats[T int8 | uint8 | int16 | uint16](in [][4]T, scale float32) [][4]float32 {
	out := make([][4]float32, len(in))
	for i, q := range in {
		for k := 0; k < 4; k++ {
			f := float32(q[k]) / scale
			if f < -1 {
				f = -1
			}
			out[i][k] = f
		}
	}
	return out
}
