package model

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/animodel/pkg/formats"
)

// DefaultMaterialName replaces materials whose shading model is unsupported.
const DefaultMaterialName = "DefaultMaterial"

const (
	defaultShininess = 30
	ambientScale     = 0.2
)

// ConvertMaterial resolves a raw material. Only Phong and Gouraud keep
// their colours; ok is false when the default material was substituted.
func ConvertMaterial(src formats.Material) (mat Material, ok bool) {
	switch src.Shading {
	case formats.ShadingPhong, formats.ShadingGouraud:
	default:
		return Material{Name: DefaultMaterialName, Shininess: defaultShininess}, false
	}

	mat = Material{
		Name:      src.Name,
		Ambient:   mgl32.Vec3(src.Ambient).Mul(ambientScale),
		Diffuse:   mgl32.Vec3(src.Diffuse),
		Specular:  mgl32.Vec3(src.Specular),
		Shininess: src.Shininess,
	}
	if mat.Shininess == 0 {
		mat.Shininess = defaultShininess
	}
	return mat, true
}

func (b *builder) addMaterials(src []formats.Material) {
	for i := range src {
		mat, ok := ConvertMaterial(src[i])
		if !ok {
			b.diag(StageMaterial, src[i].Name, "shading model %q unsupported, using %s", src[i].Shading, DefaultMaterialName)
		}
		b.m.Materials = append(b.m.Materials, mat)
	}
}

// materialFor maps a raw material index, falling back to a shared default
// material for out of range indices.
func (b *builder) materialFor(mesh string, idx int) int {
	if idx >= 0 && idx < len(b.m.Materials) {
		return idx
	}
	if b.defaultMaterial < 0 {
		b.defaultMaterial = len(b.m.Materials)
		b.m.Materials = append(b.m.Materials, Material{Name: DefaultMaterialName, Shininess: defaultShininess})
	}
	b.diag(StageMaterial, mesh, "material index %d invalid, using %s", idx, DefaultMaterialName)
	return b.defaultMaterial
}
