// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// SkinnedVertexShader blends up to four bone matrices per vertex.
//
//go:embed skinned.vert
var SkinnedVertexShader string

// SkinnedFragmentShader is a single-light Phong shader.
//
//go:embed skinned.frag
var SkinnedFragmentShader string

// MaxBones is the length of the boneModelMatrix uniform array.
const MaxBones = 100
