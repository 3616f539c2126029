package model

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/animodel/internal/logger"
	"github.com/Faultbox/animodel/pkg/formats"
)

// LoadOptions controls model construction.
type LoadOptions struct {
	// NormalizeToUnit folds a transform into the root so the model is
	// centred at the origin with a largest extent of 1.
	NormalizeToUnit bool

	// Logger receives diagnostics. Nil uses the global logger.
	Logger *zap.Logger
}

// DefaultLoadOptions returns the options used by the viewer.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{NormalizeToUnit: true}
}

// builder carries the model under construction through the load stages.
type builder struct {
	m   *Model
	log *zap.Logger

	defaultMaterial int
	skinned         bool
}

func (b *builder) diag(stage Stage, subject, format string, args ...interface{}) {
	b.diagAt(zap.WarnLevel, stage, subject, format, args...)
}

func (b *builder) diagAt(lvl zapcore.Level, stage Stage, subject, format string, args ...interface{}) {
	d := Diagnostic{Stage: stage, Subject: subject, Message: fmt.Sprintf(format, args...)}
	b.m.Diagnostics = append(b.m.Diagnostics, d)
	if ce := b.log.Check(lvl, d.Message); ce != nil {
		ce.Write(zap.String("stage", string(stage)), zap.String("subject", subject))
	}
}

// Build converts a raw scene into a model. Stages run in dependency order:
// materials, meshes with their bone tables, the node tree, tracks, then
// unit normalization.
func Build(scene *formats.Scene, opts LoadOptions) (*Model, error) {
	if scene == nil || len(scene.Meshes) == 0 {
		return nil, ErrNoMeshes
	}
	if scene.Root == nil {
		return nil, ErrNoRootNode
	}

	log := opts.Logger
	if log == nil {
		log = logger.Named("model")
	}
	b := &builder{
		m:               &Model{InverseRoot: mgl32.Ident4()},
		log:             log,
		defaultMaterial: -1,
	}

	for _, w := range scene.Warnings {
		b.diag(StageParse, "", "%s", w)
	}

	b.addMaterials(scene.Materials)
	for i := range scene.Meshes {
		b.addMesh(&scene.Meshes[i])
	}
	b.finishBuffers()

	b.addClips(scene.Animations)
	b.buildTree(scene.Root)
	b.addTracks(scene.Animations)

	if opts.NormalizeToUnit {
		b.normalize()
	}
	b.cacheInverseRoot()

	st := b.m.Stats()
	log.Info("model built",
		zap.Int("vertices", st.Vertices),
		zap.Int("triangles", st.Triangles),
		zap.Int("meshes", st.Meshes),
		zap.Int("nodes", st.Nodes),
		zap.Int("clips", st.Clips),
		zap.Int("diagnostics", st.Diagnostics))

	return b.m, nil
}
