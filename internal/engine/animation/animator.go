// Package animation evaluates model clips into per-bone skinning matrices.
package animation

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/animodel/internal/engine/model"
	"github.com/Faultbox/animodel/internal/logger"
)

// NoClip selects static playback.
const NoClip = -1

var ErrClipOutOfRange = errors.New("clip index out of range")

// Settings controls tick advance.
type Settings struct {
	// TargetFrameRate is the number of frames per second of playback.
	// A clip advances TicksPerSecond/TargetFrameRate ticks per frame.
	TargetFrameRate float64

	// FallbackStep is the per-frame advance of clips with zero TicksPerSecond.
	FallbackStep float64
}

// DefaultSettings returns 25 frames per second and a fallback step of 1 tick.
func DefaultSettings() Settings {
	return Settings{
		TargetFrameRate: 25,
		FallbackStep:    1,
	}
}

// cursor is the last resolved key of each channel of one track.
type cursor struct {
	pos, rot, scale int
}

// Animator holds the playback state of one model instance. The model is
// shared read-only; cursors are indexed like Model.Tracks.
//
// An Animator is not safe for concurrent use.
type Animator struct {
	model    *model.Model
	settings Settings
	log      *zap.Logger

	clip    int
	tick    float64
	cursors []cursor
}

// New creates an animator with no clip selected.
func New(m *model.Model, s Settings) *Animator {
	def := DefaultSettings()
	if s.TargetFrameRate <= 0 {
		s.TargetFrameRate = def.TargetFrameRate
	}
	if s.FallbackStep <= 0 {
		s.FallbackStep = def.FallbackStep
	}
	return &Animator{
		model:    m,
		settings: s,
		log:      logger.Named("animation"),
		clip:     NoClip,
		cursors:  make([]cursor, len(m.Tracks)),
	}
}

// Model returns the animated model.
func (a *Animator) Model() *model.Model {
	return a.model
}

// Settings returns the effective playback settings.
func (a *Animator) Settings() Settings {
	return a.settings
}

// SelectClip activates clip i, or static playback for NoClip, and
// restarts at tick 0.
func (a *Animator) SelectClip(i int) error {
	if i < NoClip || i >= len(a.model.Clips) {
		return fmt.Errorf("%w: %d of %d", ErrClipOutOfRange, i, len(a.model.Clips))
	}
	a.clip = i
	a.tick = 0
	if i == NoClip {
		a.log.Debug("clip cleared")
	} else {
		c := a.model.Clips[i]
		a.log.Debug("clip selected",
			zap.Int("index", i),
			zap.String("name", c.Name),
			zap.Float64("duration", c.Duration),
			zap.Float64("ticks_per_second", c.TicksPerSecond))
	}
	return nil
}

// Clip returns the active clip index or NoClip.
func (a *Animator) Clip() int {
	return a.clip
}

// Tick returns the current playback tick.
func (a *Animator) Tick() float64 {
	return a.tick
}

// Restart rewinds the active clip. Cursors reset on the next evaluation.
func (a *Animator) Restart() {
	a.tick = 0
}

// Step returns the tick increment applied by Advance for the active clip.
func (a *Animator) Step() float64 {
	if a.clip == NoClip {
		return 0
	}
	tps := a.model.Clips[a.clip].TicksPerSecond
	if tps == 0 {
		return a.settings.FallbackStep
	}
	return tps / a.settings.TargetFrameRate
}

// Advance moves the tick forward one frame and wraps to 0 past the end of
// the clip.
func (a *Animator) Advance() {
	if a.clip == NoClip {
		return
	}
	a.tick += a.Step()
	if a.tick > a.model.Clips[a.clip].Duration {
		a.tick = 0
	}
}

// Frame evaluates every mesh at the current tick and then advances.
func (a *Animator) Frame() []*Pose {
	poses := make([]*Pose, len(a.model.Meshes))
	for i := range a.model.Meshes {
		poses[i] = a.Evaluate(i)
	}
	a.Advance()
	return poses
}

// Evaluate computes the world transform of every node at the current tick
// and the skinning matrices seen by mesh.
func (a *Animator) Evaluate(mesh int) *Pose {
	m := a.model
	p := &Pose{
		Mesh:     mesh,
		Matrices: make(map[string]mgl32.Mat4, len(m.Nodes)),
		World:    make([]mgl32.Mat4, len(m.Nodes)),
	}

	offsets := make(map[string]mgl32.Mat4)
	if mesh >= 0 && mesh < len(m.Meshes) {
		mm := &m.Meshes[mesh]
		for i, name := range mm.BoneNames {
			if _, dup := offsets[name]; !dup {
				offsets[name] = mm.BoneOffsets[i]
			}
		}
	}

	if a.clip != NoClip && a.tick == 0 {
		for i := range a.cursors {
			a.cursors[i] = cursor{}
		}
	}

	a.evaluateNode(p, m.Root, mgl32.Ident4(), offsets)
	return p
}

func (a *Animator) evaluateNode(p *Pose, idx int, parent mgl32.Mat4, offsets map[string]mgl32.Mat4) {
	m := a.model
	n := &m.Nodes[idx]

	local := n.Transform
	if a.clip != NoClip {
		if ti := n.Tracks[a.clip]; ti != model.NoTrack && m.Tracks[ti].Valid() {
			local = sampleTrack(&m.Tracks[ti], &a.cursors[ti], a.tick)
		}
	}

	world := parent.Mul4(local)
	p.World[idx] = world

	matrix := m.InverseRoot.Mul4(world)
	if off, ok := offsets[n.Name]; ok {
		matrix = matrix.Mul4(off)
	}
	p.Matrices[n.Name] = matrix

	for _, c := range n.Children {
		a.evaluateNode(p, c, world, offsets)
	}
}

// Cursor returns the cursor triple of track ti.
func (a *Animator) Cursor(ti int) (pos, rot, scale int) {
	c := a.cursors[ti]
	return c.pos, c.rot, c.scale
}
