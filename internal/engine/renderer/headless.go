package renderer

import (
	"go.uber.org/zap"

	"github.com/Faultbox/animodel/internal/engine/animation"
	"github.com/Faultbox/animodel/internal/engine/lighting"
	"github.com/Faultbox/animodel/internal/engine/model"
	"github.com/Faultbox/animodel/internal/logger"
)

// Frame is what the headless backend recorded for one Draw.
type Frame struct {
	Camera Camera
	Light  lighting.PointLight
	Calls  []DrawCall
}

// HeadlessBackend records draw calls instead of rendering them.
type HeadlessBackend struct {
	log *zap.Logger

	model  *model.Model
	light  lighting.PointLight
	frames []Frame
	width  int
	height int
	closed bool

	// KeepFrames bounds the recorded history; 0 keeps every frame.
	KeepFrames int
}

// NewHeadless creates a headless backend.
func NewHeadless() *HeadlessBackend {
	return &HeadlessBackend{
		log:   logger.Named("renderer.headless"),
		light: lighting.Default(),
	}
}

// Upload records the model subsequent draws refer to.
func (h *HeadlessBackend) Upload(m *model.Model) error {
	h.model = m
	h.frames = h.frames[:0]
	h.log.Debug("model uploaded",
		zap.Int("vertices", m.VertexCount()),
		zap.Int("indices", len(m.Indices)),
		zap.Int("meshes", len(m.Meshes)),
	)
	return nil
}

// Draw records the frame's draw calls. Draws of a model that was not
// uploaded are ignored.
func (h *HeadlessBackend) Draw(m *model.Model, poses []*animation.Pose, cam Camera) {
	if h.closed || m == nil || m != h.model {
		h.log.Warn("draw ignored", zap.Error(ErrNotUploaded))
		return
	}
	h.frames = append(h.frames, Frame{Camera: cam, Light: h.light, Calls: PlanDraws(m, poses)})
	if h.KeepFrames > 0 && len(h.frames) > h.KeepFrames {
		h.frames = h.frames[len(h.frames)-h.KeepFrames:]
	}
}

// SetLight replaces the light recorded with subsequent frames.
func (h *HeadlessBackend) SetLight(l lighting.PointLight) {
	h.light = l
}

// Resize records the viewport size.
func (h *HeadlessBackend) Resize(width, height int) {
	h.width, h.height = width, height
}

// Close drops the recorded frames.
func (h *HeadlessBackend) Close() {
	h.closed = true
	h.model = nil
	h.frames = nil
}

// Frames returns the recorded frames, oldest first.
func (h *HeadlessBackend) Frames() []Frame {
	return h.frames
}

// LastFrame returns the most recent frame.
func (h *HeadlessBackend) LastFrame() (Frame, bool) {
	if len(h.frames) == 0 {
		return Frame{}, false
	}
	return h.frames[len(h.frames)-1], true
}

// Size returns the last size passed to Resize.
func (h *HeadlessBackend) Size() (width, height int) {
	return h.width, h.height
}
