// Package viewer implements the interactive model viewer loop.
package viewer

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/animodel/internal/config"
	"github.com/Faultbox/animodel/internal/engine/animation"
	"github.com/Faultbox/animodel/internal/engine/camera"
	"github.com/Faultbox/animodel/internal/engine/debug"
	"github.com/Faultbox/animodel/internal/engine/input"
	"github.com/Faultbox/animodel/internal/engine/lighting"
	"github.com/Faultbox/animodel/internal/engine/model"
	"github.com/Faultbox/animodel/internal/engine/renderer"
	"github.com/Faultbox/animodel/internal/engine/window"
	"github.com/Faultbox/animodel/internal/logger"
)

var (
	// ErrHeadless is returned by Run when the viewer has no window.
	ErrHeadless = errors.New("viewer is headless")
	// ErrNoReadback is returned by Screenshot when the backend cannot read pixels.
	ErrNoReadback = errors.New("backend cannot read back frames")
)

// Viewer plays one model.
type Viewer struct {
	cfg   *config.Config
	title string
	log   *zap.Logger

	model   *model.Model
	anim    *animation.Animator
	camera  *camera.OrbitCamera
	backend renderer.Backend
	shots   *debug.ScreenshotCapture

	window *window.Window // nil when headless
	input  *input.Input

	period  time.Duration
	running bool
	frames  int
}

// New creates a viewer for m. Unless cfg.Viewer.Headless is set this opens
// a window, so it must run on the main thread.
func New(cfg *config.Config, m *model.Model, title string) (*Viewer, error) {
	v := &Viewer{
		cfg:   cfg,
		title: title,
		log:   logger.Named("viewer"),
		model: m,
		anim: animation.New(m, animation.Settings{
			TargetFrameRate: cfg.Animation.TargetFrameRate,
			FallbackStep:    cfg.Animation.FallbackTickStep,
		}),
		camera: camera.NewOrbitCamera(),
		shots:  debug.NewScreenshotCapture(cfg.Viewer.ScreenshotDir, "animodel"),
	}
	if err := v.shots.SetFormat(cfg.Viewer.ScreenshotFormat); err != nil {
		v.log.Warn("screenshot format ignored", zap.Error(err))
	}
	v.period = time.Duration(float64(time.Second) / v.anim.Settings().TargetFrameRate)

	caps := renderer.Capabilities{Headless: cfg.Viewer.Headless}
	if !caps.Headless {
		w, err := window.New(window.Config{
			Title:      title,
			Width:      cfg.Viewer.Width,
			Height:     cfg.Viewer.Height,
			Fullscreen: cfg.Viewer.Fullscreen,
			VSync:      cfg.Viewer.VSync,
			GLMajor:    cfg.Viewer.GLMajor,
			GLMinor:    cfg.Viewer.GLMinor,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create window: %w", err)
		}
		v.window = w
		v.input = input.New()
		caps.GLMajor, caps.GLMinor = w.GLVersion()
	}

	backend, err := renderer.New(caps)
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	v.backend = backend
	backend.SetLight(lighting.New(cfg.Viewer.LightPosition, cfg.Viewer.LightIntensity))

	if err := backend.Upload(m); err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to upload model: %w", err)
	}
	backend.Resize(cfg.Viewer.Width, cfg.Viewer.Height)

	if clip := cfg.Animation.DefaultClip; clip != animation.NoClip {
		if err := v.anim.SelectClip(clip); err != nil {
			v.log.Warn("default clip unavailable", zap.Int("clip", clip), zap.Error(err))
		}
	}
	v.updateTitle()

	v.log.Info("viewer initialized",
		zap.Bool("headless", caps.Headless),
		zap.Int("meshes", len(m.Meshes)),
		zap.Int("clips", len(m.Clips)),
	)
	return v, nil
}

// Animator returns the playback state.
func (v *Viewer) Animator() *animation.Animator {
	return v.anim
}

// Backend returns the renderer backend.
func (v *Viewer) Backend() renderer.Backend {
	return v.backend
}

// Frames returns the number of frames drawn so far.
func (v *Viewer) Frames() int {
	return v.frames
}

// Run processes input and draws frames at the target frame rate until
// the window is closed or ESC is pressed.
func (v *Viewer) Run() error {
	if v.window == nil {
		return ErrHeadless
	}
	v.running = true

	fpsFrames := 0
	fpsTimer := time.Now()

	v.log.Info("starting viewer loop", zap.Duration("period", v.period))

	for v.running {
		start := time.Now()

		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents(v.input.Events())
		for _, cmd := range v.input.Commands() {
			v.handle(cmd)
		}
		if !v.running {
			break
		}

		v.frame()
		v.window.SwapBuffers()

		fpsFrames++
		if time.Since(fpsTimer) >= time.Second {
			v.log.Debug("fps", zap.Int("count", fpsFrames), zap.Float64("tick", v.anim.Tick()))
			fpsFrames = 0
			fpsTimer = time.Now()
		}

		if rest := v.period - time.Since(start); rest > 0 {
			time.Sleep(rest)
		}
	}

	return nil
}

// RunFrames draws n frames without pacing or input.
func (v *Viewer) RunFrames(n int) {
	for i := 0; i < n; i++ {
		v.frame()
	}
}

// Close releases the renderer and window.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.backend != nil {
		v.backend.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

func (v *Viewer) frame() {
	poses := v.anim.Frame()
	v.backend.Draw(v.model, poses, renderer.FromOrbit(v.camera, v.aspect()))
	v.frames++
}

func (v *Viewer) aspect() float32 {
	if v.window != nil {
		return v.window.Aspect()
	}
	if v.cfg.Viewer.Height == 0 {
		return 1
	}
	return float32(v.cfg.Viewer.Width) / float32(v.cfg.Viewer.Height)
}

func (v *Viewer) handleEvents(events []input.Event) {
	for _, e := range events {
		switch e.Type {
		case input.EventWindowResize:
			v.backend.Resize(e.Width, e.Height)
		case input.EventMouseMove:
			if e.Button != 0 {
				v.camera.HandleDrag(float32(e.MouseX), float32(e.MouseY))
			}
		case input.EventMouseWheel:
			v.camera.HandleZoom(e.Wheel)
		}
	}
}

func (v *Viewer) handle(cmd input.Command) {
	switch cmd {
	case input.CommandQuit:
		v.running = false
	case input.CommandNextClip:
		v.selectClip(nextClip(v.anim.Clip(), len(v.model.Clips)))
	case input.CommandNoClip:
		v.selectClip(animation.NoClip)
	case input.CommandRestart:
		v.anim.Restart()
	case input.CommandResetCamera:
		v.camera.Reset()
	case input.CommandScreenshot:
		if name, err := v.Screenshot(); err != nil {
			v.log.Warn("screenshot failed", zap.Error(err))
		} else {
			v.log.Info("screenshot saved", zap.String("file", name))
		}
	}
}

// Screenshot saves the last drawn frame.
func (v *Viewer) Screenshot() (string, error) {
	reader, ok := v.backend.(renderer.PixelReader)
	if !ok {
		return "", ErrNoReadback
	}
	width, height := v.cfg.Viewer.Width, v.cfg.Viewer.Height
	if v.window != nil {
		width, height = v.window.GetSize()
	}
	return v.shots.CaptureFromPixels(reader.ReadPixels(width, height), width, height)
}

func (v *Viewer) selectClip(clip int) {
	if err := v.anim.SelectClip(clip); err != nil {
		v.log.Warn("clip selection failed", zap.Int("clip", clip), zap.Error(err))
		return
	}
	v.log.Info("clip selected", zap.Int("clip", clip), zap.String("name", v.clipName()))
	v.updateTitle()
}

// nextClip cycles none, 0, 1, ..., count-1, none.
func nextClip(current, count int) int {
	if current+1 >= count {
		return animation.NoClip
	}
	return current + 1
}

func (v *Viewer) clipName() string {
	clip := v.anim.Clip()
	if clip == animation.NoClip {
		return "static"
	}
	if name := v.model.Clips[clip].Name; name != "" {
		return name
	}
	return fmt.Sprintf("clip %d", clip)
}

func (v *Viewer) updateTitle() {
	if v.window != nil {
		v.window.SetTitle(fmt.Sprintf("%s [%s]", v.title, v.clipName()))
	}
}
