// Package config handles loading and saving of animodel settings.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Loader    LoaderConfig    `yaml:"loader"`
	Animation AnimationConfig `yaml:"animation"`
	Viewer    ViewerConfig    `yaml:"viewer"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoaderConfig controls model file resolution and import.
type LoaderConfig struct {
	PathMode      string `yaml:"path_mode"`    // relative or absolute
	SearchDepth   int    `yaml:"search_depth"` // parent directories tried in relative mode
	UnitNormalize bool   `yaml:"unit_normalize"`
}

// AnimationConfig controls playback.
type AnimationConfig struct {
	TargetFrameRate  float64 `yaml:"target_frame_rate"`
	FallbackTickStep float64 `yaml:"fallback_tick_step"` // per-frame advance of clips without ticks per second
	DefaultClip      int     `yaml:"default_clip"`       // -1 plays nothing
}

// ViewerConfig holds window and renderer settings.
type ViewerConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	GLMajor    int  `yaml:"gl_major"`
	GLMinor    int  `yaml:"gl_minor"`
	Headless   bool `yaml:"headless"`

	// Eye-space light position and intensity.
	LightPosition  [3]float32 `yaml:"light_position"`
	LightIntensity float32    `yaml:"light_intensity"`

	ScreenshotDir    string `yaml:"screenshot_dir"`
	ScreenshotFormat string `yaml:"screenshot_format"` // png or bmp
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Loader: LoaderConfig{
			PathMode:      "relative",
			SearchDepth:   5,
			UnitNormalize: true,
		},
		Animation: AnimationConfig{
			TargetFrameRate:  25,
			FallbackTickStep: 1,
			DefaultClip:      -1,
		},
		Viewer: ViewerConfig{
			Width:   1024,
			Height:  768,
			VSync:   true,
			GLMajor: 3,
			GLMinor: 3,

			LightPosition:  [3]float32{2, -2, 3},
			LightIntensity: 1,

			ScreenshotDir:    "screenshots",
			ScreenshotFormat: "png",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Loader.PathMode) {
	case "relative", "absolute":
	default:
		return fmt.Errorf("%w: loader.path_mode %q", ErrInvalid, c.Loader.PathMode)
	}
	if c.Loader.SearchDepth < 0 {
		return fmt.Errorf("%w: loader.search_depth %d", ErrInvalid, c.Loader.SearchDepth)
	}
	if c.Animation.TargetFrameRate <= 0 {
		return fmt.Errorf("%w: animation.target_frame_rate %g", ErrInvalid, c.Animation.TargetFrameRate)
	}
	if c.Animation.FallbackTickStep <= 0 {
		return fmt.Errorf("%w: animation.fallback_tick_step %g", ErrInvalid, c.Animation.FallbackTickStep)
	}
	if c.Animation.DefaultClip < -1 {
		return fmt.Errorf("%w: animation.default_clip %d", ErrInvalid, c.Animation.DefaultClip)
	}
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 {
		return fmt.Errorf("%w: viewer size %dx%d", ErrInvalid, c.Viewer.Width, c.Viewer.Height)
	}
	if c.Viewer.LightIntensity < 0 {
		return fmt.Errorf("%w: viewer.light_intensity %g", ErrInvalid, c.Viewer.LightIntensity)
	}
	switch strings.ToLower(c.Viewer.ScreenshotFormat) {
	case "png", "bmp":
	default:
		return fmt.Errorf("%w: viewer.screenshot_format %q", ErrInvalid, c.Viewer.ScreenshotFormat)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level)
	}
	return nil
}
