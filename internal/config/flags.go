package config

import (
	"flag"
	"path/filepath"
)

// Flags are the command-line overrides shared by the binaries.
type Flags struct {
	config     *string
	debug      *bool
	absolute   *bool
	depth      *int
	noNormal   *bool
	fps        *float64
	clip       *int
	headless   *bool
	fullscreen *bool
	windowed   *bool
	width      *int
	height     *int
	save       *bool
}

// BindFlags registers the override flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:     fs.String("config", "", "Path to config file"),
		debug:      fs.Bool("debug", false, "Enable debug logging"),
		absolute:   fs.Bool("absolute", false, "Resolve model paths as given, without searching parent directories"),
		depth:      fs.Int("depth", -1, "Parent directories searched for relative model paths"),
		noNormal:   fs.Bool("no-normalize", false, "Keep the model in its source units"),
		fps:        fs.Float64("fps", 0, "Target playback frame rate"),
		clip:       fs.Int("clip", -2, "Clip to play on start (-1 for none)"),
		headless:   fs.Bool("headless", false, "Evaluate without opening a window"),
		fullscreen: fs.Bool("fullscreen", false, "Run in fullscreen mode"),
		windowed:   fs.Bool("windowed", false, "Run in windowed mode"),
		width:      fs.Int("width", 0, "Window width"),
		height:     fs.Int("height", 0, "Window height"),
		save:       fs.Bool("save-config", false, "Write the effective config back to -config or the user config directory"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	return *f.config
}

// Persist writes cfg when -save-config was given and returns the path
// written, or "" when saving was not requested.
func (f *Flags) Persist(cfg *Config) (string, error) {
	if !*f.save {
		return "", nil
	}
	if path := f.ConfigPath(); path != "" {
		return path, cfg.SaveTo(path)
	}
	return filepath.Join(ConfigDir(), FileName), cfg.Save()
}

// apply copies the flags that were set onto cfg.
func (f *Flags) apply(cfg *Config) {
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if *f.absolute {
		cfg.Loader.PathMode = "absolute"
	}
	if *f.depth >= 0 {
		cfg.Loader.SearchDepth = *f.depth
	}
	if *f.noNormal {
		cfg.Loader.UnitNormalize = false
	}
	if *f.fps > 0 {
		cfg.Animation.TargetFrameRate = *f.fps
	}
	if *f.clip >= -1 {
		cfg.Animation.DefaultClip = *f.clip
	}
	if *f.headless {
		cfg.Viewer.Headless = true
	}
	if *f.windowed {
		cfg.Viewer.Fullscreen = false
	}
	if *f.fullscreen {
		cfg.Viewer.Fullscreen = true
	}
	if *f.width > 0 {
		cfg.Viewer.Width = *f.width
	}
	if *f.height > 0 {
		cfg.Viewer.Height = *f.height
	}
}
