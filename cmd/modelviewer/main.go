// Package main is the entry point for the animated model viewer.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/animodel/internal/assets"
	"github.com/Faultbox/animodel/internal/config"
	"github.com/Faultbox/animodel/internal/logger"
	"github.com/Faultbox/animodel/internal/viewer"
)

func main() {
	flags := config.BindFlags(flag.CommandLine)
	frames := flag.Int("frames", 250, "Frames to evaluate in headless mode")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: modelviewer [options] <model.gltf|model.glb|model.obj>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== animodel viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if path, err := flags.Persist(cfg); err != nil {
		logger.Warn("failed to save config", zap.Error(err))
	} else if path != "" {
		logger.Info("config saved", zap.String("path", path))
	}

	opts, err := assets.OptionsFromConfig(cfg.Loader)
	if err != nil {
		logger.Error("invalid loader settings", zap.Error(err))
		os.Exit(1)
	}
	mgr := assets.NewManager(opts)
	defer mgr.Close()

	path := flag.Arg(0)
	m, err := mgr.Get(path)
	if err != nil {
		logger.Error("failed to load model", zap.String("path", path), zap.Error(err))
		os.Exit(1)
	}
	for _, d := range m.Diagnostics {
		logger.Debug("load diagnostic", zap.Stringer("diagnostic", d))
	}

	v, err := viewer.New(cfg, m, "animodel - "+filepath.Base(path))
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer v.Close()

	if cfg.Viewer.Headless {
		v.RunFrames(*frames)
		logger.Info("headless run finished",
			zap.Int("frames", v.Frames()),
			zap.Float64("tick", v.Animator().Tick()),
		)
		return
	}

	if err := v.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}
