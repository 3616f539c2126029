// modeltool is a CLI utility for inspecting imported models and their animations.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/Faultbox/animodel/internal/assets"
	"github.com/Faultbox/animodel/internal/engine/animation"
	"github.com/Faultbox/animodel/internal/engine/model"
	"github.com/Faultbox/animodel/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "tree":
		cmdTree(args)
	case "bones":
		cmdBones(args)
	case "play":
		cmdPlay(args)
	case "dump":
		cmdDump(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`modeltool - animated model inspection utility

Usage:
  modeltool <command> [options] <model>

Commands:
  info <model>                       Show buffer, mesh, material and clip statistics
  tree <model>                       Print the node hierarchy
  bones <model> <mesh>               List a mesh's bones and their influences
  play [-frames N] <model> <clip>    Evaluate a clip and print bone matrices per frame
  dump <model>                       Dump the imported model

Loader options (all commands):
  -absolute      Do not search parent directories
  -depth N       Parent directories searched for relative paths (default 5)
  -raw           Keep source units instead of normalizing to a unit box
  -debug         Log load diagnostics

Examples:
  modeltool info models/robot.glb
  modeltool bones models/robot.glb body
  modeltool play -frames 10 models/robot.glb 0`)
}

// loaderFlags are shared by every command.
type loaderFlags struct {
	absolute *bool
	depth    *int
	raw      *bool
	debug    *bool
}

func newFlagSet(name string) (*flag.FlagSet, *loaderFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	lf := &loaderFlags{
		absolute: fs.Bool("absolute", false, "Do not search parent directories"),
		depth:    fs.Int("depth", assets.DefaultSearchDepth, "Parent directories searched for relative paths"),
		raw:      fs.Bool("raw", false, "Keep source units"),
		debug:    fs.Bool("debug", false, "Log load diagnostics"),
	}
	return fs, lf
}

func (lf *loaderFlags) options() assets.Options {
	opts := assets.DefaultOptions()
	if *lf.absolute {
		opts.Mode = assets.Absolute
	}
	opts.Depth = *lf.depth
	opts.Load.NormalizeToUnit = !*lf.raw
	return opts
}

// load resolves and builds the model, exiting on failure.
func (lf *loaderFlags) load(path string) *model.Model {
	if *lf.debug {
		if err := logger.Init("debug", ""); err != nil {
			fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		}
	}

	mgr := assets.NewManager(lf.options())
	m, err := mgr.Get(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return m
}

func cmdInfo(args []string) {
	fs, lf := newFlagSet("info")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: modeltool info <model>")
		os.Exit(1)
	}

	printInfo(os.Stdout, fs.Arg(0), lf.load(fs.Arg(0)))
}

func cmdTree(args []string) {
	fs, lf := newFlagSet("tree")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: modeltool tree <model>")
		os.Exit(1)
	}

	printTree(os.Stdout, lf.load(fs.Arg(0)))
}

func cmdBones(args []string) {
	fs, lf := newFlagSet("bones")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: modeltool bones <model> <mesh>")
		os.Exit(1)
	}

	m := lf.load(fs.Arg(0))
	if err := printBones(os.Stdout, m, fs.Arg(1)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func cmdPlay(args []string) {
	fs, lf := newFlagSet("play")
	frames := fs.Int("frames", 25, "Number of frames to evaluate")
	fps := fs.Float64("fps", 25, "Target frame rate")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: modeltool play [-frames N] <model> <clip>")
		os.Exit(1)
	}

	clip, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: clip must be an index: %v\n", err)
		os.Exit(1)
	}

	m := lf.load(fs.Arg(0))
	settings := animation.DefaultSettings()
	settings.TargetFrameRate = *fps
	if err := play(os.Stdout, m, clip, *frames, settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func cmdDump(args []string) {
	fs, lf := newFlagSet("dump")
	maxDepth := fs.Int("max-depth", 0, "Maximum nesting to dump (0 = unlimited)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: modeltool dump <model>")
		os.Exit(1)
	}

	dump(os.Stdout, lf.load(fs.Arg(0)), *maxDepth)
}
