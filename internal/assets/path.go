package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/animodel/internal/engine/model"
)

// PathMode selects how model paths are resolved.
type PathMode int

const (
	// Relative searches the path and then up to SearchDepth ancestor
	// directories by prepending "../".
	Relative PathMode = iota
	// Absolute uses the path as given.
	Absolute
)

// DefaultSearchDepth is the number of "../" prefixes tried in Relative mode.
const DefaultSearchDepth = 5

// ParsePathMode maps "relative" or "absolute" to a PathMode.
func ParsePathMode(s string) (PathMode, error) {
	switch strings.ToLower(s) {
	case "relative", "":
		return Relative, nil
	case "absolute":
		return Absolute, nil
	}
	return Relative, fmt.Errorf("unknown path mode %q", s)
}

func (m PathMode) String() string {
	if m == Absolute {
		return "absolute"
	}
	return "relative"
}

// Resolve returns the first existing candidate for path. In Relative mode
// the candidates are path, ../path, ../../path, with depth prefixes at most.
// The result wraps model.ErrFileNotFound when no candidate exists.
func Resolve(path string, mode PathMode, depth int) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", model.ErrFileNotFound)
	}
	if mode == Absolute || filepath.IsAbs(path) {
		if isFile(path) {
			return path, nil
		}
		return "", fmt.Errorf("%w: %s", model.ErrFileNotFound, path)
	}

	if depth < 0 {
		depth = 0
	}
	candidate := path
	for i := 0; i <= depth; i++ {
		if isFile(candidate) {
			return candidate, nil
		}
		candidate = filepath.Join("..", candidate)
	}
	return "", fmt.Errorf("%w: %s (searched %d parent directories)", model.ErrFileNotFound, path, depth)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
