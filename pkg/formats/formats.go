// Package formats provides parsers that turn model files into raw scene descriptions.
package formats

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported model format")
	ErrEmptyPath         = errors.New("empty model path")
)

// Parser reads a model file and produces its raw scene description.
type Parser interface {
	Parse(path string) (*Scene, error)
}

// ParserFunc adapts a plain function to the Parser interface.
type ParserFunc func(path string) (*Scene, error)

// Parse calls f(path).
func (f ParserFunc) Parse(path string) (*Scene, error) {
	return f(path)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Parser{
		".gltf": ParserFunc(ParseGLTF),
		".glb":  ParserFunc(ParseGLTF),
		".obj":  ParserFunc(ParseOBJ),
	}
)

// Register installs a parser for a file extension (with leading dot).
// Registering an extension twice replaces the previous parser.
func Register(ext string, p Parser) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(ext)] = p
}

// Lookup returns the parser registered for the extension of path.
func Lookup(path string) (Parser, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[strings.ToLower(filepath.Ext(path))]
	return p, ok
}

// Extensions lists the registered file extensions in sorted order.
func Extensions() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ParseFile parses path with the parser registered for its extension.
func ParseFile(path string) (*Scene, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	p, ok := Lookup(path)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return p.Parse(path)
}
