// Package assets resolves model files and caches built models.
package assets

import (
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/animodel/internal/config"
	"github.com/Faultbox/animodel/internal/engine/model"
	"github.com/Faultbox/animodel/internal/logger"
	"github.com/Faultbox/animodel/pkg/formats"
)

// Options configure a Manager.
type Options struct {
	Mode  PathMode
	Depth int
	Load  model.LoadOptions

	// Parse overrides the parser registry. Used by tests.
	Parse func(path string) (*formats.Scene, error)
}

// DefaultOptions returns relative resolution with the default depth and
// unit normalization.
func DefaultOptions() Options {
	return Options{
		Mode:  Relative,
		Depth: DefaultSearchDepth,
		Load:  model.DefaultLoadOptions(),
	}
}

// OptionsFromConfig maps the loader section of the configuration.
func OptionsFromConfig(c config.LoaderConfig) (Options, error) {
	mode, err := ParsePathMode(c.PathMode)
	if err != nil {
		return Options{}, err
	}
	opts := DefaultOptions()
	opts.Mode = mode
	opts.Depth = c.SearchDepth
	opts.Load.NormalizeToUnit = c.UnitNormalize
	return opts, nil
}

// Manager loads models once per resolved file. Cached models are shared
// and must not be modified; playback state belongs to animators.
type Manager struct {
	opts  Options
	cache *Cache
	log   *zap.Logger

	// serialises loads so a file is parsed once
	loadMu sync.Mutex
}

// NewManager creates a manager.
func NewManager(opts Options) *Manager {
	if opts.Parse == nil {
		opts.Parse = formats.ParseFile
	}
	return &Manager{
		opts:  opts,
		cache: NewCache(),
		log:   logger.Named("assets"),
	}
}

// Get resolves path and returns its model, loading it on first use.
func (m *Manager) Get(path string) (*model.Model, error) {
	resolved, err := Resolve(path, m.opts.Mode, m.opts.Depth)
	if err != nil {
		return nil, err
	}
	key := cacheKey(resolved)

	if mdl, ok := m.cache.Get(key); ok {
		return mdl, nil
	}

	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	// another caller may have finished the load while we waited
	if mdl, ok := m.cache.Peek(key); ok {
		return mdl, nil
	}

	scene, err := m.opts.Parse(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrParseFailure, resolved, err)
	}
	mdl, err := model.Build(scene, m.opts.Load)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", resolved, err)
	}

	m.log.Info("model loaded",
		zap.String("path", resolved),
		zap.Int("meshes", len(mdl.Meshes)),
		zap.Int("clips", len(mdl.Clips)),
		zap.Int("diagnostics", len(mdl.Diagnostics)))

	m.cache.Set(key, mdl)
	return mdl, nil
}

// Evict drops the cached model for path. It reports whether one was cached.
func (m *Manager) Evict(path string) bool {
	resolved, err := Resolve(path, m.opts.Mode, m.opts.Depth)
	if err != nil {
		return false
	}
	return m.cache.Delete(cacheKey(resolved))
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses, cached int) {
	hits, misses = m.cache.Stats()
	return hits, misses, m.cache.Len()
}

// Close drops every cached model.
func (m *Manager) Close() {
	m.cache.Clear()
}

func cacheKey(resolved string) string {
	if abs, err := filepath.Abs(resolved); err == nil {
		return abs
	}
	return filepath.Clean(resolved)
}

// Cache is an in-memory map of built models.
type Cache struct {
	data map[string]*model.Model
	mu   sync.RWMutex

	hits   int
	misses int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*model.Model),
	}
}

// Get retrieves a model and counts the hit or miss.
func (c *Cache) Get(key string) (*model.Model, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	mdl, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return mdl, ok
}

// Peek retrieves a model without touching the statistics.
func (c *Cache) Peek(key string) (*model.Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	mdl, ok := c.data[key]
	return mdl, ok
}

// Set stores a model.
func (c *Cache) Set(key string, mdl *model.Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = mdl
}

// Delete removes key and reports whether it was present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	delete(c.data, key)
	return ok
}

// Len returns the number of cached models.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear empties the cache and resets statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*model.Model)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
