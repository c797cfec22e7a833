// Package assets loads sprite textures from search roots and keeps track of
// the assets a bake generates.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/character2d/internal/layers"
	"github.com/Faultbox/character2d/internal/logger"
	"github.com/Faultbox/character2d/pkg/sprite"
)

// ErrNotFound is returned when a file is not under any search root.
var ErrNotFound = errors.New("file not found")

// Manager resolves sprite files against a list of search roots and caches
// decoded textures and sprites.
type Manager struct {
	roots    []string
	textures *Cache[*sprite.Texture]
	sprites  map[string]*sprite.Sprite
	sources  map[string]struct{}
	mu       sync.RWMutex
}

// NewManager creates an empty manager. Without roots, relative paths are
// resolved against the working directory.
func NewManager() *Manager {
	return &Manager{
		textures: NewCache[*sprite.Texture](),
		sprites:  make(map[string]*sprite.Sprite),
		sources:  make(map[string]struct{}),
	}
}

// AddRoot adds a search directory.
// Roots are searched in reverse order (last added = highest priority).
func (m *Manager) AddRoot(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding root %s: not a directory", dir)
	}

	m.mu.Lock()
	m.roots = append(m.roots, dir)
	m.mu.Unlock()
	return nil
}

// Roots returns the search roots in the order they were added.
func (m *Manager) Roots() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.roots...)
}

// Find returns the on-disk location of path.
func (m *Manager) Find(path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return path, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.roots) - 1; i >= 0; i-- {
		full := filepath.Join(m.roots[i], path)
		if _, err := os.Stat(full); err == nil {
			return full, nil
		}
	}
	if len(m.roots) == 0 {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, path)
}

// Texture loads and decodes an image. Textures are cached per path and
// decode options, so repeated requests return the same *sprite.Texture.
func (m *Manager) Texture(path string, opts sprite.DecodeOptions) (*sprite.Texture, error) {
	key := textureKey(path, opts)
	if tex, ok := m.textures.Get(key); ok {
		return tex, nil
	}

	full, err := m.Find(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sources[full] = struct{}{}
	m.mu.Unlock()

	img, err := sprite.Decode(path, data, opts)
	if err != nil {
		return nil, err
	}

	tex := sprite.NewTexture(path, img)
	m.textures.Set(key, tex)

	w, h := tex.Size()
	logger.Debug("texture loaded",
		zap.String("path", path),
		zap.Int("width", w),
		zap.Int("height", h),
		zap.String("format", string(tex.Format())))
	return tex, nil
}

// ResolveSprite implements layers.SpriteResolver. Definitions are cached by
// key: every slot naming the same key shares one *sprite.Sprite.
func (m *Manager) ResolveSprite(def layers.SpriteDef) (*sprite.Sprite, error) {
	m.mu.RLock()
	s, ok := m.sprites[def.Key]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	tex, err := m.Texture(def.Texture, def.Decode)
	if err != nil {
		return nil, fmt.Errorf("sprite %q: %w", def.Key, err)
	}
	s = sprite.New(SpriteName(def.Key), tex, def.Region, def.Render)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sprites[def.Key]; ok {
		return existing, nil
	}
	m.sprites[def.Key] = s
	return s, nil
}

// Sources returns the on-disk files textures were decoded from, sorted.
func (m *Manager) Sources() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.sources))
	for f := range m.sources {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Stats returns texture cache statistics.
func (m *Manager) Stats() (hits, misses int) {
	return m.textures.Stats()
}

// Close drops every cached texture and sprite.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sprites = make(map[string]*sprite.Sprite)
	m.sources = make(map[string]struct{})
	m.textures.Clear()
}

// SpriteName derives a display name from a sprite key or texture path.
func SpriteName(key string) string {
	base := filepath.Base(filepath.ToSlash(key))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func textureKey(path string, opts sprite.DecodeOptions) string {
	key := filepath.Clean(path)
	if opts.ColorKey {
		return key + "#key"
	}
	if opts.ConvertToRGBA {
		return key + "#rgba"
	}
	return key
}

// Cache is a simple in-memory cache keyed by string.
type Cache[V any] struct {
	data map[string]V
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache[V any]() *Cache[V] {
	return &Cache[V]{
		data: make(map[string]V),
	}
}

// Get retrieves an item from cache.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Set stores an item in cache.
func (c *Cache[V]) Set(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = v
}

// Len returns the number of cached items.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]V)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache[V]) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
