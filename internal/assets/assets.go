// Package assets locates and caches palette atlases for an export run.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Faultbox/meshc/internal/texture"
	"github.com/Faultbox/meshc/pkg/palette"
)

// ErrAtlasNotFound is returned when no search path holds the requested atlas.
var ErrAtlasNotFound = errors.New("atlas not found")

// Library loads atlases by name from a list of directories.
type Library struct {
	searchPaths []string
	cache       *Cache
	mu          sync.RWMutex
}

// NewLibrary creates a library searching the given directories.
func NewLibrary(searchPaths ...string) *Library {
	return &Library{
		searchPaths: searchPaths,
		cache:       NewCache(),
	}
}

// AddSearchPath adds a directory to the library.
// Directories are searched in reverse order (last added = highest priority).
func (l *Library) AddSearchPath(dir string) {
	l.mu.Lock()
	l.searchPaths = append(l.searchPaths, dir)
	l.mu.Unlock()
}

// Atlas returns the named atlas, decoding it on first use. An absolute name
// or one containing a directory is opened directly.
func (l *Library) Atlas(name string) (*palette.Atlas, error) {
	if a, ok := l.cache.Get(name); ok {
		return a, nil
	}

	path, err := l.find(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading atlas %s: %w", path, err)
	}
	img, err := texture.Decode(path, data)
	if err != nil {
		return nil, err
	}
	a, err := palette.NewAtlas(name, img)
	if err != nil {
		return nil, err
	}

	l.cache.Set(name, a)
	return a, nil
}

func (l *Library) find(name string) (string, error) {
	if filepath.IsAbs(name) || filepath.Base(name) != name {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("%w: %s", ErrAtlasNotFound, name)
		}
		return name, nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := len(l.searchPaths) - 1; i >= 0; i-- {
		path := filepath.Join(l.searchPaths[i], name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s (searched %v)", ErrAtlasNotFound, name, l.searchPaths)
}

// Close drops every cached atlas.
func (l *Library) Close() {
	l.cache.Clear()
}

// Stats returns cache statistics.
func (l *Library) Stats() (hits, misses int) {
	return l.cache.Stats()
}

// Cache is a simple in-memory cache for decoded atlases.
type Cache struct {
	data map[string]*palette.Atlas
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*palette.Atlas),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (*palette.Atlas, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return a, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, a *palette.Atlas) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = a
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*palette.Atlas)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
