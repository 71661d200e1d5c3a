package texture

import (
	"image"
	"log/slog"
	"sync"
)

// Resolver resolves a texture name to a decoded image.
type Resolver interface {
	Resolve(texName string) *image.NRGBA
}

// Cache is a concurrency-safe texture cache. Each file is decoded at most
// once; failed loads are cached as nil.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*image.NRGBA
	index *Index

	// Logger receives load failures; nil discards them.
	Logger *slog.Logger
}

// NewCache creates a new texture cache backed by the given index.
func NewCache(index *Index) *Cache {
	return &Cache{
		items: make(map[string]*image.NRGBA),
		index: index,
	}
}

// Resolve loads and caches a texture by name. Returns nil if not found.
func (c *Cache) Resolve(texName string) *image.NRGBA {
	path, ok := c.index.ResolvePath(texName)
	if !ok {
		return nil
	}

	c.mu.RLock()
	img, exists := c.items[path]
	c.mu.RUnlock()
	if exists {
		return img
	}

	img, err := Load(path)
	if err != nil && c.Logger != nil {
		c.Logger.Warn("texture load failed", "name", texName, "err", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, exists := c.items[path]; exists {
		return prev
	}
	c.items[path] = img
	return img
}
