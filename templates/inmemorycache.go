package templates

import (
	"sync"
	"time"
)

// InMemoryTemplatesCache is a simple in-memory implementation of
// TemplatesCache. Thread-safe for concurrent access.
type InMemoryTemplatesCache struct {
	templates []*Template
	cachedAt  time.Time
	config    CacheConfig
	mu        sync.RWMutex
	isValid   bool
}

// NewInMemoryTemplatesCache creates a new in-memory templates cache.
func NewInMemoryTemplatesCache(config CacheConfig) *InMemoryTemplatesCache {
	return &InMemoryTemplatesCache{
		config:  config,
		isValid: false,
	}
}

// Get retrieves cached templates, returning nil if the cache is invalid or
// expired.
func (c *InMemoryTemplatesCache) Get() []*Template {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.isValid {
		return nil
	}

	if c.config.TTL > 0 && time.Since(c.cachedAt) > c.config.TTL {
		return nil
	}

	// Return copy to prevent external modifications
	out := make([]*Template, len(c.templates))
	copy(out, c.templates)
	return out
}

// Set stores templates in cache.
func (c *InMemoryTemplatesCache) Set(templates []*Template) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.templates = make([]*Template, len(templates))
	copy(c.templates, templates)
	c.cachedAt = time.Now()
	c.isValid = true
}

// Invalidate clears the cache.
func (c *InMemoryTemplatesCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.isValid = false
	c.templates = nil
}

// IsValid returns true if cache contains valid data.
func (c *InMemoryTemplatesCache) IsValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.isValid {
		return false
	}

	if c.config.TTL > 0 {
		return time.Since(c.cachedAt) <= c.config.TTL
	}

	return true
}
