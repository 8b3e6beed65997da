package live

import "sync"

// Cache keeps the last rendered fragment per feed key so a new SSE
// subscriber sees content immediately, before the first authoritative
// snapshot lands. The cache is a paint hint only: it is never consulted
// for access control, and access checks run before any replay.
type Cache struct {
	mu        sync.RWMutex
	fragments map[string]string
}

// NewCache creates an empty fragment cache.
func NewCache() *Cache {
	return &Cache{fragments: make(map[string]string)}
}

// Put stores the fragment for key.
func (c *Cache) Put(key, fragment string) {
	c.mu.Lock()
	c.fragments[key] = fragment
	c.mu.Unlock()
}

// Get returns the cached fragment and whether one exists.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.fragments[key]
	return f, ok
}

// Len reports the number of cached fragments.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.fragments)
}

// Drop removes the fragment for key.
func (c *Cache) Drop(key string) {
	c.mu.Lock()
	delete(c.fragments, key)
	c.mu.Unlock()
}
