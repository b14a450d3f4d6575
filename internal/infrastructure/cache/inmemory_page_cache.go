package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// InMemoryPageCache is a process-local PageCache for single-instance
// deployments and tests.
type InMemoryPageCache struct {
	mu      sync.RWMutex
	entries map[string]map[string]memoryEntry
	now     func() time.Time
}

// NewInMemoryPageCache creates an empty in-memory page cache.
func NewInMemoryPageCache() *InMemoryPageCache {
	return &InMemoryPageCache{
		entries: make(map[string]map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get implements PageCache.
func (c *InMemoryPageCache) Get(ctx context.Context, entity, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pages, ok := c.entries[entity]
	if !ok {
		return nil, false, nil
	}
	entry, ok := pages[key]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false, nil
	}
	return entry.payload, true, nil
}

// Set implements PageCache.
func (c *InMemoryPageCache) Set(ctx context.Context, entity, key string, payload []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	pages, ok := c.entries[entity]
	if !ok {
		pages = make(map[string]memoryEntry)
		c.entries[entity] = pages
	}
	pages[key] = memoryEntry{payload: payload, expiresAt: c.now().Add(ttl)}
	return nil
}

// Invalidate implements PageCache.
func (c *InMemoryPageCache) Invalidate(ctx context.Context, entity string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, entity)
	return nil
}

// Close implements PageCache.
func (c *InMemoryPageCache) Close() error {
	return nil
}

var _ PageCache = (*InMemoryPageCache)(nil)
