// Package lru provides an in-process embedding cache.
package lru

import (
	"context"
	"slices"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.EmbeddingCache = (*Cache)(nil)

// DefaultSize is the entry count used when none is configured.
const DefaultSize = 1024

type entry struct {
	vector  []float32
	expires time.Time
}

// Cache is a size-bounded LRU with per-entry expiry.
type Cache struct {
	mu         sync.Mutex
	entries    *lru.Cache[string, entry]
	defaultTTL time.Duration
	now        func() time.Time
}

// New creates a cache holding at most size vectors. A zero defaultTTL
// keeps entries until evicted.
func New(size int, defaultTTL time.Duration) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries, defaultTTL: defaultTTL, now: time.Now}, nil
}

// Get returns a copy of the cached vector.
func (c *Cache) Get(_ context.Context, key string) ([]float32, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		c.entries.Remove(key)
		return nil, false, nil
	}
	return slices.Clone(e.vector), true, nil
}

// Set stores a copy of vector.
func (c *Cache) Set(_ context.Context, key string, vector []float32, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	e := entry{vector: slices.Clone(vector)}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries.Add(key, e)
	c.mu.Unlock()
	return nil
}

// Len reports the number of entries, expired ones included.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Close drops all entries.
func (c *Cache) Close() error {
	c.entries.Purge()
	return nil
}
