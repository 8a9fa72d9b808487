package driven

import (
	"context"
	"time"
)

// EmbeddingCache memoises embedding vectors by key.
type EmbeddingCache interface {
	// Get returns the cached vector. ok is false on a miss.
	Get(ctx context.Context, key string) (vector []float32, ok bool, err error)

	// Set stores a vector. A zero ttl means the implementation default.
	Set(ctx context.Context, key string, vector []float32, ttl time.Duration) error

	// Close releases resources.
	Close() error
}
