// Package cached memoises an EmbeddingService through an EmbeddingCache.
package cached

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
	"github.com/custodia-labs/canvasrag/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService serves vectors from the cache and embeds misses.
// Cache failures are logged and treated as misses. Degenerate vectors
// are never cached.
type EmbeddingService struct {
	next  driven.EmbeddingService
	cache driven.EmbeddingCache
	ttl   time.Duration
}

// New wraps next. A zero ttl uses the cache default.
func New(next driven.EmbeddingService, cache driven.EmbeddingCache, ttl time.Duration) *EmbeddingService {
	return &EmbeddingService{next: next, cache: cache, ttl: ttl}
}

// Key derives the cache key for text under the wrapped model.
func (s *EmbeddingService) Key(text string) string {
	h := sha256.New()
	h.Write([]byte(s.next.ModelName()))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(s.next.Dimensions())))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

func (s *EmbeddingService) lookup(ctx context.Context, key string) ([]float32, bool) {
	vec, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("embedding cache get: %v", err)
		return nil, false
	}
	return vec, ok
}

func (s *EmbeddingService) store(ctx context.Context, key string, vec []float32) {
	if domain.IsZeroVector(vec) {
		return
	}
	if err := s.cache.Set(ctx, key, vec, s.ttl); err != nil {
		logger.Warn("embedding cache set: %v", err)
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	key := s.Key(text)
	if vec, ok := s.lookup(ctx, key); ok {
		return vec, nil
	}

	vec, err := s.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, vec)
	return vec, nil
}

// EmbedBatch embeds only the texts missing from the cache, in one call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missing []int
	for i, text := range texts {
		keys[i] = s.Key(text)
		if vec, ok := s.lookup(ctx, keys[i]); ok {
			out[i] = vec
			continue
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	batch := make([]string, len(missing))
	for j, i := range missing {
		batch[j] = texts[i]
	}
	vectors, err := s.next.EmbedBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	for j, i := range missing {
		if j >= len(vectors) {
			break
		}
		out[i] = vectors[j]
		s.store(ctx, keys[i], vectors[j])
	}

	logger.Debug("embedding cache: %d hits, %d misses", len(texts)-len(missing), len(missing))
	return out, nil
}

// Dimensions returns the wrapped vector size.
func (s *EmbeddingService) Dimensions() int { return s.next.Dimensions() }

// ModelName returns the wrapped model name.
func (s *EmbeddingService) ModelName() string { return s.next.ModelName() }

// Ping checks the wrapped service.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

// Close releases the wrapped service and the cache.
func (s *EmbeddingService) Close() error {
	err := s.next.Close()
	if cerr := s.cache.Close(); err == nil {
		err = cerr
	}
	return err
}
