// Package redis provides a shared embedding cache backed by Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.EmbeddingCache = (*Cache)(nil)

// DefaultKeyPrefix namespaces every key.
const DefaultKeyPrefix = "canvasrag:emb:"

// Config holds connection settings.
type Config struct {
	Addr       string
	Password   string
	DB         int
	KeyPrefix  string
	DefaultTTL time.Duration
}

// Cache stores vectors as little-endian float32 blobs.
type Cache struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
}

// New connects and pings the server.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis: address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	return NewFromClient(client, cfg), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client, cfg Config) *Cache {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	return &Cache{client: client, prefix: cfg.KeyPrefix, defaultTTL: cfg.DefaultTTL}
}

// Get returns the cached vector.
func (c *Cache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	vector, err := domain.DecodeVector(raw)
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return vector, true, nil
}

// Set stores vector. A negative ttl stores without expiry.
func (c *Cache) Set(ctx context.Context, key string, vector []float32, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.prefix+key, domain.EncodeVector(vector), ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the client.
func (c *Cache) Close() error {
	return c.client.Close()
}
