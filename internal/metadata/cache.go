package metadata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores lookup results so repeated queries skip the provider entirely
type Cache interface {
	Get(ctx context.Context, key string) ([]RecordMetadata, bool)
	Set(ctx context.Context, key string, results []RecordMetadata)
}

// RedisCache caches lookup results in Redis with a TTL
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed lookup cache
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]RecordMetadata, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// Miss and broken cache look the same; the provider still answers
		return nil, false
	}

	var results []RecordMetadata
	if err := json.Unmarshal(payload, &results); err != nil {
		return nil, false
	}
	return results, true
}

func (c *RedisCache) Set(ctx context.Context, key string, results []RecordMetadata) {
	payload, err := json.Marshal(results)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, payload, c.ttl)
}

// NoopCache disables caching. Used when Redis is not configured and in tests.
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context, key string) ([]RecordMetadata, bool) { return nil, false }
func (NoopCache) Set(ctx context.Context, key string, results []RecordMetadata) {}

// CacheKey builds a deterministic cache key for a provider query
func CacheKey(provider, kind, query string) string {
	sum := sha256.Sum256([]byte(query))
	return "lookup:" + provider + ":" + kind + ":" + hex.EncodeToString(sum[:8])
}
