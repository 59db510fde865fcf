// internal/services/lookup_cache.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheEntry stores a lookup answer. Found=false entries cache upstream
// "not found" answers so repeated typos do not hit the public APIs.
type CacheEntry struct {
	Found bool            `json:"found"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type LookupCache interface {
	// Get returns nil, nil on a cache miss.
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry CacheEntry, ttl time.Duration) error
}

type RedisLookupCache struct {
	client *redis.Client
	prefix string
}

func NewRedisLookupCache(client *redis.Client) *RedisLookupCache {
	return &RedisLookupCache{client: client, prefix: "lookup:"}
}

func (c *RedisLookupCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup cache get: %w", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("lookup cache decode: %w", err)
	}
	return &entry, nil
}

func (c *RedisLookupCache) Set(ctx context.Context, key string, entry CacheEntry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("lookup cache set: %w", err)
	}
	return nil
}
