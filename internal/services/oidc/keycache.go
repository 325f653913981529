package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// KeySetCache stores fetched key sets keyed by JWKS URL
type KeySetCache interface {
	Get(ctx context.Context, url string) (jwk.Set, bool, error)
	Set(ctx context.Context, url string, set jwk.Set, ttl time.Duration) error
}

// MemoryKeySetCache keeps key sets in process memory
type MemoryKeySetCache struct {
	items *cache.Cache
}

// NewMemoryKeySetCache creates an in-process cache whose entries expire after ttl
func NewMemoryKeySetCache(ttl time.Duration) *MemoryKeySetCache {
	return &MemoryKeySetCache{items: cache.New(ttl, 2*ttl)}
}

// Get returns the cached set for url
func (c *MemoryKeySetCache) Get(_ context.Context, url string) (jwk.Set, bool, error) {
	v, ok := c.items.Get(url)
	if !ok {
		return nil, false, nil
	}
	set, ok := v.(jwk.Set)
	if !ok {
		return nil, false, fmt.Errorf("unexpected cached value type %T", v)
	}
	return set, true, nil
}

// Set stores set for url
func (c *MemoryKeySetCache) Set(_ context.Context, url string, set jwk.Set, ttl time.Duration) error {
	c.items.Set(url, set, ttl)
	return nil
}

const redisKeySetPrefix = "jwks:"

// RedisKeySetCache shares fetched key sets between server instances
type RedisKeySetCache struct {
	client redis.UniversalClient
}

// NewRedisKeySetCache creates a Redis-backed key set cache
func NewRedisKeySetCache(client redis.UniversalClient) *RedisKeySetCache {
	return &RedisKeySetCache{client: client}
}

// Get loads and parses the cached set for url
func (c *RedisKeySetCache) Get(ctx context.Context, url string) (jwk.Set, bool, error) {
	data, err := c.client.Get(ctx, redisKeySetPrefix+url).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key set from redis: %w", err)
	}
	set, err := jwk.Parse(data)
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse cached key set: %w", err)
	}
	return set, true, nil
}

// Set serializes set and stores it with the given expiry
func (c *RedisKeySetCache) Set(ctx context.Context, url string, set jwk.Set, ttl time.Duration) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to marshal key set: %w", err)
	}
	if err := c.client.Set(ctx, redisKeySetPrefix+url, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write key set to redis: %w", err)
	}
	return nil
}

var (
	_ KeySetCache = (*MemoryKeySetCache)(nil)
	_ KeySetCache = (*RedisKeySetCache)(nil)
)
