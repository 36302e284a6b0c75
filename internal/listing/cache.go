// AngelaMos | 2026
// cache.go

package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a read-through cache of single listings. Get returns nil, nil on
// a miss.
type Cache interface {
	Get(ctx context.Context, id string) (*Listing, error)
	Set(ctx context.Context, l *Listing) error
	Delete(ctx context.Context, id string) error
}

const cacheKeyPrefix = "listing:"

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, id string) (*Listing, error) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get listing: %w", err)
	}

	var l Listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("cache decode listing: %w", err)
	}

	return &l, nil
}

func (c *RedisCache) Set(ctx context.Context, l *Listing) error {
	if c.ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("cache encode listing: %w", err)
	}

	if err := c.client.Set(ctx, cacheKeyPrefix+l.ID, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set listing: %w", err)
	}

	return nil
}

func (c *RedisCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, cacheKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("cache delete listing: %w", err)
	}
	return nil
}

type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*Listing, error) { return nil, nil }

func (NoopCache) Set(context.Context, *Listing) error { return nil }

func (NoopCache) Delete(context.Context, string) error { return nil }
