// Package cache keeps rendered public restaurant listings in redis.
//
// Keys embed a version number; Invalidate bumps the version so every cached listing
// goes stale at once without scanning keys. Old entries expire through their TTL.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lookup is the outcome of a Get. Key pins the listing version that was read;
// a fill computed after a miss is written back under that key, so a fill that
// races with Invalidate lands on a dead version.
type Lookup struct {
	Key  string
	Body []byte
	Hit  bool
}

type ListingCache interface {
	Get(ctx context.Context, query string) (Lookup, error)
	Set(ctx context.Context, lookup Lookup, body []byte) error
	Invalidate(ctx context.Context) error
}

type RedisListingCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisListingCache(client *redis.Client, ttl time.Duration) *RedisListingCache {
	return &RedisListingCache{client: client, ttl: ttl, prefix: "listing"}
}

func (c *RedisListingCache) versionKey() string {
	return c.prefix + ":version"
}

func (c *RedisListingCache) key(ctx context.Context, query string) (string, error) {
	version, err := c.client.Get(ctx, c.versionKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("read listing version: %w", err)
	}
	return fmt.Sprintf("%s:v%d:%s", c.prefix, version, query), nil
}

func (c *RedisListingCache) Get(ctx context.Context, query string) (Lookup, error) {
	key, err := c.key(ctx, query)
	if err != nil {
		return Lookup{}, err
	}
	body, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Lookup{Key: key}, nil
	}
	if err != nil {
		return Lookup{Key: key}, fmt.Errorf("read listing: %w", err)
	}
	return Lookup{Key: key, Body: body, Hit: true}, nil
}

// Set stores body under the key of an earlier Get. A lookup without a key
// (the version could not be read) is not cached.
func (c *RedisListingCache) Set(ctx context.Context, lookup Lookup, body []byte) error {
	if lookup.Key == "" {
		return nil
	}
	return c.client.Set(ctx, lookup.Key, body, c.ttl).Err()
}

func (c *RedisListingCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, c.versionKey()).Err()
}

func (c *RedisListingCache) Close() error {
	return c.client.Close()
}

// NopListingCache never hits; used when redis is not configured.
type NopListingCache struct{}

func (NopListingCache) Get(context.Context, string) (Lookup, error) { return Lookup{}, nil }

func (NopListingCache) Set(context.Context, Lookup, []byte) error { return nil }

func (NopListingCache) Invalidate(context.Context) error { return nil }
