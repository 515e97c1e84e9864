// Package cache keeps short-lived copies of computed rankings in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "rewards:"

type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLeaderboardCache returns nil when addr is empty so callers can run without Redis.
func NewLeaderboardCache(addr string, ttl time.Duration) *LeaderboardCache {
	if addr == "" {
		return nil
	}
	return NewLeaderboardCacheWithClient(redis.NewClient(&redis.Options{Addr: addr}), ttl)
}

func NewLeaderboardCacheWithClient(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &LeaderboardCache{client: client, ttl: ttl}
}

// Get decodes the cached value for key into dst. A missing key is not an error.
func (c *LeaderboardCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *LeaderboardCache) Set(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, keyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *LeaderboardCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *LeaderboardCache) Close() error {
	return c.client.Close()
}
