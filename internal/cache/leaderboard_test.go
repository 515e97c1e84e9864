package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
)

func TestNewLeaderboardCacheWithoutAddr(t *testing.T) {
	assert.Nil(t, NewLeaderboardCache("", time.Minute))
}

func TestDefaultTTL(t *testing.T) {
	c := NewLeaderboardCacheWithClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), 0)
	defer c.Close()
	assert.Equal(t, 30*time.Second, c.ttl)
}

func TestUnreachableRedisReturnsError(t *testing.T) {
	c := NewLeaderboardCacheWithClient(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	}), time.Minute)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var dst []string
	hit, err := c.Get(ctx, "leaderboard:SPENDING:WEEKLY", &dst)
	assert.False(t, hit)
	assert.Error(t, err)
	assert.Error(t, c.Set(ctx, "leaderboard:SPENDING:WEEKLY", []string{"a"}))
}
