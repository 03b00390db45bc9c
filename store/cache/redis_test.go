package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T) *RedisCache {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(&RedisCacheConfig{
		Addr:       mr.Addr(),
		KeyPrefix:  "test:",
		DefaultTTL: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c := newTestRedisCache(t)
	ctx := context.Background()

	type payload struct {
		Name   string `json:"name"`
		Points int32  `json:"points"`
	}

	c.Set(ctx, "profile:1", payload{Name: "Aria", Points: 100})

	raw, ok := c.Get(ctx, "profile:1")
	require.True(t, ok)

	var got payload
	require.NoError(t, json.Unmarshal(raw.(json.RawMessage), &got))
	require.Equal(t, "Aria", got.Name)
	require.Equal(t, int32(100), got.Points)
}

func TestRedisCacheMiss(t *testing.T) {
	c := newTestRedisCache(t)
	_, ok := c.Get(context.Background(), "missing")
	require.False(t, ok)
}

func TestRedisCacheDelete(t *testing.T) {
	c := newTestRedisCache(t)
	ctx := context.Background()

	c.Set(ctx, "k", "v")
	c.Delete(ctx, "k")
	_, ok := c.Get(ctx, "k")
	require.False(t, ok)
}

func TestRedisCacheClear(t *testing.T) {
	c := newTestRedisCache(t)
	ctx := context.Background()

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	c.Clear(ctx)

	_, ok := c.Get(ctx, "a")
	require.False(t, ok)
	_, ok = c.Get(ctx, "b")
	require.False(t, ok)
}
