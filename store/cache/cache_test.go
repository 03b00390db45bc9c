package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, CleanupInterval: time.Minute})
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", 1)
	v, ok := c.Get(ctx, "a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	_, ok = c.Get(ctx, "missing")
	require.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, CleanupInterval: time.Minute})
	defer c.Close()
	ctx := context.Background()

	c.SetWithTTL(ctx, "a", "v", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get(ctx, "a")
	require.False(t, ok)
}

func TestCacheMaxItems(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, CleanupInterval: time.Minute, MaxItems: 2})
	defer c.Close()
	ctx := context.Background()

	c.SetWithTTL(ctx, "a", 1, time.Second)
	c.SetWithTTL(ctx, "b", 2, time.Minute)
	c.SetWithTTL(ctx, "c", 3, time.Minute)

	// "a" had the nearest expiry, so it was evicted.
	_, ok := c.Get(ctx, "a")
	require.False(t, ok)
	_, ok = c.Get(ctx, "b")
	require.True(t, ok)
	_, ok = c.Get(ctx, "c")
	require.True(t, ok)
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, CleanupInterval: time.Minute})
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	c.Delete(ctx, "a")
	_, ok := c.Get(ctx, "a")
	require.False(t, ok)

	c.Clear(ctx)
	_, ok = c.Get(ctx, "b")
	require.False(t, ok)
}

func TestGenerateCacheKey(t *testing.T) {
	k1 := GenerateCacheKey("profile", "42")
	k2 := GenerateCacheKey("profile", "42")
	k3 := GenerateCacheKey("profile", "43")
	require.Equal(t, k1, k2)
	require.NotEqual(t, k1, k3)
}
