package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(time.Hour, 2)

	require.True(t, rl.Allow("user:1"))
	require.True(t, rl.Allow("user:1"))
	require.False(t, rl.Allow("user:1"))

	// Keys are isolated from each other.
	require.True(t, rl.Allow("user:2"))
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	require.True(t, rl.Allow("user:1"))
	require.False(t, rl.Allow("user:1"))
}
