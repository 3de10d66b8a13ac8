package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Allow(t *testing.T) {
	now := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("chat-a"))
	assert.True(t, rl.Allow("chat-a"))
	assert.False(t, rl.Allow("chat-a"), "burst exhausted")

	// Keys are independent.
	assert.True(t, rl.Allow("chat-b"))

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("chat-a"), "one token refilled")
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	assert.Equal(t, DefaultBurst, rl.burst)
	assert.InDelta(t, DefaultRPS, float64(rl.rps), 0.0001)
}

func TestRateLimiter_WaitHonorsContext(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	require.NoError(t, rl.Wait(context.Background(), "k"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, rl.Wait(ctx, "k"))
}

func TestRateLimiter_Prune(t *testing.T) {
	now := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(idleEviction + time.Minute)
	rl.Allow("fresh")

	assert.Equal(t, 1, rl.Prune())
	assert.Equal(t, 1, rl.Size())
}
