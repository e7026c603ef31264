package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/redblue/internal/testutil"
)

func newLimiter(t *testing.T, cfg Config) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client, cfg, testutil.NopLogger()), mr
}

func TestAllowsUpToLimit(t *testing.T) {
	limiter, _ := newLimiter(t, Config{Limit: 2, Window: time.Minute})
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "game/create", "10.0.0.1"))
	assert.True(t, limiter.Allow(ctx, "game/create", "10.0.0.1"))
	assert.False(t, limiter.Allow(ctx, "game/create", "10.0.0.1"))
}

func TestCountsPerRouteAndClient(t *testing.T) {
	limiter, _ := newLimiter(t, Config{Limit: 1, Window: time.Minute})
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "game/create", "10.0.0.1"))
	assert.False(t, limiter.Allow(ctx, "game/create", "10.0.0.1"))
	assert.True(t, limiter.Allow(ctx, "game/join", "10.0.0.1"))
	assert.True(t, limiter.Allow(ctx, "game/create", "10.0.0.2"))
}

func TestWindowExpires(t *testing.T) {
	limiter, mr := newLimiter(t, Config{Limit: 1, Window: time.Minute})
	ctx := context.Background()

	require.True(t, limiter.Allow(ctx, "game/join", "10.0.0.1"))
	require.False(t, limiter.Allow(ctx, "game/join", "10.0.0.1"))
	assert.Equal(t, time.Minute, mr.TTL("redblue:rl:game/join:10.0.0.1"))

	mr.FastForward(61 * time.Second)

	assert.True(t, limiter.Allow(ctx, "game/join", "10.0.0.1"))
}

func TestZeroLimitDisables(t *testing.T) {
	limiter, mr := newLimiter(t, Config{Limit: 0, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow(ctx, "game/create", "10.0.0.1"))
	}
	assert.False(t, mr.Exists("redblue:rl:game/create:10.0.0.1"))
}

func TestFailsOpenWhenRedisIsDown(t *testing.T) {
	limiter, mr := newLimiter(t, Config{Limit: 1, Window: time.Minute})
	mr.Close()

	assert.True(t, limiter.Allow(context.Background(), "game/create", "10.0.0.1"))
	assert.True(t, limiter.Allow(context.Background(), "game/create", "10.0.0.1"))
}

func TestUnlimited(t *testing.T) {
	assert.True(t, Unlimited{}.Allow(context.Background(), "game/create", "10.0.0.1"))
}
