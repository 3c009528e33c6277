package scorecache

import (
	"context"
	"testing"
	"time"

	"density-api/internal/density"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return New(rc, ttl), mr
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, 20*time.Second)
	require.True(t, c.Enabled())

	_, ok := c.Get(ctx, "p1")
	assert.False(t, ok)

	c.Set(ctx, density.Result{PlaceID: "p1", Level: density.High, Sample: 2, Stale: true})
	raw, err := mr.Get("density:p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"high","sample":2}`, raw)
	assert.Equal(t, 20*time.Second, mr.TTL("density:p1"))

	got, ok := c.Get(ctx, "p1")
	require.True(t, ok)
	assert.Equal(t, density.Result{PlaceID: "p1", Level: density.High, Sample: 2}, got)

	c.Invalidate(ctx, "p1")
	assert.False(t, mr.Exists("density:p1"))
	_, ok = c.Get(ctx, "p1")
	assert.False(t, ok)
}

func TestCacheExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, 15*time.Second)
	c.Set(ctx, density.Result{PlaceID: "p1", Level: density.Low, Sample: 1})
	mr.FastForward(16 * time.Second)
	_, ok := c.Get(ctx, "p1")
	assert.False(t, ok)
}

func TestCacheIgnoresCorruptEntries(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, time.Minute)
	require.NoError(t, mr.Set("density:p1", "not json"))
	_, ok := c.Get(ctx, "p1")
	assert.False(t, ok)

	c.Set(ctx, density.Result{Level: density.High, Sample: 1})
	assert.Empty(t, mr.Keys())
}

func TestCacheRedisDownIsMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, time.Minute)
	mr.Close()
	c.Set(ctx, density.Result{PlaceID: "p1", Level: density.High, Sample: 1})
	_, ok := c.Get(ctx, "p1")
	assert.False(t, ok)
}
