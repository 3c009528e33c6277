package scorecache

import (
	"context"
	"testing"
	"time"

	"density-api/internal/density"

	"github.com/stretchr/testify/assert"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	var nilCache *Cache
	for _, c := range []*Cache{nilCache, New(nil, time.Second)} {
		assert.False(t, c.Enabled())
		c.Set(ctx, density.Result{PlaceID: "p", Level: density.High, Sample: 2})
		_, ok := c.Get(ctx, "p")
		assert.False(t, ok)
		c.Invalidate(ctx, "p")
	}
}

func TestNewDefaultsTTL(t *testing.T) {
	assert.Equal(t, 15*time.Second, New(nil, 0).ttl)
	t.Setenv("SCORE_CACHE_TTL_S", "42")
	assert.Equal(t, 42*time.Second, NewFromEnv(nil).ttl)
	t.Setenv("SCORE_CACHE_TTL_S", "abc")
	assert.Equal(t, 15*time.Second, NewFromEnv(nil).ttl)
}
