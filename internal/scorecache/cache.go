// 包 scorecache：单地点评分结果的 Redis 短期缓存
package scorecache

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"time"

	"density-api/internal/density"
	"density-api/internal/logger"
	"density-api/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "density:"

// 文档注释：评分缓存
// 背景：地图在短周期内对同一地点重复拉取，缓存数秒即可显著降低对上报库的读取；新上报写入后立即失效对应键。
// 约束：rc 为 nil 时整体禁用；Redis 错误只记录日志并按未命中处理，不影响评分结果。
type Cache struct {
	rc  *redis.Client
	ttl time.Duration
}

func New(rc *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &Cache{rc: rc, ttl: ttl}
}

// NewFromEnv：TTL 取 SCORE_CACHE_TTL_S（秒），解析失败回退 15 秒
func NewFromEnv(rc *redis.Client) *Cache {
	ttl := 15 * time.Second
	if s := os.Getenv("SCORE_CACHE_TTL_S"); s != "" {
		if n, e := strconv.Atoi(s); e == nil && n > 0 {
			ttl = time.Duration(n) * time.Second
		}
	}
	return New(rc, ttl)
}

func (c *Cache) Enabled() bool { return c != nil && c.rc != nil }

func (c *Cache) Get(ctx context.Context, placeID string) (density.Result, bool) {
	if !c.Enabled() {
		return density.Result{}, false
	}
	s, err := c.rc.Get(ctx, keyPrefix+placeID).Result()
	if err != nil {
		if err != redis.Nil {
			logger.L().Debug("score_cache_get_error", "place_id", placeID, "err", err)
		}
		metrics.RedisMissesTotal.Inc()
		return density.Result{}, false
	}
	var res density.Result
	if err := json.Unmarshal([]byte(s), &res); err != nil {
		metrics.RedisMissesTotal.Inc()
		return density.Result{}, false
	}
	res.PlaceID = placeID
	metrics.RedisHitsTotal.Inc()
	return res, true
}

func (c *Cache) Set(ctx context.Context, res density.Result) {
	if !c.Enabled() || res.PlaceID == "" {
		return
	}
	b, _ := json.Marshal(res)
	if err := c.rc.Set(ctx, keyPrefix+res.PlaceID, string(b), c.ttl).Err(); err != nil {
		logger.L().Debug("score_cache_set_error", "place_id", res.PlaceID, "err", err)
	}
}

func (c *Cache) Invalidate(ctx context.Context, placeID string) {
	if !c.Enabled() {
		return
	}
	if err := c.rc.Del(ctx, keyPrefix+placeID).Err(); err != nil {
		logger.L().Debug("score_cache_del_error", "place_id", placeID, "err", err)
	}
}
