package utils

import (
	"os"

	"density-api/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedisFromEnv：从环境变量打开 Redis 客户端，支持 REDIS_DB 选择
// 约束：未设置 REDIS_HOST 或 REDIS_DISABLED=true 时返回 nil，评分缓存随之关闭；REDIS_DB 解析失败时回退到 0
func OpenRedisFromEnv() *redis.Client {
	host := os.Getenv("REDIS_HOST")
	if host == "" || os.Getenv("REDIS_DISABLED") == "true" {
		return nil
	}
	addr := host + ":" + envOr("REDIS_PORT", "6379")
	pass := os.Getenv("REDIS_PASS")
	db := envInt("REDIS_DB", 0)
	logger.L().Debug("redis_env", "addr", addr, "db", db)
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}
