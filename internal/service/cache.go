package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"adwall/pkg/logger"
)

// defaultCacheTTL 读缓存的过期时间
const defaultCacheTTL = 5 * time.Minute

// jsonCache 以 JSON 保存的读缓存，redisClient 为空时所有操作都是空操作
type jsonCache struct {
	redisClient *redis.Client
	ttl         time.Duration
	logger      *logger.Logger
}

func newJSONCache(redisClient *redis.Client, logger *logger.Logger) *jsonCache {
	return &jsonCache{redisClient: redisClient, ttl: defaultCacheTTL, logger: logger}
}

// get 命中并解析成功时返回 true
func (c *jsonCache) get(ctx context.Context, key string, out interface{}) bool {
	if c.redisClient == nil {
		return false
	}
	data, err := c.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("读取缓存失败", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("缓存内容无法解析", "key", key, "error", err)
		return false
	}
	return true
}

func (c *jsonCache) set(ctx context.Context, key string, v interface{}) {
	if c.redisClient == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redisClient.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("写入缓存失败", "key", key, "error", err)
	}
}

// invalidate 删除匹配 pattern 的全部键
func (c *jsonCache) invalidate(ctx context.Context, pattern string) {
	if c.redisClient == nil {
		return
	}
	iter := c.redisClient.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.redisClient.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Error("删除缓存失败", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Error("扫描缓存失败", "pattern", pattern, "error", err)
	}
}
