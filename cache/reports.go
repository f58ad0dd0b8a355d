package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	reportKeyPrefix = "report:"

	// DefaultReportTTL is how long a computed report stays cached.
	DefaultReportTTL = 30 * time.Second
)

// ReportCache stores JSON encoded report results in Redis.
// Failures are logged and reported as misses so callers fall back to
// computing the report.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewReportCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ReportCache {
	if ttl <= 0 {
		ttl = DefaultReportTTL
	}
	return &ReportCache{client: client, ttl: ttl, logger: logger}
}

// Get decodes the cached value for key into dest and reports whether it was found.
func (c *ReportCache) Get(ctx context.Context, key string, dest any) bool {
	val, err := c.client.Get(ctx, reportKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.logger.Warn("report cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(val, dest); err != nil {
		c.logger.Warn("report cache entry undecodable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Set stores value under key for the configured TTL.
func (c *ReportCache) Set(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("report cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, reportKeyPrefix+key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("report cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes key from the cache.
func (c *ReportCache) Invalidate(ctx context.Context, key string) {
	if err := c.client.Del(ctx, reportKeyPrefix+key).Err(); err != nil {
		c.logger.Warn("report cache invalidate failed", zap.String("key", key), zap.Error(err))
	}
}
