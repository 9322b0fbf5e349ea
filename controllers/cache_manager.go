package controllers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	ReportCachePrefix = "pedidos_tiny:v:"
	CacheVersionKey   = "pedidos_tiny:version"

	// DefaultCacheTTL bounds staleness between imports.
	DefaultCacheTTL = 10 * time.Minute
)

// CacheManager caches the rendered report CSV in Redis. Invalidation bumps a
// version counter so stale entries simply expire. A nil client disables
// caching entirely.
type CacheManager struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewCacheManager(redis *redis.Client) *CacheManager {
	return &CacheManager{redis: redis, ttl: DefaultCacheTTL}
}

// GetReportCSV retrieves the cached report for the current version.
func (cm *CacheManager) GetReportCSV(ctx context.Context) ([]byte, bool) {
	if cm.redis == nil {
		return nil, false
	}
	version, err := cm.getCacheVersion(ctx)
	if err != nil || version == 0 {
		return nil, false
	}

	data, err := cm.redis.Get(ctx, cm.reportKey(version)).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetReportCSVAsync caches the rendered report without blocking the request.
func (cm *CacheManager) SetReportCSVAsync(data []byte) {
	if cm.redis == nil {
		return
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		version, err := cm.getCacheVersion(bgCtx)
		if err != nil || version == 0 {
			return
		}
		if err := cm.redis.Set(bgCtx, cm.reportKey(version), data, cm.ttl).Err(); err != nil {
			zap.L().Warn("Failed to cache report CSV", zap.Error(err))
		}
	}()
}

// Invalidate invalidates cached reports by bumping the version.
func (cm *CacheManager) Invalidate(ctx context.Context) error {
	if cm.redis == nil {
		return nil
	}
	newVersion, err := cm.redis.Incr(ctx, CacheVersionKey).Result()
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	zap.L().Info("Report cache invalidated", zap.Int64("new_version", newVersion))
	return nil
}

func (cm *CacheManager) reportKey(version int64) string {
	return fmt.Sprintf("%s%d", ReportCachePrefix, version)
}

// getCacheVersion retrieves the current cache version, initializing it on
// first use.
func (cm *CacheManager) getCacheVersion(ctx context.Context) (int64, error) {
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		ver, err := cm.redis.Get(ctx, CacheVersionKey).Int64()
		if err == nil && ver > 0 {
			return ver, nil
		}
		if err == redis.Nil {
			if err := cm.redis.Set(ctx, CacheVersionKey, 1, 0).Err(); err == nil {
				return 1, nil
			}
		}
		if i < maxRetries-1 {
			time.Sleep(time.Millisecond * 50)
		}
	}
	return 0, fmt.Errorf("failed to get cache version after %d retries", maxRetries)
}
