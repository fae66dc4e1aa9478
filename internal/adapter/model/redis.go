package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/couchcryptid/ndvi-forecast/internal/domain"
	"github.com/couchcryptid/ndvi-forecast/internal/observability"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ndvi:model:v1:"

// RedisStore is the subset of the go-redis client the shared cache uses.
type RedisStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisCachedModel shares model outputs across service replicas through
// Redis. Redis errors are logged and fall through to the wrapped model.
type RedisCachedModel struct {
	inner   domain.Model
	store   RedisStore
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewRedisCachedModel wraps inner with a Redis-backed cache. A zero ttl keeps
// entries until evicted by Redis.
func NewRedisCachedModel(inner domain.Model, store RedisStore, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *RedisCachedModel {
	return &RedisCachedModel{
		inner:   inner,
		store:   store,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

// NewRedisClient opens a client and verifies the server answers PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

func (c *RedisCachedModel) Predict(ctx context.Context, f domain.Features) (float64, error) {
	key := redisKey(f)

	v, err := c.store.Get(ctx, key).Float64()
	switch {
	case err == nil:
		c.metrics.ModelCache.WithLabelValues("redis", "hit").Inc()
		return v, nil
	case errors.Is(err, redis.Nil):
		c.metrics.ModelCache.WithLabelValues("redis", "miss").Inc()
	default:
		c.metrics.ModelCache.WithLabelValues("redis", "error").Inc()
		c.logger.Warn("redis cache read failed", "key", key, "error", err)
	}

	v, err = c.inner.Predict(ctx, f)
	if err != nil {
		return v, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v, nil
	}

	if err := c.store.Set(ctx, key, strconv.FormatFloat(v, 'g', -1, 64), c.ttl).Err(); err != nil {
		c.metrics.ModelCache.WithLabelValues("redis", "error").Inc()
		c.logger.Warn("redis cache write failed", "key", key, "error", err)
	}
	return v, nil
}

// CheckReadiness delegates to the wrapped model when it supports readiness.
func (c *RedisCachedModel) CheckReadiness(ctx context.Context) error {
	if rc, ok := c.inner.(interface{ CheckReadiness(context.Context) error }); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}

func redisKey(f domain.Features) string {
	return fmt.Sprintf("%s%.6f:%.6f:%d", redisKeyPrefix, f.Lat, f.Lon, f.Timestamp)
}
