package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"liber/internal/observability"
)

// GetJSON fetches key and unmarshals it into dest. The second return is
// true only on a hit; misses and Redis errors both return false so the
// caller falls through to the source of truth.
func GetJSON(ctx context.Context, key, keyClass string, dest interface{}) bool {
	c := GetClient()
	if c == nil {
		return false
	}

	raw, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache get failed", "key", key, "error", err)
			observability.CacheHits.WithLabelValues(keyClass, "error").Inc()
		} else {
			observability.CacheHits.WithLabelValues(keyClass, "miss").Inc()
		}
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		slog.Warn("cache entry corrupt, dropping", "key", key, "error", err)
		c.Del(ctx, key)
		observability.CacheHits.WithLabelValues(keyClass, "error").Inc()
		return false
	}

	observability.CacheHits.WithLabelValues(keyClass, "hit").Inc()
	return true
}

// SetJSON marshals value and stores it under key with the given TTL.
// Failures are logged and swallowed.
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	c := GetClient()
	if c == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		slog.Warn("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.Set(ctx, key, raw, ttl).Err(); err != nil {
		slog.Warn("cache set failed", "key", key, "error", err)
	}
}

// Aside is the standard cache-aside read path: try the cache, fall back
// to load, then populate the cache with the loaded value.
func Aside[T any](ctx context.Context, key, keyClass string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if GetJSON(ctx, key, keyClass, &cached) {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	SetJSON(ctx, key, value, ttl)
	return value, nil
}

// Invalidate removes keys. Used after writes that make cached copies stale.
func Invalidate(ctx context.Context, keys ...string) {
	c := GetClient()
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("cache invalidate failed", "keys", keys, "error", err)
	}
}
