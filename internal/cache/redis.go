// Package cache manages the Redis client and typed cache helpers.
// All helpers fail open: a Redis outage degrades to the database path
// instead of failing the request.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	mu     sync.RWMutex
	client *redis.Client
)

// InitRedis connects to Redis from a URL and stores the shared client.
// The connection is verified with a short ping so misconfiguration
// surfaces at startup rather than on first use.
func InitRedis(url, password string, db int) error {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return fmt.Errorf("parsing redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	if db != 0 {
		opts.DB = db
	}

	c := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}

	mu.Lock()
	client = c
	mu.Unlock()

	slog.Info("redis connected", "addr", opts.Addr, "db", opts.DB)
	return nil
}

// SetClient replaces the shared client. Used by tests with miniredis.
func SetClient(c *redis.Client) {
	mu.Lock()
	client = c
	mu.Unlock()
}

// GetClient returns the shared client, or nil before InitRedis.
// Callers must tolerate nil.
func GetClient() *redis.Client {
	mu.RLock()
	defer mu.RUnlock()
	return client
}

// Close releases the shared client.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}
