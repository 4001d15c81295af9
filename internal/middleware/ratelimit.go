package middleware

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"liber/internal/cache"
)

// RateLimit enforces a fixed-window per-caller limit backed by Redis.
// Authenticated callers are keyed by user ID, anonymous ones by IP.
// When Redis is unavailable requests pass through.
func RateLimit(requests int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		client := cache.GetClient()
		if client == nil {
			return c.Next()
		}

		var key string
		if uid, ok := c.Locals("user_id").(uint); ok {
			key = fmt.Sprintf("ratelimit:user:%d", uid)
		} else {
			key = fmt.Sprintf("ratelimit:ip:%s", c.IP())
		}

		ctx := c.UserContext()
		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			slog.Warn("rate limit check failed, allowing request", "error", err)
			return c.Next()
		}
		if count == 1 {
			client.Expire(ctx, key, window)
		}

		if count > int64(requests) {
			ttl, _ := client.TTL(ctx, key).Result()
			c.Set("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())+1))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}

		return c.Next()
	}
}
