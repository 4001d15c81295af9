// Package middleware provides fiber middleware for logging, rate
// limiting, tracing and authentication.
package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"liber/internal/observability"
)

// RequestLogging logs one structured line per request after it completes.
// Health and metrics probes are skipped to keep the logs readable.
func RequestLogging() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/health" || path == "/metrics" {
			return c.Next()
		}

		rid, _ := c.Locals("requestid").(string)
		c.SetUserContext(observability.WithCorrelationID(c.UserContext(), rid))

		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		attrs := []any{
			"method", c.Method(),
			"path", path,
			"status", status,
			"elapsed_ms", elapsed.Milliseconds(),
			"ip", c.IP(),
			"request_id", rid,
		}
		if err != nil {
			attrs = append(attrs, "error", err)
		}

		switch {
		case status >= 500:
			slog.Error("request", attrs...)
		case status >= 400:
			slog.Warn("request", attrs...)
		default:
			slog.Info("request", attrs...)
		}

		return err
	}
}
