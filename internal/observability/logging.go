// Package observability wires structured logging, Prometheus metrics and
// OpenTelemetry tracing for the service.
package observability

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

type ctxKey string

const correlationIDKey ctxKey = "correlation_id"

// InitLogging installs a JSON slog handler as the default logger.
// In development it switches to the text handler for readability.
func InitLogging(level, environment string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if environment == "development" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With("service", "liber")
	slog.SetDefault(logger)
	return logger
}

// WithCorrelationID stores an ID for cross-log correlation. When id is
// empty a new UUID is generated.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID returns the correlation ID from ctx, or "" if none was set.
func CorrelationID(ctx context.Context) string {
	if v, ok := ctx.Value(correlationIDKey).(string); ok {
		return v
	}
	return ""
}

// LoggerFromContext returns the default logger annotated with the
// context's correlation ID when present.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if id := CorrelationID(ctx); id != "" {
		logger = logger.With("correlation_id", id)
	}
	return logger
}
