package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationIDRoundTrip(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "abc-123")
	assert.Equal(t, "abc-123", CorrelationID(ctx))
}

func TestCorrelationIDGenerated(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "")
	id := CorrelationID(ctx)
	assert.NotEmpty(t, id)

	other := CorrelationID(WithCorrelationID(context.Background(), ""))
	assert.NotEqual(t, id, other)
}

func TestCorrelationIDMissing(t *testing.T) {
	assert.Empty(t, CorrelationID(context.Background()))
}

func TestLoggerFromContext(t *testing.T) {
	logger := LoggerFromContext(context.Background())
	assert.NotNil(t, logger)

	ctx := WithCorrelationID(context.Background(), "req-1")
	assert.NotNil(t, LoggerFromContext(ctx))
}
