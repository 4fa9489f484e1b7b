package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	return line
}

func TestTraceContextHandlerAddsRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewTraceContextHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-123")
	logger.InfoContext(ctx, "delivery processed")

	line := logLine(t, &buf)
	assert.Equal(t, "req-123", line["request_id"])
	assert.Equal(t, "delivery processed", line["msg"])
}

func TestTraceContextHandlerOmitsMissingCorrelation(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewTraceContextHandler(slog.NewJSONHandler(&buf, nil)))

	logger.InfoContext(context.Background(), "no correlation")

	line := logLine(t, &buf)
	assert.NotContains(t, line, "request_id")
	assert.NotContains(t, line, "trace_id")
	assert.NotContains(t, line, "span_id")
}

func TestTraceContextHandlerPreservesAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewTraceContextHandler(slog.NewJSONHandler(&buf, nil)))
	logger = logger.With("webhook_type", "lead_created")

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-456")
	logger.InfoContext(ctx, "dispatched")

	line := logLine(t, &buf)
	assert.Equal(t, "lead_created", line["webhook_type"])
	assert.Equal(t, "req-456", line["request_id"])
}
