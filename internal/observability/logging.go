package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

type requestIDKey struct{}

// RequestIDKey is the context key under which the request ID middleware
// stores the X-Request-ID value for a webhook or API request.
var RequestIDKey = &requestIDKey{}

// TraceContextHandler is a slog.Handler that stamps every record with the
// request correlation attributes available in the context: request_id always,
// trace_id and span_id when an active span is recording. Installed once at
// startup around the default handler, so automation and extractor logs line
// up with the delivery that produced them.
type TraceContextHandler struct {
	next slog.Handler
}

// NewTraceContextHandler wraps next with request correlation stamping.
func NewTraceContextHandler(next slog.Handler) *TraceContextHandler {
	return &TraceContextHandler{next: next}
}

func (h *TraceContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *TraceContextHandler) Handle(ctx context.Context, rec slog.Record) error {
	rec.AddAttrs(correlationAttrs(ctx)...)

	if err := h.next.Handle(ctx, rec); err != nil {
		return fmt.Errorf("wrapped handler: %w", err)
	}

	return nil
}

func (h *TraceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *TraceContextHandler) WithGroup(name string) slog.Handler {
	return &TraceContextHandler{next: h.next.WithGroup(name)}
}

// correlationAttrs collects whatever correlation identifiers the context
// carries. Missing values are simply omitted, not logged as empty.
func correlationAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	if id, ok := ctx.Value(RequestIDKey).(string); ok && id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}

	return attrs
}
