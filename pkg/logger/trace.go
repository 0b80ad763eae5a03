package logger

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// WithTraceContext adds trace_id and span_id of the span carried by the
// record's context, if it has a valid one.
func WithTraceContext() Option {
	return func(c *config) {
		c.extractors = append(c.extractors,
			spanField("trace_id", func(sc trace.SpanContext) string { return sc.TraceID().String() }),
			spanField("span_id", func(sc trace.SpanContext) string { return sc.SpanID().String() }),
		)
	}
}

func spanField(name string, value func(trace.SpanContext) string) ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		sc := trace.SpanContextFromContext(ctx)
		if !sc.IsValid() {
			return slog.Attr{}, false
		}
		return slog.String(name, value(sc)), true
	}
}
