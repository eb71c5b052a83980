package logger

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

func AttrsFromCtx(ctx context.Context) []slog.Attr {
	span := trace.SpanFromContext(ctx)
	sc := span.SpanContext()

	if !sc.IsValid() {
		return nil
	}

	return []slog.Attr{
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	}
}

// ArgsFromCtx — то же, что AttrsFromCtx, в виде аргументов для slog.With/Info.
func ArgsFromCtx(ctx context.Context) []any {
	attrs := AttrsFromCtx(ctx)
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return args
}

// FromCtx возвращает логгер по умолчанию с trace_id/span_id из контекста.
func FromCtx(ctx context.Context) *slog.Logger {
	args := ArgsFromCtx(ctx)
	if len(args) == 0 {
		return slog.Default()
	}
	return slog.Default().With(args...)
}
