package log

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func Debugw(msg string, keysAndValues ...any) {
	GetLogger().Debugw(msg, keysAndValues...)
}

func Infow(msg string, keysAndValues ...any) {
	GetLogger().Infow(msg, keysAndValues...)
}

func Warnw(msg string, keysAndValues ...any) {
	GetLogger().Warnw(msg, keysAndValues...)
}

func Warnf(format string, args ...any) {
	GetLogger().Warnf(format, args...)
}

func Errorw(msg string, keysAndValues ...any) {
	GetLogger().Errorw(msg, keysAndValues...)
}

// WithContext returns the global logger enriched with the trace of ctx.
func WithContext(ctx context.Context) *zap.SugaredLogger {
	return WithTrace(ctx, GetLogger())
}

// WithTrace adds trace_id and span_id fields to l when ctx carries a valid span.
func WithTrace(ctx context.Context, l *zap.SugaredLogger) *zap.SugaredLogger {
	if ctx == nil {
		return l
	}
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return l
	}
	fields := []any{
		"trace_id", spanCtx.TraceID().String(),
		"span_id", spanCtx.SpanID().String(),
	}
	if spanCtx.IsSampled() {
		fields = append(fields, "trace_flags", uint8(spanCtx.TraceFlags()))
	}
	return l.With(fields...)
}
