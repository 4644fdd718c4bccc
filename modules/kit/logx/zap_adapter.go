package logx

import (
	"context"

	"TrenchGame/modules/kit/tracex"

	"go.uber.org/zap"
)

const (
	traceIDField = "trace_id"
	spanIDField  = "span_id"
)

var discard = zap.NewNop()

// ZapLogger backs Logger with zap. A nil *ZapLogger, or one built from a nil
// *zap.Logger, drops every entry.
type ZapLogger struct {
	z *zap.Logger
}

func NewZapLogger(l *zap.Logger) *ZapLogger {
	return &ZapLogger{z: l}
}

func (l *ZapLogger) core() *zap.Logger {
	if l == nil || l.z == nil {
		return discard
	}
	return l.z
}

// WithContext tags entries with the trace and span ids found in ctx.
func (l *ZapLogger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}
	return l.With(traceFields(ctx)...)
}

func (l *ZapLogger) With(fields ...zap.Field) Logger {
	if len(fields) == 0 {
		return l
	}
	return &ZapLogger{z: l.core().With(fields...)}
}

func traceFields(ctx context.Context) []zap.Field {
	var out []zap.Field
	if id, ok := tracex.TraceIDFrom(ctx); ok {
		out = append(out, zap.String(traceIDField, id))
	}
	if id, ok := tracex.SpanIDFrom(ctx); ok {
		out = append(out, zap.String(spanIDField, id))
	}
	return out
}

func (l *ZapLogger) Debug(msg string, fields ...zap.Field) { l.core().Debug(msg, fields...) }
func (l *ZapLogger) Info(msg string, fields ...zap.Field)  { l.core().Info(msg, fields...) }
func (l *ZapLogger) Warn(msg string, fields ...zap.Field)  { l.core().Warn(msg, fields...) }
func (l *ZapLogger) Error(msg string, fields ...zap.Field) { l.core().Error(msg, fields...) }
