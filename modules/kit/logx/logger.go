package logx

import (
	"context"

	"go.uber.org/zap"
)

// Logger is the structured logger every package depends on. WithContext
// attaches request-scoped fields such as the trace id; With attaches fields
// that hold for the life of the child, such as the battle id.
type Logger interface {
	Info(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Debug(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	WithContext(ctx context.Context) Logger
	With(fields ...zap.Field) Logger
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NewZapLogger(nil)
	}
	return l
}
