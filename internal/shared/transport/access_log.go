package transport

import (
	"context"
	"time"

	"TrenchGame/modules/kit/logx"
	"TrenchGame/modules/kit/tracex"

	"go.uber.org/zap"
)

// AccessLog is the per-request log context shared by the WS and HTTP paths.
type AccessLog struct {
	BizCode     BizCode
	ErrorReason string
	startTime   time.Time
	action      string
	fields      []zap.Field
}

type accessLogKey struct{}

func NewContext(action string) context.Context {
	return NewContextWithParent(context.Background(), action)
}

// NewContextWithParent starts an access log under parent with a fresh trace
// id. The biz code starts as SystemError so an early return is never logged
// as success.
func NewContextWithParent(parent context.Context, action string) context.Context {
	ctx := parent
	if ctx == nil {
		ctx = context.Background()
	}
	if action == "" {
		action = "unknown"
	}
	if traceID := tracex.NewTraceID(); traceID != "" {
		ctx = tracex.WithTraceID(ctx, traceID)
	}
	ctx = tracex.WithSpanID(ctx, "battle")

	al := &AccessLog{
		BizCode:   SystemError,
		startTime: time.Now(),
		action:    action,
	}
	return context.WithValue(ctx, accessLogKey{}, al)
}

func FromContext(ctx context.Context) *AccessLog {
	if ctx == nil {
		return nil
	}
	al, _ := ctx.Value(accessLogKey{}).(*AccessLog)
	return al
}

func SetBizCode(ctx context.Context, code BizCode) {
	if al := FromContext(ctx); al != nil {
		al.BizCode = code
	}
}

func SetErrorReason(ctx context.Context, reason string) {
	if reason == "" {
		return
	}
	if al := FromContext(ctx); al != nil {
		al.ErrorReason = reason
	}
}

// AddFields attaches extra fields, such as the player id, to the access line.
func AddFields(ctx context.Context, fields ...zap.Field) {
	if al := FromContext(ctx); al != nil {
		al.fields = append(al.fields, fields...)
	}
}

// WriteAccessLog emits the access line. Call it deferred.
func WriteAccessLog(ctx context.Context, log logx.Logger) {
	al := FromContext(ctx)
	if al == nil || log == nil {
		return
	}

	fields := []zap.Field{
		zap.Duration("latency", time.Since(al.startTime)),
	}
	if al.BizCode == OK {
		fields = append(fields, zap.String("result", "success"))
	} else {
		fields = append(fields, zap.String("result", "failure"))
		if al.ErrorReason != "" {
			fields = append(fields, zap.String("error_reason", al.ErrorReason))
		}
	}
	fields = append(fields, al.fields...)
	logx.ReportAccessWithLoggerContext(ctx, log, al.action, int(al.BizCode), fields...)
}
