package logx

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

const (
	maxStackFrames = 32
	maxCauseDepth  = 20
)

// ErrorLog is the flattened, printable view of an error chain.
type ErrorLog struct {
	Error      string
	Code       string
	Msg        string
	Reason     string
	Data       map[string]any
	CauseChain []string
	Origin     string
	Stack      string
}

// find is errors.As for a target type that need not be declared up front.
func find[T any](err error) (T, bool) {
	var target T
	ok := errors.As(err, &target)
	return target, ok
}

// BuildErrorLog reads whatever the chain of err exposes through CodeText,
// Msg, Data, Reason and Stack methods, plus the wrapped causes.
func BuildErrorLog(err error) ErrorLog {
	if err == nil {
		return ErrorLog{}
	}
	out := ErrorLog{
		Error:      err.Error(),
		CauseChain: causes(err, maxCauseDepth),
	}
	if e, ok := find[interface{ CodeText() string }](err); ok {
		out.Code = e.CodeText()
	}
	if e, ok := find[interface{ Msg() string }](err); ok {
		out.Msg = e.Msg()
	}
	if e, ok := find[interface{ Reason() string }](err); ok {
		out.Reason = e.Reason()
	}
	if e, ok := find[interface{ Data() map[string]any }](err); ok {
		out.Data = e.Data()
	}
	if e, ok := find[interface{ Stack() []uintptr }](err); ok {
		frames := stackLines(e.Stack(), maxStackFrames)
		if len(frames) > 0 {
			out.Origin = frames[0]
			out.Stack = strings.Join(frames, "\n")
		}
	}
	return out
}

// causes lists what err wraps, outermost first, err itself excluded.
func causes(err error, depth int) []string {
	var out []string
	for cur := errors.Unwrap(err); cur != nil && len(out) < depth; cur = errors.Unwrap(cur) {
		out = append(out, fmt.Sprintf("%T: %v", cur, cur))
	}
	return out
}

// stackLines renders up to limit frames as "function file:line".
func stackLines(pcs []uintptr, limit int) []string {
	if len(pcs) == 0 || limit <= 0 {
		return nil
	}
	out := make([]string, 0, min(len(pcs), limit))
	frames := runtime.CallersFrames(pcs)
	for len(out) < limit {
		f, more := frames.Next()
		if f.Function == "" && f.File == "" && f.Line == 0 {
			break
		}
		out = append(out, fmt.Sprintf("%s %s:%d", f.Function, f.File, f.Line))
		if !more {
			break
		}
	}
	return out
}
