package xerror

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/metric"
)

type Error struct {
	code  int    // error code
	msg   string // readable message
	cause error  // underlying error
	stack string // optional call stack
}

// SetMsg replaces the readable message.
func (e *Error) SetMsg(msg string) *Error {
	e.msg = msg
	return e
}

// Code returns the error code.
func (e *Error) Code() int {
	return e.code
}

// Message returns the readable message.
func (e *Error) Message() string {
	return e.msg
}

// Cause returns the underlying error.
func (e *Error) Cause() error {
	return e.cause
}

// Stack returns the captured call stack, if any.
func (e *Error) Stack() string {
	return e.stack
}

// Error implements error.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("code: %d, msg: %s, cause: %v", e.code, e.msg, e.cause)
	}
	return fmt.Sprintf("code: %d, msg: %s", e.code, e.msg)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.code == e.code
}

var errorMetric = metric.NewCounterVec(&metric.CounterVecOpts{
	Namespace: "spellkit",
	Subsystem: "error",
	Name:      "total",
	Help:      "How many errors raised, partitioned by error code.",
	Labels:    []string{"code"},
})

// New wraps err with code. The message comes from ErrMsgs unless useErrMsg
// is set or the code has no entry, in which case err.Error() is used.
func New(code int, err error, useErrMsg ...bool) *Error {
	if err == nil {
		err = errors.New("error not set")
	}

	ce := &Error{code: code, cause: err}

	if len(useErrMsg) > 0 && useErrMsg[0] {
		ce.msg = err.Error()
		return ce
	}

	if v, ok := ErrMsgs[code]; ok {
		ce.msg = v
	} else {
		ce.msg = err.Error()
	}

	return ce
}

// CodeOf returns the code of the first *Error in err's chain, 0 if none.
func CodeOf(err error) int {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.code
	}
	return 0
}

// RaiseCtx is New plus an error log carrying the trace of ctx and a metric
// increment for code.
func RaiseCtx(ctx context.Context, code int, err error, args ...interface{}) *Error {
	ce := New(code, err)
	errorMetric.Inc(strconv.Itoa(code))
	logx.WithContext(ctx).WithCallerSkip(1).Errorf("%s, args: %+v", ce, args)
	return ce
}

// Raise is RaiseCtx without a context.
func Raise(code int, err error, args ...interface{}) *Error {
	ce := New(code, err)
	errorMetric.Inc(strconv.Itoa(code))
	logx.WithCallerSkip(1).Errorf("%s, args: %+v", ce, args)
	return ce
}

// NewWithStack is New with the caller's stack attached.
func NewWithStack(code int, err error) *Error {
	ce := New(code, err)
	ce.stack = getStack(3)
	return ce
}

func getStack(offset int) string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(offset, pcs[:])

	var str strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		str.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		if !more {
			break
		}
	}
	return str.String()
}
