package parallel

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// EngineError is the error type surfaced by the reduction engine. Every error
// carries a classification code, a message and the stack of its origin; errors
// wrapping a work-function failure expose the original failure via Cause.
type EngineError interface {
	Code() string
	Message() string
	Error() string
	StackTrace() errors.StackTrace
	Cause() error
}

const (
	//ErrCodeInvalidWeight a weight function returned a negative or non-finite value
	ErrCodeInvalidWeight = "invalid_weight"
	//ErrCodeShapeMismatch a merge was attempted between values of incompatible shape or type
	ErrCodeShapeMismatch = "shape_mismatch"
	//ErrCodeWorker a work function failed or panicked while executing a chunk
	ErrCodeWorker = "worker_failure"
	//ErrCodeGeneral any other engine error
	ErrCodeGeneral = "general"
)

type engineErr struct {
	code string
	err  error
}

func (e *engineErr) Code() string {
	return e.code
}

func (e *engineErr) Message() string {
	return e.err.Error()
}

func (e *engineErr) Error() string {
	return fmt.Sprintf("engine err, code:%v, message:%v", e.code, e.err.Error())
}

func (e *engineErr) Cause() error {
	return errors.Cause(e.err)
}

func (e *engineErr) Unwrap() error {
	return e.err
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func (e *engineErr) StackTrace() errors.StackTrace {
	if st, ok := e.err.(stackTracer); ok {
		return st.StackTrace()
	}
	return nil
}

func (e *engineErr) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "engine err, code:%v, message:%+v", e.code, e.err)
			return
		}
		fallthrough
	case 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// NewEngineError builds an EngineError with the given code. The message may
// contain fmt directives consuming args; a trailing error argument not
// consumed by the message becomes the cause of the new error.
func NewEngineError(code string, msg string, args ...interface{}) EngineError {
	var cause error
	if n := len(args); n > 0 {
		if c, ok := args[n-1].(error); ok && countDirectives(msg) < n {
			cause = c
			args = args[:n-1]
		}
	}
	var err error
	if cause != nil {
		err = errors.Wrapf(cause, msg, args...)
	} else {
		err = errors.Errorf(msg, args...)
	}
	return &engineErr{code: code, err: err}
}

// asEngineError returns err as an EngineError when it already is one, so coded
// errors pass through wrapping layers unmodified.
func asEngineError(err error) (EngineError, bool) {
	if err == nil {
		return nil, false
	}
	ee, ok := err.(EngineError)
	return ee, ok
}

func countDirectives(msg string) int {
	count := 0
	for i := 0; i < len(msg); i++ {
		if msg[i] != '%' {
			continue
		}
		if strings.HasPrefix(msg[i:], "%%") {
			i++
			continue
		}
		count++
	}
	return count
}
