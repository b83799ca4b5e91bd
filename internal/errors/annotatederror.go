// Package errors extends the standard library errors with annotations that survive wrapping and show up in
// structured logs together with the source location where the error was created.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
)

// Re-exported so that callers only need to import one errors package.
//
//nolint:gochecknoglobals // aliases for the standard library.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// New creates an error annotated with the caller location and the given attributes.
func New(msg string, attrs ...slog.Attr) error {
	return newAnnotated(nil, msg, attrs, 3) //nolint:mnd // skip runtime.Callers, newAnnotated and New.
}

// NewSentinel creates an error without annotations, suitable for package level sentinel errors compared with Is.
func NewSentinel(msg string) error {
	return errors.New(msg) //nolint:err113 // this is the sentinel constructor.
}

// Wrap annotates err with msg, the caller location, and attrs. Wrapping a nil error returns nil.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	return newAnnotated(err, msg, attrs, 3) //nolint:mnd // skip runtime.Callers, newAnnotated and Wrap.
}

// DecoratePanic converts a recovered panic value into an error pointing at the line that panicked.
func DecoratePanic(excp any) error {
	if excp == nil {
		return nil
	}
	err := &annotatedError{
		err:   nil,
		msg:   fmt.Sprintf("panic: %v", excp),
		attrs: nil,
		pc:    panickingPC(),
	}
	if cause, ok := excp.(error); ok {
		err.err = cause
		err.msg = "panic"
	}
	return err
}

// SlogError returns an attribute grouping the error message, the collected annotations, and the source location
// of the innermost annotated error.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{Key: "", Value: slog.Value{}}
	}

	var (
		annotations []any
		source      string
	)
	for e := err; e != nil; e = errors.Unwrap(e) {
		var ae *annotatedError
		if !errors.As(e, &ae) {
			break
		}
		for _, attr := range ae.attrs {
			annotations = append(annotations, attr)
		}
		if ae.pc != 0 {
			source = formatPC(ae.pc)
		}
		e = ae
	}

	attrs := []any{slog.String("message", err.Error())}
	if source != "" {
		attrs = append(attrs, slog.String("source", source))
	}
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Group("annotations", annotations...))
	}
	return slog.Group("error", attrs...)
}

type annotatedError struct {
	err   error
	msg   string
	attrs []slog.Attr
	pc    uintptr
}

func newAnnotated(err error, msg string, attrs []slog.Attr, skip int) *annotatedError {
	var pcs [1]uintptr
	runtime.Callers(skip, pcs[:])
	return &annotatedError{
		err:   err,
		msg:   msg,
		attrs: attrs,
		pc:    pcs[0],
	}
}

func (e *annotatedError) Error() string {
	switch {
	case e.err == nil:
		return e.msg
	case e.msg == "":
		return e.err.Error()
	default:
		return e.msg + ": " + e.err.Error()
	}
}

func (e *annotatedError) Unwrap() error {
	return e.err
}

func formatPC(pc uintptr) string {
	frames := runtime.CallersFrames([]uintptr{pc})
	frame, _ := frames.Next()
	if frame.File == "" {
		return ""
	}
	return frame.File + ":" + strconv.Itoa(frame.Line)
}

// panickingPC walks the stack of a deferred recover and returns the program counter of the frame that called panic.
func panickingPC() uintptr {
	const maxDepth = 32
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(0, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	sawPanic := false
	for {
		frame, more := frames.Next()
		if sawPanic && !strings.HasPrefix(frame.Function, "runtime.") {
			// CallersFrames expects return addresses.
			return frame.PC + 1
		}
		if frame.Function == "runtime.gopanic" {
			sawPanic = true
		}
		if !more {
			return 0
		}
	}
}
