package tracing

import (
	"errors"

	"github.com/fracker/fracker/event"
)

var (
	// ErrUnavailable is returned when a trace session cannot start. No hook
	// may be invoked for that session.
	ErrUnavailable = errors.New("tracing unavailable")

	// ErrUnknownBackend is returned by Open for a backend that is not
	// registered.
	ErrUnknownBackend = errors.New("unknown tracing backend")
)

// A Handler receives the hooks of one trace session, in program order.
//
// Hooks never return errors and never panic. A value that cannot be recorded
// degrades the output; it does not stop the session.
type Handler interface {
	// WriteHeader records the request being traced. It is called once,
	// before any function entry.
	WriteHeader()

	// WriteFooter is called once when the trace ends.
	WriteFooter()

	// Filename returns a label for the trace output.
	Filename() string

	FunctionEntry(frame *event.Frame)
	FunctionExit(frame *event.Frame)
	FunctionReturnValue(frame *event.Frame, v any)
	GeneratorReturnValue(frame *event.Frame, v any)
	Assignment(frame *event.Frame, a *event.Assignment)

	// Close ends the session and releases its output. It must be called
	// exactly once.
	Close() error
}

// A RequestSource provides the request context the runtime currently holds.
type RequestSource interface {
	Request() event.RequestContext
}

// RequestFunc adapts a function to a RequestSource.
type RequestFunc func() event.RequestContext

// Request calls f.
func (f RequestFunc) Request() event.RequestContext {
	return f()
}
