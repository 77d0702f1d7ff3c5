package event

import "io"

// A Frame describes one function invocation as reported by the
// instrumentation layer.
type Frame struct {
	// ID identifies the invocation; it is unique within a trace.
	ID int

	// Level is the nesting depth of the invocation.
	Level int

	Function string
	File     string
	Line     int

	// Timestamp is the time of the event in seconds since the Unix epoch.
	// Zero means the encoder stamps the event when it is emitted.
	Timestamp float64

	Arguments []Argument

	// IncludeFile is set for include/require-like operations. When it is
	// not empty, it replaces Arguments in the emitted call.
	IncludeFile string
}

// An Argument is a value passed to a function, optionally named.
type Argument struct {
	Name  string
	Value any
}

// RequestContext is the per-request state the runtime holds when a trace
// starts.
type RequestContext struct {
	Server any
	Get    any
	Post   any
	Cookie any

	// Input is the raw request body. It is read once.
	Input io.Reader
}

// An Assignment describes a value stored into a variable.
type Assignment struct {
	Variable string
	Operator string
	File     string
	Line     int
	Value    any
}
