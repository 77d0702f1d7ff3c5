// Package value converts values produced by a traced runtime into JSON.
//
// A traced program can hand the tracer anything: scalars, nested containers,
// objects, native resource handles, closures, self-referencing graphs. The
// Serializer turns each of them into a Result, which is either Representable
// (the JSON text of the value) or Opaque (the value could not be expressed,
// and a human-readable preview is kept for diagnostics). Serialization never
// panics and never returns an error.
//
// The Serializer depends on two collaborators. An Encoder produces JSON text
// and is expected to emit as much valid output as it can; PartialEncoder is
// the default. A Renderer produces the preview used in warnings and the
// short type synopsis attached to typed values; TextRenderer is the default.
package value
