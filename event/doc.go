// Package event builds the documents of the trace event protocol.
//
// A trace is a one-way stream of JSON objects, one per line. Every object
// carries a "type" discriminator:
//
//	request  server, get, post, cookie, input
//	call     id, level, timestamp, function, file, line, arguments
//	exit     id, level, timestamp
//	return   id, level, return{value, type}
//	warning  message
//
// The Encoder turns call-stack frames and runtime values into these
// documents and hands each finished document to a Sink. Whenever a value
// cannot be serialized, a warning document is sent first and the affected
// field is populated with null.
package event
