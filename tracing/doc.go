// Package tracing provides the backends that turn hook invocations of an
// instrumented runtime into trace output.
//
// Every backend implements Handler. The fracker backend streams
// line-delimited JSON events to a collector over TCP, the jsonl backend
// writes the same events into a file, and the sqlite backend records calls
// and returns into tables. Backends are selected by name with Open.
package tracing
