// Package collector receives line-delimited JSON trace streams.
//
// A Server accepts one session per TCP connection. Each line is decoded far
// enough to learn its kind and handed to the Sinks in arrival order. The
// package provides sinks that log records, store them into a database, and
// keep statistics about the sessions.
package collector
