// Package conn manages the link between a trace session and its collector.
//
// A Connector resolves the collector's host and numeric port, then tries the
// resolved addresses in the order the resolver returned them, stopping at
// the first one that accepts a TCP connection. The resulting Conn writes
// complete documents, each followed by a newline, and is closed once when
// the session ends.
//
// Delivery is best effort. Conn never retries, never reconnects, and does
// not report short writes or send errors to its caller.
package conn
