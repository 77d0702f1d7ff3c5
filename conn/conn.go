package conn

import (
	"net"
	"sync"
)

var newline = []byte{'\n'}

// Conn is an established link to a collector.
type Conn struct {
	nc net.Conn

	closeOnce sync.Once
	closeErr  error
}

func newConn(nc net.Conn) *Conn {
	return &Conn{nc: nc}
}

// Send writes the document followed by a newline in a single vectored write.
// The outcome of the write is not checked.
func (c *Conn) Send(doc []byte) {
	buffers := net.Buffers{doc, newline}
	_, _ = buffers.WriteTo(c.nc)
}

// Close closes the connection. Calls after the first return the first
// result.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.nc.Close()
	})

	return c.closeErr
}

// RemoteAddr returns the address of the collector.
func (c *Conn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}
