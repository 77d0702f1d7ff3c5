package collector

import (
	"net"
	"time"

	"github.com/fracker/fracker/event"
)

// SessionInfo describes one connection of a traced program.
type SessionInfo struct {
	ID      string
	Remote  net.Addr
	Started time.Time
}

// A Record is one document received on a session.
type Record struct {
	Session string

	// Seq numbers the documents of a session from 1.
	Seq int

	Kind  event.Kind
	ID    *int
	Level *int

	// Doc is the document as received, without the newline.
	Doc []byte
}

// A Sink consumes the records of all sessions. The calls for one session
// are sequential; calls for different sessions may be concurrent.
type Sink interface {
	// Begin is called when a session connects.
	Begin(info SessionInfo)

	// Record is called for every decoded document.
	Record(rec Record)

	// Malformed is called for a line that is not a JSON object with a type.
	Malformed(session string, line []byte, err error)

	// End is called when a session disconnects.
	End(session string)
}
