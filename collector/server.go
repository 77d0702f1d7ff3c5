package collector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/fracker/fracker/event"
)

// DefaultMaxLineSize bounds the size of one document.
const DefaultMaxLineSize = 64 << 20

// ErrNoType is reported for documents without a type member.
var ErrNoType = errors.New("document has no type")

// Server accepts trace sessions and forwards their records to sinks.
type Server struct {
	sinks       []Sink
	logger      *zap.Logger
	api         sonic.API
	maxLineSize int

	wg sync.WaitGroup
}

// NewServer creates a Server that forwards records to the sinks in order.
func NewServer(logger *zap.Logger, sinks ...Sink) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		sinks:       sinks,
		logger:      logger,
		api:         sonic.ConfigStd,
		maxLineSize: DefaultMaxLineSize,
	}
}

// Serve accepts connections until the context is canceled, then closes the
// listener and waits for the open sessions to end. It returns nil after a
// cancellation.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	s.logger.Info("Collector listening", zap.Stringer("addr", l.Addr()))

	for {
		c, err := l.Accept()
		if err != nil {
			canceled := ctx.Err() != nil

			cancel()
			s.wg.Wait()

			if canceled {
				return nil
			}

			return fmt.Errorf("accept: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, c)
		}()
	}
}

func (s *Server) handle(ctx context.Context, c net.Conn) {
	info := SessionInfo{
		ID:      xid.New().String(),
		Remote:  c.RemoteAddr(),
		Started: time.Now(),
	}

	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()
	defer c.Close()

	for _, sink := range s.sinks {
		sink.Begin(info)
	}

	scanner := bufio.NewScanner(c)
	scanner.Buffer(make([]byte, 0, 64*1024), s.maxLineSize)

	seq := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		seq++
		s.dispatch(info.ID, seq, line)
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		s.logger.Warn("Session stream failed",
			zap.String("session", info.ID), zap.Error(err))
	}

	for _, sink := range s.sinks {
		sink.End(info.ID)
	}
}

func (s *Server) dispatch(session string, seq int, line []byte) {
	doc := make([]byte, len(line))
	copy(doc, line)

	var envelope event.Envelope
	err := s.api.Unmarshal(doc, &envelope)
	if err == nil && envelope.Type == "" {
		err = ErrNoType
	}

	if err != nil {
		for _, sink := range s.sinks {
			sink.Malformed(session, doc, err)
		}

		return
	}

	rec := Record{
		Session: session,
		Seq:     seq,
		Kind:    envelope.Type,
		ID:      envelope.ID,
		Level:   envelope.Level,
		Doc:     doc,
	}

	for _, sink := range s.sinks {
		sink.Record(rec)
	}
}
