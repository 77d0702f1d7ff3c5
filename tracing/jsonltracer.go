package tracing

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
	"go.uber.org/zap"
)

// JSONLTracer writes the event stream of one session into a file, one
// document per line.
type JSONLTracer struct {
	streamHandler

	path string
	file *os.File
	sink *fileSink
}

type fileSink struct {
	lock sync.Mutex
	w    *bufio.Writer
}

// Send appends the document and a newline. Write errors are dropped, as on
// the network stream.
func (s *fileSink) Send(doc []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()

	_, _ = s.w.Write(doc)
	_ = s.w.WriteByte('\n')
}

func (s *fileSink) flush() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.w.Flush()
}

// NewJSONLTracer creates the output file and starts a session. The file is
// flushed and closed at process exit if the session is not closed before.
func NewJSONLTracer(opts Options) (*JSONLTracer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	path := opts.Output
	if path == "" {
		path = "fracker_trace_" + xid.New().String() + ".jsonl"
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		logger.Error("Cannot create trace file "+path, zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	logger.Info("Recording trace", zap.String("file", path))

	t := &JSONLTracer{
		path: path,
		file: f,
		sink: &fileSink{w: bufio.NewWriter(f)},
	}
	t.init(streamConfig{
		sink:       t.sink,
		closer:     t.finish,
		label:      path,
		source:     opts.Source,
		serializer: opts.Serializer,
		timeTeller: opts.TimeTeller,
		logger:     logger,
	})

	atexit.Register(func() { _ = t.Close() })

	return t, nil
}

func (t *JSONLTracer) finish() error {
	return errors.Join(t.sink.flush(), t.file.Close())
}

var _ Handler = (*JSONLTracer)(nil)
