package tracing

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
	"go.uber.org/zap"

	"github.com/fracker/fracker/datarecording"
)

// SQLiteTracer records the events of one session into database tables.
type SQLiteTracer struct {
	streamHandler

	recorder datarecording.DataRecorder
	rows     *Recorder
}

// NewSQLiteTracer creates the database and starts a session. Output names a
// SQLite file, a clickhouse:// DSN or a mongodb:// URI.
func NewSQLiteTracer(opts Options) (*SQLiteTracer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	target := opts.Output
	if target == "" {
		target = "fracker_trace_" + xid.New().String()
	}

	dr, err := datarecording.Open(target)
	if err != nil {
		logger.Error("Cannot create trace database "+target, zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	CreateTables(dr)

	label := target
	if s, ok := dr.(*datarecording.SQLiteRecorder); ok {
		label = s.Filename()
	}

	logger.Info("Recording trace", zap.String("file", label))

	t := &SQLiteTracer{
		recorder: dr,
		rows:     NewRecorder(dr, xid.New().String()),
	}
	t.init(streamConfig{
		sink:       t.rows,
		closer:     t.finish,
		label:      label,
		source:     opts.Source,
		serializer: opts.Serializer,
		timeTeller: opts.TimeTeller,
		logger:     logger,
	})

	atexit.Register(func() { _ = t.Close() })

	return t, nil
}

func (t *SQLiteTracer) finish() error {
	t.rows.Finish()

	return t.recorder.Close()
}

var _ Handler = (*SQLiteTracer)(nil)
