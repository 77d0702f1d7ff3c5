package collector

import (
	"sync"

	"go.uber.org/zap"

	"github.com/fracker/fracker/datarecording"
	"github.com/fracker/fracker/tracing"
)

// RecordingSink stores the records of every session into a database, with
// the same tables the sqlite tracing backend writes.
type RecordingSink struct {
	lock      sync.Mutex
	recorder  datarecording.DataRecorder
	logger    *zap.Logger
	recorders map[string]*tracing.Recorder
}

// NewRecordingSink creates the tables and returns the sink.
func NewRecordingSink(
	dr datarecording.DataRecorder,
	logger *zap.Logger,
) *RecordingSink {
	if logger == nil {
		logger = zap.NewNop()
	}

	tracing.CreateTables(dr)

	return &RecordingSink{
		recorder:  dr,
		logger:    logger,
		recorders: make(map[string]*tracing.Recorder),
	}
}

// Begin prepares the rows of a session.
func (s *RecordingSink) Begin(info SessionInfo) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.recorders[info.ID] = tracing.NewRecorder(s.recorder, info.ID)
}

// Record stores a document.
func (s *RecordingSink) Record(rec Record) {
	r := s.session(rec.Session)
	if r == nil {
		return
	}

	defer s.guard(rec.Session)

	if err := r.Record(rec.Doc); err != nil {
		s.logger.Debug("Record not stored",
			zap.String("session", rec.Session),
			zap.Int("seq", rec.Seq),
			zap.Error(err))
	}
}

// Malformed ignores the line.
func (s *RecordingSink) Malformed(string, []byte, error) {}

// End stores the unmatched calls of the session and flushes.
func (s *RecordingSink) End(session string) {
	r := s.session(session)
	if r == nil {
		return
	}

	defer s.guard(session)

	s.lock.Lock()
	delete(s.recorders, session)
	s.lock.Unlock()

	if n := r.Finish(); n > 0 {
		s.logger.Info("Session ended with unmatched calls",
			zap.String("session", session), zap.Int("calls", n))
	}

	s.recorder.Flush()
}

func (s *RecordingSink) session(id string) *tracing.Recorder {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.recorders[id]
}

func (s *RecordingSink) guard(session string) {
	if r := recover(); r != nil {
		s.logger.Error("Recording failed",
			zap.String("session", session),
			zap.Any("panic", r))
	}
}

var _ Sink = (*RecordingSink)(nil)
