package collector

import (
	"go.uber.org/zap"

	"github.com/fracker/fracker/event"
)

// LogSink writes session activity to a logger. Documents are logged at debug
// level and warnings at warn level.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Begin logs the new session.
func (s *LogSink) Begin(info SessionInfo) {
	s.logger.Info("Session started",
		zap.String("session", info.ID),
		zap.Stringer("remote", info.Remote))
}

// Record logs a document.
func (s *LogSink) Record(rec Record) {
	if rec.Kind == event.KindWarning {
		s.logger.Warn("Trace warning",
			zap.String("session", rec.Session),
			zap.ByteString("doc", rec.Doc))

		return
	}

	if ce := s.logger.Check(zap.DebugLevel, "Trace event"); ce != nil {
		ce.Write(
			zap.String("session", rec.Session),
			zap.Int("seq", rec.Seq),
			zap.String("kind", string(rec.Kind)),
			zap.ByteString("doc", rec.Doc))
	}
}

// Malformed logs a line that could not be decoded.
func (s *LogSink) Malformed(session string, line []byte, err error) {
	s.logger.Warn("Malformed trace line",
		zap.String("session", session),
		zap.ByteString("line", line),
		zap.Error(err))
}

// End logs the end of a session.
func (s *LogSink) End(session string) {
	s.logger.Info("Session ended", zap.String("session", session))
}

var _ Sink = (*LogSink)(nil)
