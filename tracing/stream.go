package tracing

import (
	"sync"

	"go.uber.org/zap"

	"github.com/fracker/fracker/event"
	"github.com/fracker/fracker/value"
)

// streamHandler emits one event document per hook to a sink. It carries the
// hook surface shared by the fracker and jsonl backends.
type streamHandler struct {
	encoder *event.Encoder
	source  RequestSource
	logger  *zap.Logger
	label   string

	closer    func() error
	closeOnce sync.Once
	closeErr  error
}

type streamConfig struct {
	sink       event.Sink
	closer     func() error
	label      string
	source     RequestSource
	serializer *value.Serializer
	timeTeller event.TimeTeller
	logger     *zap.Logger
}

func (s *streamHandler) init(c streamConfig) {
	s.encoder = event.MakeEncoderBuilder().
		WithSink(c.sink).
		WithSerializer(c.serializer).
		WithTimeTeller(c.timeTeller).
		WithLogger(c.logger).
		Build()
	s.source = c.source
	s.logger = c.logger
	s.label = c.label
	s.closer = c.closer
}

// WriteHeader sends the request event.
func (s *streamHandler) WriteHeader() {
	defer s.guard("request-begin")

	var req event.RequestContext
	if s.source != nil {
		req = s.source.Request()
	}

	s.encoder.Request(req)
}

// WriteFooter does nothing. The protocol has no closing event.
func (s *streamHandler) WriteFooter() {}

// Filename returns the label of the output.
func (s *streamHandler) Filename() string {
	return s.label
}

// FunctionEntry sends a call event.
func (s *streamHandler) FunctionEntry(frame *event.Frame) {
	defer s.guard("function-entry")

	s.encoder.Call(frame)
}

// FunctionExit sends an exit event.
func (s *streamHandler) FunctionExit(frame *event.Frame) {
	defer s.guard("function-exit")

	s.encoder.Exit(frame)
}

// FunctionReturnValue sends a return event.
func (s *streamHandler) FunctionReturnValue(frame *event.Frame, v any) {
	defer s.guard("return-value")

	s.encoder.Return(frame, v)
}

// GeneratorReturnValue does nothing. Generator completions are not traced.
func (s *streamHandler) GeneratorReturnValue(*event.Frame, any) {}

// Assignment does nothing. Assignments are not traced.
func (s *streamHandler) Assignment(*event.Frame, *event.Assignment) {}

// Close releases the output. Later calls return the result of the first.
func (s *streamHandler) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.closer()
	})

	return s.closeErr
}

func (s *streamHandler) guard(hook string) {
	if r := recover(); r != nil {
		s.logger.Error("hook failed",
			zap.String("hook", hook),
			zap.Any("panic", r))
	}
}
