package event

import (
	"io"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/fracker/fracker/value"
)

// A Sink transmits finished documents. A Sink owns the framing of the
// stream; documents are passed without a trailing newline.
type Sink interface {
	Send(doc []byte)
}

// Encoder builds one document per trace event and sends it to a Sink.
type Encoder struct {
	sink       Sink
	serializer *value.Serializer
	timeTeller TimeTeller
	logger     *zap.Logger
	api        sonic.API
}

// EncoderBuilder builds Encoders.
type EncoderBuilder struct {
	sink       Sink
	serializer *value.Serializer
	timeTeller TimeTeller
	logger     *zap.Logger
}

// MakeEncoderBuilder creates an EncoderBuilder with default collaborators.
func MakeEncoderBuilder() EncoderBuilder {
	return EncoderBuilder{
		timeTeller: WallClock{},
	}
}

// WithSink sets where documents are sent. It is required.
func (b EncoderBuilder) WithSink(sink Sink) EncoderBuilder {
	b.sink = sink
	return b
}

// WithSerializer sets the serializer used for runtime values.
func (b EncoderBuilder) WithSerializer(s *value.Serializer) EncoderBuilder {
	b.serializer = s
	return b
}

// WithTimeTeller sets the clock used to stamp events.
func (b EncoderBuilder) WithTimeTeller(t TimeTeller) EncoderBuilder {
	b.timeTeller = t
	return b
}

// WithLogger sets the diagnostic logger.
func (b EncoderBuilder) WithLogger(logger *zap.Logger) EncoderBuilder {
	b.logger = logger
	return b
}

// Build creates the Encoder.
func (b EncoderBuilder) Build() *Encoder {
	if b.sink == nil {
		panic("event encoder requires a sink")
	}

	e := &Encoder{
		sink:       b.sink,
		serializer: b.serializer,
		timeTeller: b.timeTeller,
		logger:     b.logger,
		api:        sonic.ConfigStd,
	}

	if e.serializer == nil {
		e.serializer = value.Default()
	}

	if e.timeTeller == nil {
		e.timeTeller = WallClock{}
	}

	if e.logger == nil {
		e.logger = zap.NewNop()
	}

	return e
}

// Request sends a request document built from the request context. The
// input stream is consumed.
func (e *Encoder) Request(req RequestContext) {
	doc := Request{
		Type:   KindRequest,
		Server: e.serialize(req.Server).JSON(),
		Get:    e.serialize(req.Get).JSON(),
		Post:   e.serialize(req.Post).JSON(),
		Cookie: e.serialize(req.Cookie).JSON(),
		Input:  e.readInput(req.Input),
	}

	e.send(doc)
}

func (e *Encoder) readInput(r io.Reader) *string {
	if r == nil {
		return nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		e.logger.Debug("cannot read request input", zap.Error(err))
		return nil
	}

	input := string(data)

	return &input
}

// Call sends a call document for a function entry.
func (e *Encoder) Call(frame *Frame) {
	doc := Call{
		Type:      KindCall,
		ID:        frame.ID,
		Level:     frame.Level,
		Timestamp: e.timestamp(frame),
		Function:  frame.Function,
		File:      frame.File,
		Line:      frame.Line,
		Arguments: e.arguments(frame),
	}

	e.send(doc)
}

func (e *Encoder) arguments(frame *Frame) []Arg {
	if frame.IncludeFile != "" {
		return []Arg{{Value: e.serialize(frame.IncludeFile).JSON()}}
	}

	args := make([]Arg, 0, len(frame.Arguments))
	for _, a := range frame.Arguments {
		typed := e.serializeTyped(a.Value)
		args = append(args, Arg{
			Name:  a.Name,
			Value: typed.Value,
			Type:  typed.Type,
		})
	}

	return args
}

// Exit sends an exit document for a function exit.
func (e *Encoder) Exit(frame *Frame) {
	e.send(Exit{
		Type:      KindExit,
		ID:        frame.ID,
		Level:     frame.Level,
		Timestamp: e.timestamp(frame),
	})
}

// Return sends a return document carrying the typed return value.
func (e *Encoder) Return(frame *Frame, v any) {
	doc := Return{
		Type:   KindReturn,
		ID:     frame.ID,
		Level:  frame.Level,
		Return: e.serializeTyped(v),
	}

	e.send(doc)
}

// Warning sends a warning document and writes the message to the
// diagnostic logger.
func (e *Encoder) Warning(message string) {
	e.send(Warning{
		Type:    KindWarning,
		Message: message,
	})

	e.logger.Warn(message, zap.String("kind", string(KindWarning)))
}

func (e *Encoder) timestamp(frame *Frame) float64 {
	if frame.Timestamp != 0 {
		return frame.Timestamp
	}

	return e.timeTeller.CurrentTime()
}

func (e *Encoder) serialize(v any) value.Result {
	result := e.serializer.Serialize(v)
	e.report(result)

	return result
}

func (e *Encoder) serializeTyped(v any) value.Typed {
	typed, result := e.serializer.SerializeTyped(v)
	e.report(result)

	return typed
}

func (e *Encoder) report(result value.Result) {
	if opaque, ok := result.(value.Opaque); ok {
		e.Warning(opaque.Message())
	}
}

func (e *Encoder) send(doc any) {
	text, err := e.api.Marshal(doc)
	if err != nil {
		e.logger.Error("cannot encode event", zap.Error(err))
		return
	}

	e.sink.Send(text)
}
