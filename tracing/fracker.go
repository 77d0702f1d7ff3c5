package tracing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fracker/fracker/conn"
	"github.com/fracker/fracker/event"
	"github.com/fracker/fracker/value"
)

// FrackerLabel is the filename reported by the fracker backend, which has
// no file.
const FrackerLabel = "{TCP}"

// FrackerConfig configures a Fracker.
type FrackerConfig struct {
	// Host and Port locate the collector. Port must be numeric.
	Host string
	Port string

	Source     RequestSource
	Serializer *value.Serializer
	TimeTeller event.TimeTeller
	Logger     *zap.Logger

	// Resolver and Dialer replace the system ones when set.
	Resolver conn.Resolver
	Dialer   conn.Dialer
}

// Fracker streams the trace of one session to a collector as line-delimited
// JSON over TCP.
type Fracker struct {
	streamHandler

	conn *conn.Conn
}

// NewFracker connects to the collector and starts a session. When no
// connection can be made, the failure is logged and an error wrapping
// ErrUnavailable is returned.
func NewFracker(ctx context.Context, cfg FrackerConfig) (*Fracker, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	builder := conn.MakeBuilder().
		WithHost(cfg.Host).
		WithPort(cfg.Port)
	if cfg.Resolver != nil {
		builder = builder.WithResolver(cfg.Resolver)
	}
	if cfg.Dialer != nil {
		builder = builder.WithDialer(cfg.Dialer)
	}

	connector := builder.Build()

	c, err := connector.Connect(ctx)
	if err != nil {
		logger.Error("Cannot connect to "+connector.Address(), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	f := &Fracker{conn: c}
	f.init(streamConfig{
		sink:       c,
		closer:     c.Close,
		label:      FrackerLabel,
		source:     cfg.Source,
		serializer: cfg.Serializer,
		timeTeller: cfg.TimeTeller,
		logger:     logger,
	})

	return f, nil
}

var _ Handler = (*Fracker)(nil)
