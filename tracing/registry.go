package tracing

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/fracker/fracker/event"
	"github.com/fracker/fracker/value"
)

// Options selects and configures a backend.
type Options struct {
	// Backend is the registered name of the backend.
	Backend string

	// Host and Port locate the collector of the fracker backend.
	Host string
	Port string

	// Output is the file the jsonl and sqlite backends write. A name is
	// generated when it is empty.
	Output string

	Source     RequestSource
	Serializer *value.Serializer
	TimeTeller event.TimeTeller
	Logger     *zap.Logger
}

// A Factory starts a session of one backend.
type Factory func(ctx context.Context, opts Options) (Handler, error)

// The names of the built-in backends.
const (
	BackendFracker = "fracker"
	BackendJSONL   = "jsonl"
	BackendSQLite  = "sqlite"
)

var (
	registryLock sync.RWMutex
	registry     = map[string]Factory{
		BackendFracker: openFracker,
		BackendJSONL:   openJSONL,
		BackendSQLite:  openSQLite,
	}
)

// Register makes a backend available to Open. Registering a name twice
// panics.
func Register(name string, factory Factory) {
	registryLock.Lock()
	defer registryLock.Unlock()

	if _, found := registry[name]; found {
		panic(fmt.Sprintf("backend %s already registered", name))
	}

	registry[name] = factory
}

// Backends returns the registered backend names in order.
func Backends() []string {
	registryLock.RLock()
	defer registryLock.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Open starts a session with the backend named in opts.
func Open(ctx context.Context, opts Options) (Handler, error) {
	registryLock.RLock()
	factory, found := registry[opts.Backend]
	registryLock.RUnlock()

	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}

	return factory(ctx, opts)
}

func openFracker(ctx context.Context, opts Options) (Handler, error) {
	f, err := NewFracker(ctx, FrackerConfig{
		Host:       opts.Host,
		Port:       opts.Port,
		Source:     opts.Source,
		Serializer: opts.Serializer,
		TimeTeller: opts.TimeTeller,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	return f, nil
}

func openJSONL(_ context.Context, opts Options) (Handler, error) {
	t, err := NewJSONLTracer(opts)
	if err != nil {
		return nil, err
	}

	return t, nil
}

func openSQLite(_ context.Context, opts Options) (Handler, error) {
	t, err := NewSQLiteTracer(opts)
	if err != nil {
		return nil, err
	}

	return t, nil
}
