// Package analysis derives per-function performance metrics from received
// trace streams.
package analysis

import (
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/fracker/fracker/collector"
	"github.com/fracker/fracker/event"
)

// PerfAnalyzerEntry is a single entry in the performance database.
type PerfAnalyzerEntry struct {
	Session   string
	StartTime float64
	EndTime   float64
	Function  string
	Metric    string
	Value     float64
	Unit      string
}

// PerfLogger is the interface that provide the service that can record
// performance data entries.
type PerfLogger interface {
	AddDataEntry(entry PerfAnalyzerEntry)
}

// PerfAnalyzer is a collector sink that reports how often each function is
// called and how long the calls take. Timing uses the timestamps carried by
// the call and exit records.
type PerfAnalyzer struct {
	lock     sync.Mutex
	period   float64
	backend  PerfAnalyzerBackend
	logger   *zap.Logger
	api      sonic.API
	sessions map[string]*FunctionAnalyzer
}

// AddDataEntry passes an entry to the backend.
func (p *PerfAnalyzer) AddDataEntry(entry PerfAnalyzerEntry) {
	p.backend.AddDataEntry(entry)
}

// Begin starts analyzing a session.
func (p *PerfAnalyzer) Begin(info collector.SessionInfo) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.sessions[info.ID] = NewFunctionAnalyzer(info.ID, p, p.period)
}

type timing struct {
	Timestamp float64 `json:"timestamp"`
	Function  string  `json:"function"`
}

// Record feeds call and exit records to the analyzer of their session.
func (p *PerfAnalyzer) Record(rec collector.Record) {
	if rec.Kind != event.KindCall && rec.Kind != event.KindExit {
		return
	}

	if rec.ID == nil || rec.Level == nil {
		return
	}

	var t timing
	if err := p.api.Unmarshal(rec.Doc, &t); err != nil {
		p.logger.Debug("Record without timing",
			zap.String("session", rec.Session),
			zap.Int("seq", rec.Seq),
			zap.Error(err))

		return
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	a, found := p.sessions[rec.Session]
	if !found {
		return
	}

	if rec.Kind == event.KindCall {
		a.Call(*rec.ID, *rec.Level, t.Function, t.Timestamp)
	} else {
		a.Exit(*rec.ID, *rec.Level, t.Timestamp)
	}
}

// Malformed does nothing.
func (p *PerfAnalyzer) Malformed(string, []byte, error) {}

// End reports the rest of a session and flushes the backend.
func (p *PerfAnalyzer) End(session string) {
	p.lock.Lock()
	defer p.lock.Unlock()

	a, found := p.sessions[session]
	if !found {
		return
	}

	delete(p.sessions, session)

	a.Finish()
	p.backend.Flush()
}

var _ collector.Sink = (*PerfAnalyzer)(nil)

// PerfAnalyzerBuilder is a builder that can build a PerfAnalyzer.
type PerfAnalyzerBuilder struct {
	period  float64
	backend PerfAnalyzerBackend
	logger  *zap.Logger
}

// MakePerfAnalyzerBuilder creates a new PerfAnalyzerBuilder.
func MakePerfAnalyzerBuilder() PerfAnalyzerBuilder {
	return PerfAnalyzerBuilder{}
}

// WithPeriod sets the length, in seconds of trace time, of each summary.
// Without a period, every session is summarized once when it ends.
func (b PerfAnalyzerBuilder) WithPeriod(period float64) PerfAnalyzerBuilder {
	b.period = period
	return b
}

// WithBackend sets where entries are written. It is required.
func (b PerfAnalyzerBuilder) WithBackend(
	backend PerfAnalyzerBackend,
) PerfAnalyzerBuilder {
	b.backend = backend
	return b
}

// WithLogger sets the diagnostic logger.
func (b PerfAnalyzerBuilder) WithLogger(logger *zap.Logger) PerfAnalyzerBuilder {
	b.logger = logger
	return b
}

// Build creates a PerfAnalyzer.
func (b PerfAnalyzerBuilder) Build() *PerfAnalyzer {
	if b.backend == nil {
		panic("perf analyzer requires a backend")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PerfAnalyzer{
		period:   b.period,
		backend:  b.backend,
		logger:   logger,
		api:      sonic.ConfigStd,
		sessions: make(map[string]*FunctionAnalyzer),
	}
}
