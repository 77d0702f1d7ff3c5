package analysis

import (
	"math"
	"sort"
)

type frameKey struct {
	id    int
	level int
}

type openCall struct {
	function string
	start    float64
}

type functionPeriod struct {
	calls int
	total float64
	max   float64
}

// FunctionAnalyzer summarizes the calls of one trace session. A finished call
// counts toward the period in which its exit arrives. Without a period, the
// whole session is summarized once by Finish.
type FunctionAnalyzer struct {
	PerfLogger

	session   string
	usePeriod bool
	period    float64

	started     bool
	periodStart float64
	lastTime    float64

	open      map[frameKey]openCall
	functions map[string]*functionPeriod
}

// NewFunctionAnalyzer creates a function analyzer. A period of 0 disables
// periodic summaries.
func NewFunctionAnalyzer(
	session string,
	perfLogger PerfLogger,
	period float64,
) *FunctionAnalyzer {
	return &FunctionAnalyzer{
		PerfLogger: perfLogger,
		session:    session,
		usePeriod:  period > 0,
		period:     period,
		open:       make(map[frameKey]openCall),
		functions:  make(map[string]*functionPeriod),
	}
}

// Call records that a function was entered.
func (a *FunctionAnalyzer) Call(id, level int, function string, now float64) {
	a.advance(now)

	a.open[frameKey{id: id, level: level}] = openCall{
		function: function,
		start:    now,
	}
}

// Exit records that a function was left. Exits without a call are ignored.
func (a *FunctionAnalyzer) Exit(id, level int, now float64) {
	a.advance(now)

	key := frameKey{id: id, level: level}

	call, found := a.open[key]
	if !found {
		return
	}

	delete(a.open, key)

	duration := math.Max(now-call.start, 0)

	p, found := a.functions[call.function]
	if !found {
		p = &functionPeriod{}
		a.functions[call.function] = p
	}

	p.calls++
	p.total += duration
	p.max = math.Max(p.max, duration)
}

// Finish reports what has not been reported yet, including the calls that
// never exited.
func (a *FunctionAnalyzer) Finish() {
	if !a.started {
		return
	}

	start, end := a.periodStart, a.lastTime
	if a.usePeriod {
		end = a.periodEndTime(start)
	}

	a.summarizePeriod(start, end)
	a.reportUnfinished(start, end)
}

func (a *FunctionAnalyzer) advance(now float64) {
	if !a.started {
		a.started = true
		a.periodStart = now

		if a.usePeriod {
			a.periodStart = a.periodStartTime(now)
		}
	}

	if now > a.lastTime {
		a.lastTime = now
	}

	if !a.usePeriod {
		return
	}

	periodEnd := a.periodEndTime(a.periodStart)
	if now < periodEnd {
		return
	}

	a.summarizePeriod(a.periodStart, periodEnd)
	a.periodStart = a.periodStartTime(now)
}

func (a *FunctionAnalyzer) summarizePeriod(start, end float64) {
	for _, name := range sortedKeys(a.functions) {
		p := a.functions[name]

		a.report(start, end, name, "Calls", float64(p.calls), "")
		a.report(start, end, name, "InclusiveTime", p.total, "s")
		a.report(start, end, name, "MaxTime", p.max, "s")
	}

	a.functions = make(map[string]*functionPeriod)
}

func (a *FunctionAnalyzer) reportUnfinished(start, end float64) {
	counts := make(map[string]int)
	for _, call := range a.open {
		counts[call.function]++
	}

	for _, name := range sortedKeys(counts) {
		a.report(start, end, name, "UnfinishedCalls",
			float64(counts[name]), "")
	}
}

func (a *FunctionAnalyzer) report(
	start, end float64,
	function, metric string,
	value float64,
	unit string,
) {
	a.PerfLogger.AddDataEntry(PerfAnalyzerEntry{
		Session:   a.session,
		StartTime: start,
		EndTime:   end,
		Function:  function,
		Metric:    metric,
		Value:     value,
		Unit:      unit,
	})
}

func (a *FunctionAnalyzer) periodStartTime(t float64) float64 {
	return math.Floor(t/a.period) * a.period
}

func (a *FunctionAnalyzer) periodEndTime(t float64) float64 {
	return a.periodStartTime(t) + a.period
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
