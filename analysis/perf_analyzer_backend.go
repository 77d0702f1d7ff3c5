package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fracker/fracker/datarecording"
)

// PerfTable is the table RecorderBackend writes.
const PerfTable = "perf"

// PerfAnalyzerBackend is the interface that provides the service that can
// record performance data entries.
type PerfAnalyzerBackend interface {
	AddDataEntry(entry PerfAnalyzerEntry)
	Flush()
}

// CSVBackend is a PerfAnalyzerBackend that writes data entries to
// a CSV file.
type CSVBackend struct {
	lock      sync.Mutex
	file      *os.File
	csvWriter *csv.Writer
}

// NewCSVBackend creates the CSV file and writes its header. The ".csv"
// suffix is added when missing.
func NewCSVBackend(filename string) (*CSVBackend, error) {
	if !strings.HasSuffix(filename, ".csv") {
		filename += ".csv"
	}

	f, err := os.OpenFile(filename,
		os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	p := &CSVBackend{
		file:      f,
		csvWriter: csv.NewWriter(f),
	}

	header := []string{
		"Session", "StartTime", "EndTime", "Function", "Metric", "Value", "Unit",
	}
	if err := p.csvWriter.Write(header); err != nil {
		f.Close()
		return nil, err
	}

	return p, nil
}

// Filename returns the path of the CSV file.
func (p *CSVBackend) Filename() string {
	return p.file.Name()
}

// AddDataEntry adds a data entry to the CSV file. Write errors are reported
// by Close.
func (p *CSVBackend) AddDataEntry(entry PerfAnalyzerEntry) {
	p.lock.Lock()
	defer p.lock.Unlock()

	_ = p.csvWriter.Write([]string{
		entry.Session,
		fmt.Sprintf("%.6f", entry.StartTime),
		fmt.Sprintf("%.6f", entry.EndTime),
		entry.Function,
		entry.Metric,
		fmt.Sprintf("%.6f", entry.Value),
		entry.Unit,
	})
}

// Flush flushes the CSV writer.
func (p *CSVBackend) Flush() {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.csvWriter.Flush()
}

// Close flushes and closes the file.
func (p *CSVBackend) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.csvWriter.Flush()

	return errors.Join(p.csvWriter.Error(), p.file.Close())
}

// RecorderBackend is a PerfAnalyzerBackend that writes data entries into the
// perf table of a DataRecorder.
type RecorderBackend struct {
	recorder datarecording.DataRecorder
}

// NewRecorderBackend creates the perf table in the recorder.
func NewRecorderBackend(dr datarecording.DataRecorder) *RecorderBackend {
	dr.CreateTable(PerfTable, PerfAnalyzerEntry{})

	return &RecorderBackend{recorder: dr}
}

// AddDataEntry buffers an entry in the recorder.
func (p *RecorderBackend) AddDataEntry(entry PerfAnalyzerEntry) {
	p.recorder.InsertData(PerfTable, entry)
}

// Flush writes the buffered entries.
func (p *RecorderBackend) Flush() {
	p.recorder.Flush()
}
