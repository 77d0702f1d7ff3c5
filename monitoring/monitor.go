// Package monitoring serves the state of a running collector over HTTP.
package monitoring

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"go.uber.org/zap"

	"github.com/fracker/fracker/collector"
	"github.com/fracker/fracker/datarecording"
	"github.com/fracker/fracker/monitoring/web"
)

// A StatsSource reports the sessions of a collector.
type StatsSource interface {
	Snapshot() collector.Snapshot
	Sessions() []collector.SessionStats
	Session(id string) (collector.SessionStats, bool)
}

// Monitor turns a collector into a web server that reports its sessions,
// its recorded rows, and the resources of the process.
type Monitor struct {
	stats      StatsSource
	reader     datarecording.DataReader
	portNumber int
	logger     *zap.Logger
	api        sonic.API

	profileDuration time.Duration

	server *http.Server
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		logger:          zap.NewNop(),
		api:             sonic.ConfigStd,
		profileDuration: time.Second,
	}
}

// WithPortNumber sets the port number of the monitor. Ports below 1000 are
// replaced by a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		m.logger.Warn("Monitor port not allowed, using a random port instead",
			zap.Int("port", portNumber))

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithLogger sets the logger.
func (m *Monitor) WithLogger(logger *zap.Logger) *Monitor {
	m.logger = logger
	return m
}

// RegisterStats sets where session statistics come from.
func (m *Monitor) RegisterStats(s StatsSource) {
	m.stats = s
}

// RegisterReader exposes the tables mapped in a reader.
func (m *Monitor) RegisterReader(r datarecording.DataReader) {
	m.reader = r
}

// Router returns the handler of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/stats", m.snapshot).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions", m.listSessions).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}", m.session).Methods(http.MethodGet)
	r.HandleFunc("/api/records", m.listTables).Methods(http.MethodGet)
	r.HandleFunc("/api/records/{table}", m.listRecords).Methods(http.MethodGet)
	r.HandleFunc("/api/resource", m.listResources).Methods(http.MethodGet)
	r.HandleFunc("/api/profile", m.collectProfile).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts serving in the background and returns the URL of the
// monitor.
func (m *Monitor) StartServer() (string, error) {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	if err != nil {
		return "", fmt.Errorf("monitor listen: %w", err)
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	m.logger.Info("Monitoring collector", zap.String("url", url))

	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("Monitor stopped", zap.Error(err))
		}
	}()

	return url, nil
}

// Shutdown stops the server started by StartServer.
func (m *Monitor) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) snapshot(w http.ResponseWriter, _ *http.Request) {
	if m.stats == nil {
		m.writeJSON(w, collector.Snapshot{})
		return
	}

	m.writeJSON(w, m.stats.Snapshot())
}

func (m *Monitor) listSessions(w http.ResponseWriter, _ *http.Request) {
	sessions := []collector.SessionStats{}
	if m.stats != nil {
		sessions = m.stats.Sessions()
	}

	m.writeJSON(w, sessions)
}

func (m *Monitor) session(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if m.stats == nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	s, found := m.stats.Session(id)
	if !found {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	m.writeJSON(w, s)
}

func (m *Monitor) listTables(w http.ResponseWriter, _ *http.Request) {
	tables := []string{}
	if m.reader != nil {
		tables = m.reader.ListTables()
	}

	m.writeJSON(w, tables)
}

type recordsRsp struct {
	Total   int   `json:"total"`
	Records []any `json:"records"`
}

func (m *Monitor) listRecords(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]

	if m.reader == nil || !m.hasTable(table) {
		http.Error(w, "Table not found", http.StatusNotFound)
		return
	}

	limit, offset, err := pageParams(r)
	if err != nil {
		http.Error(w, "Error: "+err.Error(), http.StatusBadRequest)
		return
	}

	params := datarecording.QueryParams{}
	if session := r.URL.Query().Get("session"); session != "" {
		params = datarecording.BySession(session)
	}

	params.Limit = limit
	params.Offset = offset

	records, total, err := m.reader.Query(r.Context(), table, params)
	if err != nil {
		m.writeError(w, err)
		return
	}

	if records == nil {
		records = []any{}
	}

	m.writeJSON(w, recordsRsp{Total: total, Records: records})
}

func (m *Monitor) hasTable(name string) bool {
	for _, table := range m.reader.ListTables() {
		if table == name {
			return true
		}
	}

	return false
}

func pageParams(r *http.Request) (limit, offset int, err error) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		limitStr = "100"
	}

	limit, err = strconv.Atoi(limitStr)
	if err != nil || limit < 0 {
		return 0, 0, fmt.Errorf("invalid limit %q", limitStr)
	}

	offsetStr := r.URL.Query().Get("offset")
	if offsetStr == "" {
		offsetStr = "0"
	}

	offset, err = strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("invalid offset %q", offsetStr)
	}

	return limit, offset, nil
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	process, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		m.writeError(w, err)
		return
	}

	cpuPercent, err := process.CPUPercent()
	if err != nil {
		m.writeError(w, err)
		return
	}

	memorySize, err := process.MemoryInfo()
	if err != nil {
		m.writeError(w, err)
		return
	}

	m.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, r *http.Request) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	select {
	case <-time.After(m.profileDuration):
	case <-r.Context().Done():
	}

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		m.writeError(w, err)
		return
	}

	m.writeJSON(w, prof)
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	data, err := m.api.Marshal(v)
	if err != nil {
		m.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if _, err := w.Write(data); err != nil {
		m.logger.Debug("Monitor response not written", zap.Error(err))
	}
}

func (m *Monitor) writeError(w http.ResponseWriter, err error) {
	m.logger.Error("Monitor request failed", zap.Error(err))
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
