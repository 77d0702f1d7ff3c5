package tracing

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/fracker/fracker/datarecording"
	"github.com/fracker/fracker/event"
)

// The tables written by a Recorder.
const (
	RequestTable = "requests"
	CallTable    = "calls"
	ReturnTable  = "returns"
	WarningTable = "warnings"
)

var (
	// ErrUnknownKind is returned for a document whose type is not part of
	// the protocol.
	ErrUnknownKind = errors.New("unknown event kind")

	// ErrUnmatchedExit is returned for an exit without a pending call.
	ErrUnmatchedExit = errors.New("exit without matching call")
)

// RequestRow is a recorded request event. JSON members are stored as text.
type RequestRow struct {
	Session  string
	Seq      int
	Server   string
	Get      string
	Post     string
	Cookie   string
	Input    string
	HasInput bool
}

// CallRow is a recorded call, completed by its exit. Exited is false for
// calls whose exit never arrived.
type CallRow struct {
	Session   string
	Seq       int
	ID        int
	Level     int
	Function  string
	File      string
	Line      int
	StartTime float64
	EndTime   float64
	Exited    bool
	Arguments string
}

// ReturnRow is a recorded return event.
type ReturnRow struct {
	Session string
	Seq     int
	ID      int
	Level   int
	Value   string
	Type    string
}

// WarningRow is a recorded warning event.
type WarningRow struct {
	Session string
	Seq     int
	Message string
}

// CreateTables creates the tables written by Recorders.
func CreateTables(dr datarecording.DataRecorder) {
	dr.CreateTable(RequestTable, RequestRow{})
	dr.CreateTable(CallTable, CallRow{})
	dr.CreateTable(ReturnTable, ReturnRow{})
	dr.CreateTable(WarningTable, WarningRow{})
}

// MapTables lets a reader query the tables written by Recorders.
func MapTables(r datarecording.DataReader) {
	r.MapTable(RequestTable, RequestRow{})
	r.MapTable(CallTable, CallRow{})
	r.MapTable(ReturnTable, ReturnRow{})
	r.MapTable(WarningTable, WarningRow{})
}

// A Recorder stores the event documents of one session as table rows. A call
// is stored when its exit arrives, or by Finish.
type Recorder struct {
	lock     sync.Mutex
	recorder datarecording.DataRecorder
	session  string
	api      sonic.API
	seq      int
	inflight map[int]CallRow
}

// NewRecorder creates a Recorder for a session. The tables must exist.
func NewRecorder(dr datarecording.DataRecorder, session string) *Recorder {
	return &Recorder{
		recorder: dr,
		session:  session,
		api:      sonic.ConfigStd,
		inflight: make(map[int]CallRow),
	}
}

// Send records a document and drops it if it cannot be decoded.
func (r *Recorder) Send(doc []byte) {
	_ = r.Record(doc)
}

// Record decodes a document and stores it.
func (r *Recorder) Record(doc []byte) error {
	var envelope event.Envelope
	if err := r.api.Unmarshal(doc, &envelope); err != nil {
		return err
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	r.seq++

	switch envelope.Type {
	case event.KindRequest:
		return r.recordRequest(doc)
	case event.KindCall:
		return r.recordCall(doc)
	case event.KindExit:
		return r.recordExit(doc)
	case event.KindReturn:
		return r.recordReturn(doc)
	case event.KindWarning:
		return r.recordWarning(doc)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, envelope.Type)
	}
}

func (r *Recorder) recordRequest(doc []byte) error {
	var req event.Request
	if err := r.api.Unmarshal(doc, &req); err != nil {
		return err
	}

	row := RequestRow{
		Session:  r.session,
		Seq:      r.seq,
		Server:   string(req.Server),
		Get:      string(req.Get),
		Post:     string(req.Post),
		Cookie:   string(req.Cookie),
		HasInput: req.Input != nil,
	}
	if req.Input != nil {
		row.Input = *req.Input
	}

	r.recorder.InsertData(RequestTable, row)

	return nil
}

func (r *Recorder) recordCall(doc []byte) error {
	var call event.Call
	if err := r.api.Unmarshal(doc, &call); err != nil {
		return err
	}

	args, err := r.api.Marshal(call.Arguments)
	if err != nil {
		return err
	}

	r.inflight[call.ID] = CallRow{
		Session:   r.session,
		Seq:       r.seq,
		ID:        call.ID,
		Level:     call.Level,
		Function:  call.Function,
		File:      call.File,
		Line:      call.Line,
		StartTime: call.Timestamp,
		Arguments: string(args),
	}

	return nil
}

func (r *Recorder) recordExit(doc []byte) error {
	var exit event.Exit
	if err := r.api.Unmarshal(doc, &exit); err != nil {
		return err
	}

	row, found := r.inflight[exit.ID]
	if !found || row.Level != exit.Level {
		return fmt.Errorf("%w: id %d level %d",
			ErrUnmatchedExit, exit.ID, exit.Level)
	}

	delete(r.inflight, exit.ID)

	row.EndTime = exit.Timestamp
	row.Exited = true
	r.recorder.InsertData(CallTable, row)

	return nil
}

func (r *Recorder) recordReturn(doc []byte) error {
	var ret event.Return
	if err := r.api.Unmarshal(doc, &ret); err != nil {
		return err
	}

	r.recorder.InsertData(ReturnTable, ReturnRow{
		Session: r.session,
		Seq:     r.seq,
		ID:      ret.ID,
		Level:   ret.Level,
		Value:   string(ret.Return.Value),
		Type:    ret.Return.Type,
	})

	return nil
}

func (r *Recorder) recordWarning(doc []byte) error {
	var warning event.Warning
	if err := r.api.Unmarshal(doc, &warning); err != nil {
		return err
	}

	r.recorder.InsertData(WarningTable, WarningRow{
		Session: r.session,
		Seq:     r.seq,
		Message: warning.Message,
	})

	return nil
}

// Finish stores the calls still waiting for their exit and returns how many
// there were.
func (r *Recorder) Finish() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	pending := make([]CallRow, 0, len(r.inflight))
	for _, row := range r.inflight {
		pending = append(pending, row)
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Seq < pending[j].Seq
	})

	for _, row := range pending {
		r.recorder.InsertData(CallTable, row)
	}

	r.inflight = make(map[int]CallRow)

	return len(pending)
}
