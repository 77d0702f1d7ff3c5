package collector

import (
	"sort"
	"sync"
	"time"

	"github.com/fracker/fracker/event"
)

// SessionStats summarizes one session.
type SessionStats struct {
	ID      string             `json:"id"`
	Remote  string             `json:"remote"`
	Started time.Time          `json:"started"`
	Ended   time.Time          `json:"ended,omitempty"`
	Active  bool               `json:"active"`
	Records map[event.Kind]int `json:"records"`

	// Pending counts calls still waiting for their exit. After the session
	// ends these calls are unmatched.
	Pending int `json:"pending"`

	// OrphanExits counts exits that matched no pending call.
	OrphanExits int `json:"orphan_exits"`

	Malformed int `json:"malformed"`
}

// Snapshot summarizes all sessions.
type Snapshot struct {
	Sessions       int                `json:"sessions"`
	ActiveSessions int                `json:"active_sessions"`
	Records        map[event.Kind]int `json:"records"`
	UnmatchedCalls int                `json:"unmatched_calls"`
	OrphanExits    int                `json:"orphan_exits"`
	Malformed      int                `json:"malformed"`
}

type frameKey struct {
	id    int
	level int
}

type sessionState struct {
	stats   SessionStats
	pending map[frameKey]int
}

// Stats is a Sink that counts records and matches calls with exits.
type Stats struct {
	lock     sync.Mutex
	sessions map[string]*sessionState
	order    []string
}

// NewStats creates an empty Stats.
func NewStats() *Stats {
	return &Stats{
		sessions: make(map[string]*sessionState),
	}
}

// Begin starts counting a session.
func (s *Stats) Begin(info SessionInfo) {
	s.lock.Lock()
	defer s.lock.Unlock()

	remote := ""
	if info.Remote != nil {
		remote = info.Remote.String()
	}

	s.sessions[info.ID] = &sessionState{
		stats: SessionStats{
			ID:      info.ID,
			Remote:  remote,
			Started: info.Started,
			Active:  true,
			Records: make(map[event.Kind]int),
		},
		pending: make(map[frameKey]int),
	}
	s.order = append(s.order, info.ID)
}

// Record counts a record.
func (s *Stats) Record(rec Record) {
	s.lock.Lock()
	defer s.lock.Unlock()

	state, found := s.sessions[rec.Session]
	if !found {
		return
	}

	state.stats.Records[rec.Kind]++

	if rec.ID == nil || rec.Level == nil {
		return
	}

	key := frameKey{id: *rec.ID, level: *rec.Level}

	switch rec.Kind {
	case event.KindCall:
		state.pending[key]++
		state.stats.Pending++
	case event.KindExit:
		if state.pending[key] == 0 {
			state.stats.OrphanExits++
			return
		}

		state.pending[key]--
		if state.pending[key] == 0 {
			delete(state.pending, key)
		}

		state.stats.Pending--
	}
}

// Malformed counts a line that could not be decoded.
func (s *Stats) Malformed(session string, _ []byte, _ error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if state, found := s.sessions[session]; found {
		state.stats.Malformed++
	}
}

// End marks a session as ended.
func (s *Stats) End(session string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if state, found := s.sessions[session]; found {
		state.stats.Active = false
		state.stats.Ended = time.Now()
	}
}

// Session returns the statistics of one session.
func (s *Stats) Session(id string) (SessionStats, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	state, found := s.sessions[id]
	if !found {
		return SessionStats{}, false
	}

	return state.stats.clone(), true
}

// Sessions returns the statistics of all sessions, oldest first.
func (s *Stats) Sessions() []SessionStats {
	s.lock.Lock()
	defer s.lock.Unlock()

	list := make([]SessionStats, 0, len(s.order))
	for _, id := range s.order {
		list = append(list, s.sessions[id].stats.clone())
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Started.Before(list[j].Started)
	})

	return list
}

// Snapshot sums the statistics of all sessions. Pending calls of ended
// sessions count as unmatched.
func (s *Stats) Snapshot() Snapshot {
	s.lock.Lock()
	defer s.lock.Unlock()

	snapshot := Snapshot{
		Sessions: len(s.sessions),
		Records:  make(map[event.Kind]int),
	}

	for _, state := range s.sessions {
		if state.stats.Active {
			snapshot.ActiveSessions++
		} else {
			snapshot.UnmatchedCalls += state.stats.Pending
		}

		for kind, n := range state.stats.Records {
			snapshot.Records[kind] += n
		}

		snapshot.OrphanExits += state.stats.OrphanExits
		snapshot.Malformed += state.stats.Malformed
	}

	return snapshot
}

func (s SessionStats) clone() SessionStats {
	records := make(map[event.Kind]int, len(s.Records))
	for kind, n := range s.Records {
		records[kind] = n
	}

	s.Records = records

	return s
}

var _ Sink = (*Stats)(nil)
