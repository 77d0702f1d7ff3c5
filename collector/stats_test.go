package collector

import (
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fracker/fracker/event"
)

var _ = Describe("Stats", func() {
	var stats *Stats

	frameRecord := func(session string, kind event.Kind, id, level int) Record {
		return Record{Session: session, Kind: kind, ID: &id, Level: &level}
	}

	BeforeEach(func() {
		stats = NewStats()
		stats.Begin(SessionInfo{
			ID:      "a",
			Remote:  &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5000},
			Started: time.Unix(10, 0),
		})
		stats.Begin(SessionInfo{ID: "b", Started: time.Unix(20, 0)})
	})

	It("should match calls with exits of the same frame", func() {
		stats.Record(frameRecord("a", event.KindCall, 1, 1))
		stats.Record(frameRecord("a", event.KindCall, 2, 2))
		stats.Record(frameRecord("a", event.KindExit, 2, 2))

		s, found := stats.Session("a")
		Expect(found).To(BeTrue())
		Expect(s.Pending).To(Equal(1))
		Expect(s.Remote).To(Equal("127.0.0.1:5000"))
		Expect(s.Active).To(BeTrue())
	})

	It("should count exits without a call", func() {
		stats.Record(frameRecord("a", event.KindCall, 1, 1))
		stats.Record(frameRecord("a", event.KindExit, 1, 2))

		s, _ := stats.Session("a")
		Expect(s.OrphanExits).To(Equal(1))
		Expect(s.Pending).To(Equal(1))
	})

	It("should report pending calls of ended sessions as unmatched", func() {
		stats.Record(frameRecord("a", event.KindCall, 1, 1))
		stats.Record(frameRecord("b", event.KindCall, 1, 1))
		stats.Record(Record{Session: "b", Kind: event.KindWarning})
		stats.Malformed("b", []byte("x"), nil)
		stats.End("a")

		Expect(stats.Snapshot()).To(Equal(Snapshot{
			Sessions:       2,
			ActiveSessions: 1,
			Records: map[event.Kind]int{
				event.KindCall:    2,
				event.KindWarning: 1,
			},
			UnmatchedCalls: 1,
			Malformed:      1,
		}))
	})

	It("should list sessions oldest first", func() {
		stats.End("b")

		sessions := stats.Sessions()
		Expect(sessions).To(HaveLen(2))
		Expect(sessions[0].ID).To(Equal("a"))
		Expect(sessions[1].ID).To(Equal("b"))
		Expect(sessions[1].Active).To(BeFalse())
	})

	It("should ignore unknown sessions", func() {
		stats.Record(frameRecord("z", event.KindCall, 1, 1))
		stats.Malformed("z", nil, nil)
		stats.End("z")

		_, found := stats.Session("z")
		Expect(found).To(BeFalse())
	})

	It("should hand out copies", func() {
		stats.Record(Record{Session: "a", Kind: event.KindWarning})

		s, _ := stats.Session("a")
		s.Records[event.KindWarning] = 10

		again, _ := stats.Session("a")
		Expect(again.Records[event.KindWarning]).To(Equal(1))
	})
})
