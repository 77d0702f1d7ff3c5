package collector

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fracker/fracker/datarecording"
	"github.com/fracker/fracker/tracing"
)

var _ = Describe("RecordingSink", func() {
	var (
		path string
		dr   *datarecording.SQLiteRecorder
		sink *RecordingSink
	)

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "collected")

		var err error
		dr, err = datarecording.New(path)
		Expect(err).NotTo(HaveOccurred())

		sink = NewRecordingSink(dr, nil)
	})

	AfterEach(func() {
		dr.Close()
	})

	record := func(session string, seq int, doc string) {
		sink.Record(Record{Session: session, Seq: seq, Doc: []byte(doc)})
	}

	query := func(table string, sample any) []any {
		reader, err := datarecording.NewReader(datarecording.FileName(path))
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		reader.MapTable(table, sample)

		results, _, err := reader.Query(context.Background(), table,
			datarecording.QueryParams{OrderBy: []string{"Session", "Seq"}})
		Expect(err).NotTo(HaveOccurred())

		return results
	}

	It("should store the sessions apart", func() {
		sink.Begin(SessionInfo{ID: "a"})
		sink.Begin(SessionInfo{ID: "b"})

		record("a", 1, `{"type":"call","id":1,"level":1,"timestamp":1,"function":"f","file":"","line":0,"arguments":[]}`)
		record("b", 1, `{"type":"call","id":1,"level":1,"timestamp":1,"function":"g","file":"","line":0,"arguments":[]}`)
		record("a", 2, `{"type":"exit","id":1,"level":1,"timestamp":3}`)
		record("b", 2, `{"type":"warning","message":"Invalid JSON conversion for x"}`)

		sink.End("a")
		sink.End("b")

		calls := query(tracing.CallTable, tracing.CallRow{})
		Expect(calls).To(HaveLen(2))
		Expect(calls[0].(*tracing.CallRow).Session).To(Equal("a"))
		Expect(calls[0].(*tracing.CallRow).Exited).To(BeTrue())
		Expect(calls[0].(*tracing.CallRow).EndTime).To(Equal(3.0))
		Expect(calls[1].(*tracing.CallRow).Function).To(Equal("g"))
		Expect(calls[1].(*tracing.CallRow).Exited).To(BeFalse())

		warnings := query(tracing.WarningTable, tracing.WarningRow{})
		Expect(warnings).To(HaveLen(1))
		Expect(warnings[0].(*tracing.WarningRow).Session).To(Equal("b"))
	})

	It("should ignore records of unknown sessions", func() {
		Expect(func() {
			record("z", 1, `{"type":"warning","message":"m"}`)
			sink.End("z")
		}).NotTo(Panic())
	})
})
