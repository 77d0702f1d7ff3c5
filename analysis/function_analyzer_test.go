package analysis

import (
	. "github.com/onsi/ginkgo/v2"
	"go.uber.org/mock/gomock"
)

var _ = Describe("FunctionAnalyzer", func() {
	var (
		mockCtrl *gomock.Controller
		logger   *MockPerfLogger
	)

	entry := func(
		start, end float64,
		function, metric string,
		value float64,
		unit string,
	) PerfAnalyzerEntry {
		return PerfAnalyzerEntry{
			Session:   "s",
			StartTime: start,
			EndTime:   end,
			Function:  function,
			Metric:    metric,
			Value:     value,
			Unit:      unit,
		}
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		logger = NewMockPerfLogger(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should summarize each period", func() {
		a := NewFunctionAnalyzer("s", logger, 1)

		a.Call(1, 1, "main", 0.25)
		a.Call(2, 2, "f", 0.5)
		a.Exit(2, 2, 0.75)

		logger.EXPECT().AddDataEntry(entry(0, 1, "f", "Calls", 1, ""))
		logger.EXPECT().AddDataEntry(entry(0, 1, "f", "InclusiveTime", 0.25, "s"))
		logger.EXPECT().AddDataEntry(entry(0, 1, "f", "MaxTime", 0.25, "s"))

		a.Exit(1, 1, 1.25)

		logger.EXPECT().AddDataEntry(entry(1, 2, "main", "Calls", 1, ""))
		logger.EXPECT().AddDataEntry(entry(1, 2, "main", "InclusiveTime", 1, "s"))
		logger.EXPECT().AddDataEntry(entry(1, 2, "main", "MaxTime", 1, "s"))

		a.Finish()
	})

	It("should skip idle periods", func() {
		a := NewFunctionAnalyzer("s", logger, 1)

		a.Call(1, 1, "f", 0.5)
		a.Exit(1, 1, 0.75)

		gomock.InOrder(
			logger.EXPECT().AddDataEntry(entry(0, 1, "f", "Calls", 1, "")),
			logger.EXPECT().AddDataEntry(
				entry(0, 1, "f", "InclusiveTime", 0.25, "s")),
			logger.EXPECT().AddDataEntry(
				entry(0, 1, "f", "MaxTime", 0.25, "s")),
		)

		a.Call(2, 1, "g", 100.5)

		logger.EXPECT().AddDataEntry(
			entry(100, 101, "g", "UnfinishedCalls", 1, ""))

		a.Finish()
	})

	It("should summarize the whole session without a period", func() {
		a := NewFunctionAnalyzer("s", logger, 0)

		a.Call(1, 1, "main", 1)
		a.Call(2, 2, "f", 2)
		a.Exit(2, 2, 3)
		a.Call(3, 2, "f", 3)
		a.Exit(3, 2, 6)

		gomock.InOrder(
			logger.EXPECT().AddDataEntry(entry(1, 6, "f", "Calls", 2, "")),
			logger.EXPECT().AddDataEntry(
				entry(1, 6, "f", "InclusiveTime", 4, "s")),
			logger.EXPECT().AddDataEntry(entry(1, 6, "f", "MaxTime", 3, "s")),
			logger.EXPECT().AddDataEntry(
				entry(1, 6, "main", "UnfinishedCalls", 1, "")),
		)

		a.Finish()
	})

	It("should ignore exits without a call", func() {
		a := NewFunctionAnalyzer("s", logger, 0)

		a.Exit(9, 9, 1)

		a.Finish()
	})

	It("should report nothing for an empty session", func() {
		a := NewFunctionAnalyzer("s", logger, 1)

		a.Finish()
	})
})
