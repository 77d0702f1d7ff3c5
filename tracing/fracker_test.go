package tracing

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fracker/fracker/conn"
	"github.com/fracker/fracker/event"
)

type refusingDialer struct {
	dials int
}

func (d *refusingDialer) DialContext(
	_ context.Context,
	_, _ string,
) (net.Conn, error) {
	d.dials++
	return nil, errors.New("connection refused")
}

var _ = Describe("Fracker", func() {
	var (
		mockCtrl *gomock.Controller
		source   *MockRequestSource
		listener net.Listener
		port     string
		lines    chan string
		logger   *zap.Logger
		logs     *observer.ObservedLogs
		frame    *event.Frame
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		source = NewMockRequestSource(mockCtrl)

		var err error
		listener, err = net.Listen("tcp4", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		port = strconv.Itoa(listener.Addr().(*net.TCPAddr).Port)

		lines = make(chan string, 16)
		go func() {
			defer GinkgoRecover()
			defer close(lines)

			c, err := listener.Accept()
			if err != nil {
				return
			}
			defer c.Close()

			scanner := bufio.NewScanner(c)
			for scanner.Scan() {
				lines <- scanner.Text()
			}
		}()

		core, observed := observer.New(zap.DebugLevel)
		logger = zap.New(core)
		logs = observed

		frame = &event.Frame{
			ID:        1,
			Level:     1,
			Function:  "f",
			File:      "a.php",
			Line:      10,
			Timestamp: 1.5,
			Arguments: []event.Argument{{Name: "x", Value: 42}},
		}
	})

	AfterEach(func() {
		listener.Close()
		mockCtrl.Finish()
	})

	open := func() *Fracker {
		f, err := NewFracker(context.Background(), FrackerConfig{
			Host:   "127.0.0.1",
			Port:   port,
			Source: source,
			Logger: logger,
		})
		Expect(err).NotTo(HaveOccurred())

		return f
	}

	It("should report the TCP label", func() {
		f := open()
		defer f.Close()

		Expect(f.Filename()).To(Equal("{TCP}"))
	})

	It("should stream a session", func() {
		source.EXPECT().Request().Return(event.RequestContext{
			Server: map[string]string{"HTTP_HOST": "x"},
			Get:    map[string]string{},
			Post:   map[string]string{},
			Cookie: map[string]string{},
			Input:  strings.NewReader("abc"),
		})

		f := open()
		f.WriteHeader()
		f.FunctionEntry(frame)
		f.Assignment(frame, &event.Assignment{Variable: "y", Value: 1})
		f.GeneratorReturnValue(frame, 2)
		f.FunctionReturnValue(frame, "ok")
		f.FunctionExit(frame)
		f.WriteFooter()
		Expect(f.Close()).To(Succeed())

		Eventually(lines).Should(Receive(MatchJSON(`{
			"type": "request",
			"server": {"HTTP_HOST": "x"},
			"get": {}, "post": {}, "cookie": {},
			"input": "abc"
		}`)))
		Eventually(lines).Should(Receive(MatchJSON(`{
			"type": "call", "id": 1, "level": 1, "timestamp": 1.5,
			"function": "f", "file": "a.php", "line": 10,
			"arguments": [{"name": "x", "value": 42, "type": "int"}]
		}`)))
		Eventually(lines).Should(Receive(MatchJSON(`{
			"type": "return", "id": 1, "level": 1,
			"return": {"value": "ok", "type": "string(2)"}
		}`)))
		Eventually(lines).Should(Receive(MatchJSON(`{
			"type": "exit", "id": 1, "level": 1, "timestamp": 1.5
		}`)))
		Eventually(lines).Should(BeClosed())
	})

	It("should send a warning before a degraded return", func() {
		f := open()
		f.FunctionReturnValue(frame, make(chan int))
		Expect(f.Close()).To(Succeed())

		Eventually(lines).Should(Receive(MatchJSON(`{
			"type": "warning",
			"message": "Invalid JSON conversion for chan int"
		}`)))
		Eventually(lines).Should(Receive(MatchJSON(`{
			"type": "return", "id": 1, "level": 1,
			"return": {"value": null, "type": "chan int"}
		}`)))
		Expect(logs.FilterMessage("Invalid JSON conversion for chan int").Len()).
			To(Equal(1))
	})

	It("should survive a failing request source", func() {
		source.EXPECT().Request().DoAndReturn(func() event.RequestContext {
			panic("request globals gone")
		})

		f := open()
		defer f.Close()

		Expect(f.WriteHeader).NotTo(Panic())
		Expect(logs.FilterMessage("hook failed").Len()).To(Equal(1))
	})

	It("should keep returning from hooks after the collector goes away", func() {
		// Writes are best-effort: failures are neither reported nor retried.
		gone, err := net.Listen("tcp4", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		defer gone.Close()

		accepted := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			defer close(accepted)

			if c, err := gone.Accept(); err == nil {
				c.Close()
			}
		}()

		f, err := NewFracker(context.Background(), FrackerConfig{
			Host:   "127.0.0.1",
			Port:   strconv.Itoa(gone.Addr().(*net.TCPAddr).Port),
			Source: source,
			Logger: logger,
		})
		Expect(err).NotTo(HaveOccurred())
		Eventually(accepted).Should(BeClosed())

		Expect(func() {
			for i := 0; i < 100; i++ {
				f.FunctionEntry(frame)
				f.FunctionExit(frame)
			}
		}).NotTo(Panic())
		Expect(f.Close()).To(Succeed())
	})

	It("should close only once", func() {
		f := open()

		Expect(f.Close()).To(Succeed())
		Expect(f.Close()).To(Succeed())
	})

	It("should be unavailable when the collector is down", func() {
		listener.Close()

		f, err := NewFracker(context.Background(), FrackerConfig{
			Host:   "127.0.0.1",
			Port:   port,
			Logger: logger,
		})

		Expect(f).To(BeNil())
		Expect(err).To(MatchError(ErrUnavailable))
		Expect(errors.Is(err, conn.ErrUnreachable)).To(BeTrue())
		Expect(logs.FilterMessage("Cannot connect to 127.0.0.1:" + port).Len()).
			To(Equal(1))
	})

	It("should be unavailable when every candidate refuses", func() {
		dialer := &refusingDialer{}

		_, err := NewFracker(context.Background(), FrackerConfig{
			Host:   "collector.local",
			Port:   "6666",
			Logger: logger,
			Resolver: staticResolver{
				{IP: net.ParseIP("10.0.0.1")},
				{IP: net.ParseIP("10.0.0.2")},
			},
			Dialer: dialer,
		})

		Expect(err).To(MatchError(ErrUnavailable))
		Expect(dialer.dials).To(Equal(2))
	})

	It("should reject a service name", func() {
		_, err := NewFracker(context.Background(), FrackerConfig{
			Host: "127.0.0.1",
			Port: "http",
		})

		Expect(err).To(MatchError(ErrUnavailable))
		Expect(errors.Is(err, conn.ErrBadPort)).To(BeTrue())
	})
})

type staticResolver []net.IPAddr

func (r staticResolver) LookupIPAddr(
	_ context.Context,
	_ string,
) ([]net.IPAddr, error) {
	return r, nil
}
