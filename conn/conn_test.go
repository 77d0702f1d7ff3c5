package conn

import (
	"bufio"
	"context"
	"net"
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Conn", func() {
	var (
		listener net.Listener
		accepted chan net.Conn
	)

	BeforeEach(func() {
		var err error
		listener, err = net.Listen("tcp4", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())

		accepted = make(chan net.Conn, 1)
		go func() {
			defer GinkgoRecover()

			c, err := listener.Accept()
			if err == nil {
				accepted <- c
			}
		}()
	})

	AfterEach(func() {
		listener.Close()
	})

	connect := func() *Conn {
		port := listener.Addr().(*net.TCPAddr).Port

		c, err := MakeBuilder().
			WithHost("127.0.0.1").
			WithPort(strconv.Itoa(port)).
			Build().
			Connect(context.Background())
		Expect(err).NotTo(HaveOccurred())

		return c
	}

	It("should frame each document with a newline", func() {
		c := connect()
		defer c.Close()

		var server net.Conn
		Eventually(accepted).Should(Receive(&server))
		defer server.Close()

		c.Send([]byte(`{"type":"exit","id":1,"level":1,"timestamp":1.5}`))
		c.Send([]byte(`{"type":"warning","message":"w"}`))

		reader := bufio.NewReader(server)

		line, err := reader.ReadString('\n')
		Expect(err).NotTo(HaveOccurred())
		Expect(line).To(Equal(`{"type":"exit","id":1,"level":1,"timestamp":1.5}` + "\n"))

		line, err = reader.ReadString('\n')
		Expect(err).NotTo(HaveOccurred())
		Expect(line).To(Equal(`{"type":"warning","message":"w"}` + "\n"))
	})

	It("should expose the collector address", func() {
		c := connect()
		defer c.Close()

		Expect(c.RemoteAddr().String()).To(Equal(listener.Addr().String()))
	})

	It("should close only once", func() {
		c := connect()

		Expect(c.Close()).To(Succeed())
		Expect(c.Close()).To(Succeed())
	})

	It("should ignore sends after close", func() {
		c := connect()
		Expect(c.Close()).To(Succeed())

		Expect(func() { c.Send([]byte(`{}`)) }).NotTo(Panic())
	})
})
