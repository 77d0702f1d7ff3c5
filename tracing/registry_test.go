package tracing

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Registry", func() {
	It("should list the built-in backends", func() {
		Expect(Backends()).To(ContainElements("fracker", "jsonl", "sqlite"))
	})

	It("should reject an unknown backend", func() {
		h, err := Open(context.Background(), Options{Backend: "xdebug"})

		Expect(h).To(BeNil())
		Expect(err).To(MatchError(ErrUnknownBackend))
	})

	It("should refuse to register a name twice", func() {
		Expect(func() { Register(BackendFracker, openFracker) }).To(Panic())
	})

	It("should open a registered backend", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		defer mockCtrl.Finish()

		handler := NewMockHandler(mockCtrl)
		Register("test-registry", func(
			_ context.Context,
			opts Options,
		) (Handler, error) {
			Expect(opts.Output).To(Equal("out"))
			return handler, nil
		})

		h, err := Open(context.Background(), Options{
			Backend: "test-registry",
			Output:  "out",
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(h).To(BeIdenticalTo(handler))
	})

	It("should pass connection failures through", func() {
		_, err := Open(context.Background(), Options{
			Backend: BackendFracker,
			Host:    "127.0.0.1",
			Port:    "service",
		})

		Expect(err).To(MatchError(ErrUnavailable))
	})
})
