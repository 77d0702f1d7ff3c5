package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingHook struct {
	name string
	log  *[]string
}

func (h *recordingHook) Func(ctx HookCtx) {
	*h.log = append(*h.log, h.name+":"+ctx.Pos.Name)
}

var _ = Describe("HookableBase", func() {
	var (
		base *HookableBase
		log  []string
	)

	BeforeEach(func() {
		base = NewHookableBase()
		log = nil
	})

	It("should invoke hooks in registration order", func() {
		base.AcceptHook(&recordingHook{name: "a", log: &log})
		base.AcceptHook(&recordingHook{name: "b", log: &log})

		pos := &HookPos{Name: "Enter"}
		base.InvokeHook(HookCtx{Domain: base, Pos: pos})

		Expect(base.NumHooks()).To(Equal(2))
		Expect(log).To(Equal([]string{"a:Enter", "b:Enter"}))
	})

	It("should panic when the same hook is registered twice", func() {
		h := &recordingHook{name: "a", log: &log}
		base.AcceptHook(h)

		Expect(func() { base.AcceptHook(h) }).To(Panic())
	})

	It("should do nothing without hooks", func() {
		base.InvokeHook(HookCtx{Pos: &HookPos{Name: "Enter"}})

		Expect(base.Hooks()).To(BeEmpty())
	})
})

var _ = Describe("HookableBase isolation", func() {
	It("should keep invoking hooks after one panics", func() {
		var (
			log       []string
			recovered []any
		)

		base := NewHookableBase()
		base.OnPanic = func(_ Hook, r any) {
			recovered = append(recovered, r)
		}

		base.AcceptHook(&panickingHook{})
		base.AcceptHook(&recordingHook{name: "b", log: &log})

		Expect(func() {
			base.InvokeHook(HookCtx{Pos: &HookPos{Name: "Exit"}})
		}).NotTo(Panic())

		Expect(log).To(Equal([]string{"b:Exit"}))
		Expect(recovered).To(Equal([]any{"boom"}))
	})

	It("should return a copy of the hooks", func() {
		var log []string

		base := NewHookableBase()
		base.AcceptHook(&recordingHook{name: "a", log: &log})

		hooks := base.Hooks()
		hooks[0] = nil

		Expect(base.Hooks()[0]).NotTo(BeNil())
	})
})

type panickingHook struct{}

func (panickingHook) Func(HookCtx) {
	panic("boom")
}
