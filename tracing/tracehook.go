package tracing

import (
	"fmt"
	"reflect"

	"github.com/fracker/fracker/event"
	"github.com/fracker/fracker/hooking"
)

var (
	// HookPosRequestBegin marks the start of a traced request.
	HookPosRequestBegin = &hooking.HookPos{Name: "RequestBegin"}

	// HookPosFunctionEntry marks a function entry. Item is the *event.Frame.
	HookPosFunctionEntry = &hooking.HookPos{Name: "FunctionEntry"}

	// HookPosFunctionExit marks a function exit. Item is the *event.Frame.
	HookPosFunctionExit = &hooking.HookPos{Name: "FunctionExit"}

	// HookPosReturnValue marks a function return. Item is the *event.Frame
	// and Detail the returned value.
	HookPosReturnValue = &hooking.HookPos{Name: "ReturnValue"}

	// HookPosGeneratorReturn marks the completion of a generator. Item is
	// the *event.Frame and Detail the returned value.
	HookPosGeneratorReturn = &hooking.HookPos{Name: "GeneratorReturn"}

	// HookPosAssignment marks a variable assignment. Item is the
	// *event.Frame and Detail the *event.Assignment.
	HookPosAssignment = &hooking.HookPos{Name: "Assignment"}

	// HookPosTraceEnd marks the end of the trace.
	HookPosTraceEnd = &hooking.HookPos{Name: "TraceEnd"}
)

// Attach lets the handler receive the hooks raised by a domain.
func Attach(domain hooking.Hookable, h Handler) {
	for _, hook := range domain.Hooks() {
		hook, ok := hook.(*handlerHook)
		if ok && hook.h == h {
			panic(fmt.Sprintf(
				"domain already has handler %s", reflect.TypeOf(h)))
		}
	}

	domain.AcceptHook(&handlerHook{h: h})
}

// A handlerHook forwards hooks to a Handler.
type handlerHook struct {
	h Handler
}

// Func calls the handler method that matches the hook position. Hooks with
// an unexpected item are dropped.
func (hook *handlerHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case HookPosRequestBegin:
		hook.h.WriteHeader()
		return
	case HookPosTraceEnd:
		hook.h.WriteFooter()
		return
	}

	frame, ok := ctx.Item.(*event.Frame)
	if !ok || frame == nil {
		return
	}

	switch ctx.Pos {
	case HookPosFunctionEntry:
		hook.h.FunctionEntry(frame)
	case HookPosFunctionExit:
		hook.h.FunctionExit(frame)
	case HookPosReturnValue:
		hook.h.FunctionReturnValue(frame, ctx.Detail)
	case HookPosGeneratorReturn:
		hook.h.GeneratorReturnValue(frame, ctx.Detail)
	case HookPosAssignment:
		if a, ok := ctx.Detail.(*event.Assignment); ok {
			hook.h.Assignment(frame, a)
		}
	}
}
