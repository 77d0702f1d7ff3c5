// Package hooking defines the contract between an instrumented runtime and
// the code that observes it.
//
// The runtime owns a Hookable domain and invokes its hooks synchronously at
// fixed positions (a function is entered, a function returns, a request
// begins). Observers implement Hook and are attached before the runtime
// starts executing traced code.
package hooking

import (
	"slices"
	"sync"
)

// HookPos defines the enum of possible hooking positions.
type HookPos struct {
	Name string
}

// HookCtx is the context that holds all the information about the site that a
// hook is triggered.
type HookCtx struct {
	// Domain is the hookable object that is raising this hook.
	Domain Hookable

	// Pos identifies the execution point the hook is firing from.
	Pos *HookPos

	// Item carries the primary subject associated with the hook, usually the
	// call-stack frame.
	Item any

	// Detail holds optional auxiliary data (a return value, an assignment);
	// hook sites may leave it nil.
	Detail any
}

// Hookable defines an object that accept Hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	//
	// Hooks must be registered before the domain starts running traced code.
	// Implementations do not support removal.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// Hooks returns all the hooks registered.
	Hooks() []Hook

	// InvokeHook triggers the registered Hooks.
	InvokeHook(ctx HookCtx)
}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// A HookableBase keeps the hooks of a domain and invokes them in
// registration order. A hook that panics is skipped for that invocation;
// the remaining hooks still run.
type HookableBase struct {
	lock     sync.RWMutex
	hookList []Hook

	// OnPanic, when set, receives the hooks that panicked and the recovered
	// values.
	OnPanic func(hook Hook, recovered any)
}

// NewHookableBase creates a HookableBase object.
func NewHookableBase() *HookableBase {
	return &HookableBase{}
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	h.lock.RLock()
	defer h.lock.RUnlock()

	return len(h.hookList)
}

// Hooks returns a copy of the registered hooks.
func (h *HookableBase) Hooks() []Hook {
	h.lock.RLock()
	defer h.lock.RUnlock()

	return slices.Clone(h.hookList)
}

// AcceptHook registers a hook. Registering the same hook twice panics. Hooks
// must be of comparable types, usually pointers.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if slices.Contains(h.hookList, hook) {
		panic("duplicated hook")
	}

	h.hookList = append(h.hookList, hook)
}

// InvokeHook triggers the registered hooks in registration order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	h.lock.RLock()
	hooks := h.hookList
	h.lock.RUnlock()

	for _, hook := range hooks {
		h.invoke(hook, ctx)
	}
}

func (h *HookableBase) invoke(hook Hook, ctx HookCtx) {
	defer func() {
		if r := recover(); r != nil && h.OnPanic != nil {
			h.OnPanic(hook, r)
		}
	}()

	hook.Func(ctx)
}

var _ Hookable = (*HookableBase)(nil)
