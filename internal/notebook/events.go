package notebook

import (
	"slices"
	"sync"
)

// Host event names.
const (
	EventKernelReady       = "kernel_ready.Kernel"
	EventKernelSpecChanged = "spec_changed.Kernel"
	EventExecute           = "execute.CodeCell"
	EventSelect            = "select.Cell"
)

// Event is delivered to subscribers. Cell is nil for kernel events.
type Event struct {
	Name     string
	Notebook Notebook
	Cell     Cell
}

// Handler receives host events. Handlers are compared by identity when they
// are unsubscribed, so implementations must be pointer types.
type Handler interface {
	HandleEvent(ev Event)
}

type funcHandler struct {
	fn func(Event)
}

func (h *funcHandler) HandleEvent(ev Event) { h.fn(ev) }

// HandlerFunc wraps fn in a Handler with its own identity. Keep the returned
// value to unsubscribe later.
func HandlerFunc(fn func(Event)) Handler {
	return &funcHandler{fn: fn}
}

// Events is the subscription side of the host event channel.
type Events interface {
	On(name string, h Handler)
	Off(name string, h Handler)
}

// Bus is a synchronous, in-process Events implementation.
type Bus struct {
	mu       sync.Mutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

func (b *Bus) On(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Off removes the first registration of h for name.
func (b *Bus) Off(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	hs := b.handlers[name]
	if i := slices.Index(hs, h); i >= 0 {
		b.handlers[name] = slices.Delete(hs, i, i+1)
	}
}

// Emit delivers ev to every handler subscribed to ev.Name. Handlers run on
// the caller's goroutine without the bus lock held.
func (b *Bus) Emit(ev Event) {
	b.mu.Lock()
	hs := slices.Clone(b.handlers[ev.Name])
	b.mu.Unlock()

	for _, h := range hs {
		h.HandleEvent(ev)
	}
}

// Subscribers reports the number of handlers registered for name.
func (b *Bus) Subscribers(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[name])
}
