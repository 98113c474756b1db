package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/specialistvlad/nbflow/internal/channel"
	"github.com/specialistvlad/nbflow/internal/notebook"
)

// Extension creates a fresh Controller for every kernel-ready event of one
// notebook and tears it down when the kernel spec changes.
type Extension struct {
	nb     notebook.Notebook
	dialer channel.Dialer
	opts   []Option
	logger *slog.Logger

	mu       sync.Mutex
	ctx      context.Context
	current  *Controller
	attached bool
	onReady  notebook.Handler
	onSpec   notebook.Handler
}

// NewExtension returns a detached extension. opts are applied to every
// controller it creates.
func NewExtension(nb notebook.Notebook, dialer channel.Dialer, opts ...Option) *Extension {
	x := &Extension{
		nb:     nb,
		dialer: dialer,
		opts:   opts,
		ctx:    context.Background(),
	}
	// Resolve the options once to share the controllers' logger.
	probe := &Controller{}
	for _, opt := range opts {
		opt(probe)
	}
	x.logger = probe.logger
	if x.logger == nil {
		x.logger = slog.New(slog.DiscardHandler)
	}
	x.onReady = notebook.HandlerFunc(x.handleKernelReady)
	x.onSpec = notebook.HandlerFunc(x.handleSpecChanged)
	return x
}

// Attach subscribes to the kernel lifecycle events. ctx is used to dial every
// controller created afterwards. Attaching twice is a no-op.
func (x *Extension) Attach(ctx context.Context) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.attached {
		return
	}
	x.ctx = ctx
	events := x.nb.Events()
	events.On(notebook.EventKernelReady, x.onReady)
	events.On(notebook.EventKernelSpecChanged, x.onSpec)
	x.attached = true
}

// Detach unsubscribes and tears down the live controller, if any.
func (x *Extension) Detach() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.attached {
		events := x.nb.Events()
		events.Off(notebook.EventKernelReady, x.onReady)
		events.Off(notebook.EventKernelSpecChanged, x.onSpec)
		x.attached = false
	}
	return x.teardownLocked()
}

// Current returns the controller of the live kernel, or nil.
func (x *Extension) Current() *Controller {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.current
}

func (x *Extension) handleKernelReady(ev notebook.Event) {
	if ev.Notebook != nil && ev.Notebook != x.nb {
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.teardownLocked(); err != nil {
		x.logger.Warn("Previous session did not close cleanly", "error", err)
	}
	c := New(x.nb, x.dialer, x.opts...)
	x.current = c
	if err := c.Connect(x.ctx); err != nil {
		x.logger.Error("Failed to connect session", "error", err)
	}
}

func (x *Extension) handleSpecChanged(ev notebook.Event) {
	if ev.Notebook != nil && ev.Notebook != x.nb {
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.teardownLocked(); err != nil {
		x.logger.Warn("Session did not close cleanly", "error", err)
	}
}

func (x *Extension) teardownLocked() error {
	if x.current == nil {
		return nil
	}
	err := x.current.Teardown()
	x.current = nil
	return err
}
