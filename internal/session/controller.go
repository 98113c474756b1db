package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/specialistvlad/nbflow/internal/channel"
	"github.com/specialistvlad/nbflow/internal/highlight"
	"github.com/specialistvlad/nbflow/internal/metrics"
	"github.com/specialistvlad/nbflow/internal/notebook"
	"github.com/specialistvlad/nbflow/internal/protocol"
)

// Applied describes a classification that was just rendered.
type Applied struct {
	Classification highlight.Classification
	Registry       *highlight.Registry
}

// Observer is told about every applied classification. It runs after the
// controller lock is released and may call back into the controller.
type Observer func(Applied)

// Option configures a Controller.
type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func WithObserver(fn Observer) Option {
	return func(c *Controller) { c.observer = fn }
}

// WithEngine replaces the highlight engine, e.g. to share a binder.
func WithEngine(e *highlight.Engine) Option {
	return func(c *Controller) { c.engine = e }
}

// Controller is the session for one notebook and one kernel.
type Controller struct {
	nb       notebook.Notebook
	dialer   channel.Dialer
	engine   *highlight.Engine
	logger   *slog.Logger
	metrics  *metrics.Metrics
	observer Observer

	mu        sync.Mutex
	ctx       context.Context
	state     State
	ch        channel.Channel
	onExecute notebook.Handler
	onSelect  notebook.Handler
}

// New returns a disconnected controller for nb.
func New(nb notebook.Notebook, dialer channel.Dialer, opts ...Option) *Controller {
	c := &Controller{
		nb:     nb,
		dialer: dialer,
		ctx:    context.Background(),
		state:  StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.engine == nil {
		c.engine = highlight.NewEngine(nil, c.logger)
	}
	c.onExecute = notebook.HandlerFunc(c.handleExecute)
	c.onSelect = notebook.HandlerFunc(c.handleSelect)
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Engine returns the highlight engine in use.
func (c *Controller) Engine() *highlight.Engine {
	return c.engine
}

// Connect opens the channel and requests the initial classification with the
// full content snapshot.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateTornDown:
		return ErrTornDown
	case StateEstablishing, StateEstablished:
		return ErrAlreadyConnected
	}

	ch, err := c.dialer.Dial(ctx, c.receive)
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	c.ch = ch
	c.ctx = context.WithoutCancel(ctx)
	c.transition(StateEstablishing)

	msg := protocol.ComputeExecSchedule{ContentByCellID: notebook.ContentByID(c.nb)}
	if err := c.send(msg); err != nil {
		_ = ch.Close()
		c.ch = nil
		c.transition(StateDisconnected)
		return fmt.Errorf("failed to request initial classification: %w", err)
	}
	return nil
}

// Teardown clears every tag and binding, unsubscribes from host events and
// closes the channel. It is idempotent.
func (c *Controller) Teardown() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateTornDown {
		return nil
	}
	prev := c.state

	c.engine.Reset(highlight.Snapshot(c.nb))
	c.metrics.BindingsCleared()

	if prev == StateEstablished {
		events := c.nb.Events()
		events.Off(notebook.EventExecute, c.onExecute)
		events.Off(notebook.EventSelect, c.onSelect)
	}

	var err error
	if c.ch != nil {
		if cerr := c.ch.Close(); cerr != nil {
			err = fmt.Errorf("failed to close channel: %w", cerr)
		}
		c.ch = nil
	}
	c.transition(StateTornDown)
	return err
}

func (c *Controller) receive(msg *protocol.Inbound) {
	if msg == nil {
		return
	}
	c.metrics.MessageReceived(string(msg.Type))

	applied, ok := c.handleMessage(msg)
	if ok && c.observer != nil {
		c.observer(applied)
	}
}

func (c *Controller) handleMessage(msg *protocol.Inbound) (Applied, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateTornDown || c.state == StateDisconnected {
		c.logger.Debug("Dropping message outside an open session", "type", msg.Type, "state", c.state)
		return Applied{}, false
	}

	switch msg.Type {
	case protocol.KindEstablish:
		if c.state == StateEstablished {
			c.logger.Debug("Duplicate establish ignored")
			return Applied{}, false
		}
		events := c.nb.Events()
		events.On(notebook.EventExecute, c.onExecute)
		events.On(notebook.EventSelect, c.onSelect)
		c.transition(StateEstablished)
		return Applied{}, false

	case protocol.KindComputeExecSchedule:
		cls := highlight.FromMessage(msg)
		reg := highlight.Snapshot(c.nb)
		c.engine.Apply(cls, reg)
		c.metrics.ClassificationApplied(c.engine.Binder().Len())
		c.logger.Debug("Classification applied",
			"waiting", len(cls.Waiting),
			"ready", len(cls.Ready),
			"bindings", c.engine.Binder().Len(),
		)
		return Applied{Classification: cls, Registry: reg}, true

	default:
		c.logger.Warn("Ignoring message of unknown type", "type", msg.Type)
		return Applied{}, false
	}
}

func (c *Controller) handleExecute(ev notebook.Event) {
	if !c.owns(ev) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateEstablished {
		return
	}

	if el := ev.Cell.Element(); el != nil {
		el.RemoveClass(highlight.TagReady, highlight.TagReadyMakingInput)
	}
	msg := protocol.ComputeExecSchedule{
		ExecutedCellID:  ev.Cell.ID(),
		ContentByCellID: notebook.ContentByID(c.nb),
	}
	if err := c.send(msg); err != nil {
		c.logger.Error("Failed to request classification", "cell", ev.Cell.ID(), "error", err)
	}
}

func (c *Controller) handleSelect(ev notebook.Event) {
	if !c.owns(ev) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateEstablished {
		return
	}

	msg := protocol.ChangeActiveCell{ActiveCellID: ev.Cell.ID()}
	if idx, ok := notebook.IndexOf(c.nb, ev.Cell.ID()); ok {
		msg.OrderIdx = &idx
	}
	if err := c.send(msg); err != nil {
		c.logger.Error("Failed to report active cell", "cell", ev.Cell.ID(), "error", err)
	}
}

// owns reports whether ev concerns this controller's notebook.
func (c *Controller) owns(ev notebook.Event) bool {
	if ev.Cell == nil || ev.Notebook != c.nb {
		c.logger.Debug("Ignoring event from another notebook", "event", ev.Name)
		return false
	}
	return true
}

// send must be called with c.mu held.
func (c *Controller) send(msg protocol.Outbound) error {
	if c.ch == nil {
		return channel.ErrClosed
	}
	if err := c.ch.Send(c.ctx, msg); err != nil {
		c.metrics.SendFailed()
		return err
	}
	c.metrics.MessageSent(string(msg.Kind()))
	return nil
}

func (c *Controller) transition(next State) {
	c.logger.Info("Session state changed", "from", c.state, "to", next)
	c.state = next
}
