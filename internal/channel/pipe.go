package channel

import (
	"context"
	"sync"

	"github.com/specialistvlad/nbflow/internal/protocol"
)

// Pipe is an in-process Dialer whose far end is driven by the caller, used
// to stand in for the analysis engine. Inbound delivery is synchronous on the
// goroutine that calls Deliver.
type Pipe struct {
	mu      sync.Mutex
	sent    []protocol.Outbound
	recv    Receiver
	dials   int
	closed  bool
	dialErr error
	onSend  func(protocol.Outbound)
}

func NewPipe() *Pipe {
	return &Pipe{}
}

// FailDial makes subsequent dials return err.
func (p *Pipe) FailDial(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialErr = err
}

// OnSend registers fn to observe every outbound message. fn runs on the
// sender's goroutine and must not call Deliver synchronously.
func (p *Pipe) OnSend(fn func(protocol.Outbound)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onSend = fn
}

func (p *Pipe) Dial(_ context.Context, recv Receiver) (Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dialErr != nil {
		return nil, p.dialErr
	}
	p.recv = recv
	p.dials++
	p.closed = false
	return &pipeEnd{p: p}, nil
}

// Deliver hands msg to the receiver of the most recent dial. It reports
// false when no open channel exists.
func (p *Pipe) Deliver(msg *protocol.Inbound) bool {
	p.mu.Lock()
	recv := p.recv
	closed := p.closed
	p.mu.Unlock()

	if recv == nil || closed {
		return false
	}
	recv(msg)
	return true
}

// Sent returns a copy of every message sent so far.
func (p *Pipe) Sent() []protocol.Outbound {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]protocol.Outbound, len(p.sent))
	copy(out, p.sent)
	return out
}

// Dials reports how many channels were opened.
func (p *Pipe) Dials() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dials
}

// Closed reports whether the most recent channel was closed.
func (p *Pipe) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

type pipeEnd struct {
	p *Pipe
}

func (e *pipeEnd) Send(_ context.Context, msg protocol.Outbound) error {
	e.p.mu.Lock()
	if e.p.closed {
		e.p.mu.Unlock()
		return ErrClosed
	}
	e.p.sent = append(e.p.sent, msg)
	onSend := e.p.onSend
	e.p.mu.Unlock()

	if onSend != nil {
		onSend(msg)
	}
	return nil
}

func (e *pipeEnd) Close() error {
	e.p.mu.Lock()
	defer e.p.mu.Unlock()
	e.p.closed = true
	return nil
}
