// Package channel defines the bidirectional message channel between a session
// and the analysis engine. The channel is assumed reliable and ordered;
// concrete transports live in the wschannel and sioc subpackages.
package channel

import (
	"context"
	"errors"

	"github.com/specialistvlad/nbflow/internal/protocol"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("channel closed")

// Receiver is invoked for each inbound message, in arrival order. It may be
// called from a transport goroutine.
type Receiver func(msg *protocol.Inbound)

// Channel is an open comm with the analysis engine.
type Channel interface {
	Send(ctx context.Context, msg protocol.Outbound) error
	// Close releases the channel. It is safe to call more than once.
	Close() error
}

// Dialer opens channels. recv must be registered before the first inbound
// message can arrive.
type Dialer interface {
	Dial(ctx context.Context, recv Receiver) (Channel, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, recv Receiver) (Channel, error)

func (f DialerFunc) Dial(ctx context.Context, recv Receiver) (Channel, error) {
	return f(ctx, recv)
}
