// Package wschannel carries comm frames over a plain WebSocket connection.
package wschannel

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/specialistvlad/nbflow/internal/channel"
	"github.com/specialistvlad/nbflow/internal/ctxlog"
	"github.com/specialistvlad/nbflow/internal/protocol"
)

const writeWait = 10 * time.Second

// Dialer opens WebSocket channels to a single URL.
type Dialer struct {
	URL                string
	CommTarget         string
	InsecureSkipVerify bool
	// HandshakeTimeout bounds the opening handshake; zero keeps the
	// gorilla default.
	HandshakeTimeout time.Duration
}

// Dial connects and starts the read loop. recv is called from the read
// goroutine, one message at a time.
func (d *Dialer) Dial(ctx context.Context, recv channel.Receiver) (channel.Channel, error) {
	logger := ctxlog.FromContext(ctx).With("transport", "websocket", "url", d.URL)

	wsDialer := *websocket.DefaultDialer
	if d.HandshakeTimeout > 0 {
		wsDialer.HandshakeTimeout = d.HandshakeTimeout
	}
	if d.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		wsDialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	conn, _, err := wsDialer.DialContext(ctx, d.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	c := &Channel{
		conn:   conn,
		comm:   protocol.NewComm(d.CommTarget),
		logger: logger,
		done:   make(chan struct{}),
	}
	logger.Info("Comm opened", "comm_id", c.comm.ID)
	go c.readLoop(recv)
	return c, nil
}

// Channel is an open WebSocket comm.
type Channel struct {
	conn   *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex
	comm    *protocol.Comm
	closed  bool

	closeOnce sync.Once
	done      chan struct{}
}

func (c *Channel) Send(ctx context.Context, msg protocol.Outbound) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed {
		return channel.ErrClosed
	}
	env, err := c.comm.Wrap(msg)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := c.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("failed to write %s frame: %w", msg.Kind(), err)
	}
	c.logger.Debug("Frame sent", "type", msg.Kind())
	return nil
}

// Close sends a close frame and tears the connection down.
func (c *Channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		c.closed = true
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()
		err = c.conn.Close()
		c.logger.Info("Comm closed", "comm_id", c.comm.ID)
	})
	return err
}

// Done is closed when the read loop exits.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

func (c *Channel) readLoop(recv channel.Receiver) {
	defer close(c.done)
	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("Peer closed the connection")
			} else if !c.isClosed() {
				c.logger.Warn("Read failed, stopping", "error", err)
			}
			return
		}

		msg, err := protocol.Unwrap(frame)
		if err != nil {
			if errors.Is(err, protocol.ErrUnknownKind) {
				c.logger.Debug("Ignoring message", "error", err)
			} else {
				c.logger.Warn("Dropping malformed frame", "error", err)
			}
			continue
		}
		recv(msg)
	}
}

func (c *Channel) isClosed() bool {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.closed
}
