// Package sioc carries comm frames as socket.io events, for engines that sit
// behind a socket.io gateway.
package sioc

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/specialistvlad/nbflow/internal/channel"
	"github.com/specialistvlad/nbflow/internal/ctxlog"
	"github.com/specialistvlad/nbflow/internal/protocol"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const (
	DefaultEvent   = "comm_msg"
	DefaultTimeout = 15 * time.Second
)

// Dialer opens socket.io channels. Frames are emitted and received on Event.
type Dialer struct {
	URL                string
	Namespace          string
	Event              string
	CommTarget         string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

func (d *Dialer) Dial(ctx context.Context, recv channel.Receiver) (channel.Channel, error) {
	event := d.Event
	if event == "" {
		event = DefaultEvent
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := ctxlog.FromContext(ctx).With("transport", "socketio", "url", d.URL, "event", event)

	parsedURL, err := url.Parse(d.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if d.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(d.Namespace, opts)

	c := &Channel{
		io:     io,
		event:  event,
		comm:   protocol.NewComm(d.CommTarget),
		logger: logger,
	}

	io.On(types.EventName(event), func(args ...any) {
		if len(args) == 0 {
			return
		}
		msg, err := decodeFrame(args[0])
		if err != nil {
			if errors.Is(err, protocol.ErrUnknownKind) {
				logger.Debug("Ignoring message", "error", err)
			} else {
				logger.Warn("Dropping malformed frame", "error", err)
			}
			return
		}
		recv(msg)
	})

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})

	logger.Debug("Connecting")
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		logger.Info("Comm opened", "comm_id", c.comm.ID)
		return c, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}
}

// Channel is an open socket.io comm.
type Channel struct {
	io     *socket.Socket
	event  string
	logger *slog.Logger

	mu     sync.Mutex
	comm   *protocol.Comm
	closed bool
}

func (c *Channel) Send(_ context.Context, msg protocol.Outbound) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return channel.ErrClosed
	}
	if !c.io.Connected() {
		return fmt.Errorf("socket.io client is not connected")
	}
	env, err := c.comm.Wrap(msg)
	if err != nil {
		return err
	}
	c.io.Emit(c.event, env)
	c.logger.Debug("Frame sent", "type", msg.Kind())
	return nil
}

func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.logger.Info("Comm closed", "comm_id", c.comm.ID, "sid", c.io.Id())
	c.io.Disconnect()
	return nil
}

// decodeFrame turns a socket.io event argument into an inbound message. The
// client library hands decoded JSON back as generic values, so those are
// re-encoded before unwrapping.
func decodeFrame(arg any) (*protocol.Inbound, error) {
	var frame []byte
	switch v := arg.(type) {
	case string:
		frame = []byte(v)
	case []byte:
		frame = v
	case json.RawMessage:
		frame = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to re-encode socket.io payload: %w", err)
		}
		frame = b
	}
	return protocol.Unwrap(frame)
}
