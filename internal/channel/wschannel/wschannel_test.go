package wschannel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/specialistvlad/nbflow/internal/channel"
	"github.com/specialistvlad/nbflow/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// engineStub upgrades one connection, records every envelope it receives and
// answers the first frame with the given replies.
func engineStub(t *testing.T, replies ...string) (*httptest.Server, <-chan protocol.Envelope) {
	t.Helper()
	frames := make(chan protocol.Envelope, 16)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		first := true
		for {
			var env protocol.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			frames <- env
			if first {
				first = false
				for _, reply := range replies {
					if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
						return
					}
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, frames
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialSendReceive(t *testing.T) {
	srv, frames := engineStub(t,
		`{"comm_id":"x","data":{"type":"bogus"}}`,
		`not json`,
		`{"comm_id":"x","data":{"type":"establish"}}`,
	)

	received := make(chan *protocol.Inbound, 4)
	d := &Dialer{URL: wsURL(srv), CommTarget: "ipyflow"}
	ch, err := d.Dial(context.Background(), func(msg *protocol.Inbound) { received <- msg })
	require.NoError(t, err)
	defer ch.Close()

	require.NoError(t, ch.Send(context.Background(), protocol.ComputeExecSchedule{
		ContentByCellID: map[string]string{"a": "x = 1"},
	}))
	require.NoError(t, ch.Send(context.Background(), protocol.ChangeActiveCell{ActiveCellID: "a"}))

	first := <-frames
	assert.Equal(t, "ipyflow", first.TargetName, "first frame opens the comm")
	assert.NotEmpty(t, first.CommID)
	assert.JSONEq(t, `{"type":"compute_exec_schedule","content_by_cell_id":{"a":"x = 1"}}`, string(first.Data))

	second := <-frames
	assert.Empty(t, second.TargetName)
	assert.Equal(t, first.CommID, second.CommID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(second.Data, &payload))
	assert.Equal(t, "change_active_cell", payload["type"])

	select {
	case msg := <-received:
		assert.Equal(t, protocol.KindEstablish, msg.Type, "unknown and malformed frames are dropped")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for establish")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	srv, _ := engineStub(t)

	d := &Dialer{URL: wsURL(srv)}
	ch, err := d.Dial(context.Background(), func(*protocol.Inbound) {})
	require.NoError(t, err)

	require.NoError(t, ch.Close())
	assert.NotPanics(t, func() { _ = ch.Close() })
	assert.ErrorIs(t, ch.Send(context.Background(), protocol.ChangeActiveCell{}), channel.ErrClosed)

	select {
	case <-ch.(*Channel).Done():
	case <-time.After(5 * time.Second):
		t.Fatal("read loop did not stop")
	}
}

func TestDialFailure(t *testing.T) {
	d := &Dialer{URL: "ws://127.0.0.1:1/nope"}
	_, err := d.Dial(context.Background(), func(*protocol.Inbound) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "websocket dial failed")
}
