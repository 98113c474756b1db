package session

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/nbflow/internal/channel"
	"github.com/specialistvlad/nbflow/internal/notebook"
	"github.com/specialistvlad/nbflow/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensionLifecycle(t *testing.T) {
	nb := newNotebook(t, "a", "b")
	pipe := channel.NewPipe()
	x := NewExtension(nb, pipe)

	x.Attach(context.Background())
	x.Attach(context.Background())
	assert.Equal(t, 1, nb.Bus().Subscribers(notebook.EventKernelReady))
	assert.Equal(t, 1, nb.Bus().Subscribers(notebook.EventKernelSpecChanged))
	assert.Nil(t, x.Current())

	nb.KernelReady()
	first := x.Current()
	require.NotNil(t, first)
	assert.Equal(t, StateEstablishing, first.State())
	assert.Equal(t, 1, pipe.Dials())

	pipe.Deliver(&protocol.Inbound{Type: protocol.KindEstablish})
	assert.Equal(t, StateEstablished, first.State())

	nb.KernelReady()
	second := x.Current()
	require.NotNil(t, second)
	assert.NotSame(t, first, second)
	assert.Equal(t, StateTornDown, first.State(), "a new kernel replaces the live session")
	assert.Equal(t, 2, pipe.Dials())
	assert.Equal(t, 0, nb.Bus().Subscribers(notebook.EventExecute))

	nb.ChangeKernelSpec()
	assert.Nil(t, x.Current())
	assert.Equal(t, StateTornDown, second.State())
	assert.True(t, pipe.Closed())

	require.NoError(t, x.Detach())
	assert.Zero(t, nb.Bus().Subscribers(notebook.EventKernelReady))
	assert.Zero(t, nb.Bus().Subscribers(notebook.EventKernelSpecChanged))
}

func TestExtensionIgnoresOtherNotebooks(t *testing.T) {
	nb := newNotebook(t, "a")
	other := newNotebook(t, "a")
	pipe := channel.NewPipe()
	x := NewExtension(nb, pipe)
	x.Attach(context.Background())

	nb.Bus().Emit(notebook.Event{Name: notebook.EventKernelReady, Notebook: other})
	assert.Nil(t, x.Current())
	assert.Zero(t, pipe.Dials())
}

func TestExtensionConnectFailure(t *testing.T) {
	nb := newNotebook(t, "a")
	pipe := channel.NewPipe()
	pipe.FailDial(errors.New("refused"))
	x := NewExtension(nb, pipe)
	x.Attach(context.Background())

	assert.NotPanics(t, nb.KernelReady)
	require.NotNil(t, x.Current())
	assert.Equal(t, StateDisconnected, x.Current().State())
}

func TestExtensionDetachTearsDown(t *testing.T) {
	nb := newNotebook(t, "a")
	pipe := channel.NewPipe()
	x := NewExtension(nb, pipe)
	x.Attach(context.Background())
	nb.KernelReady()
	c := x.Current()
	require.NotNil(t, c)

	require.NoError(t, x.Detach())
	assert.Equal(t, StateTornDown, c.State())
	assert.Nil(t, x.Current())

	nb.KernelReady()
	assert.Nil(t, x.Current(), "detached extensions ignore the kernel")
}
