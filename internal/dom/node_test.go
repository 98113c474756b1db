package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeClasses(t *testing.T) {
	n := NewNode()

	n.AddClass("b", "a", "a")
	assert.True(t, n.HasClass("a"))
	assert.Equal(t, []string{"a", "b"}, n.Classes())

	n.RemoveClass("a", "missing")
	assert.False(t, n.HasClass("a"))
	assert.Equal(t, []string{"b"}, n.Classes())
}

func TestNodeListeners(t *testing.T) {
	t.Run("dispatch and remove", func(t *testing.T) {
		n := NewNode()
		calls := 0

		remove := n.AddListener(MouseOver, func() { calls++ })
		require.Equal(t, 1, n.ListenerCount(MouseOver))

		n.Dispatch(MouseOver)
		n.Dispatch(MouseOut)
		assert.Equal(t, 1, calls)

		remove()
		remove()
		assert.Equal(t, 0, n.ListenerCount(MouseOver))

		n.Dispatch(MouseOver)
		assert.Equal(t, 1, calls)
	})

	t.Run("same function registered twice fires twice", func(t *testing.T) {
		n := NewNode()
		calls := 0
		fn := func() { calls++ }

		n.AddListener(MouseOver, fn)
		n.AddListener(MouseOver, fn)
		n.Dispatch(MouseOver)

		assert.Equal(t, 2, calls)
	})

	t.Run("listener may remove itself during dispatch", func(t *testing.T) {
		n := NewNode()
		var remove func()
		calls := 0
		remove = n.AddListener(MouseOver, func() {
			calls++
			remove()
		})

		n.Dispatch(MouseOver)
		n.Dispatch(MouseOver)

		assert.Equal(t, 1, calls)
		assert.Equal(t, 0, n.ListenerCount(MouseOver))
	})

	t.Run("detach drops listeners", func(t *testing.T) {
		n := NewNode()
		n.AddListener(MouseOver, func() {})
		n.Detach()

		assert.Equal(t, 0, n.ListenerCount(MouseOver))
		n.AddListener(MouseOut, func() {})
		assert.Equal(t, 0, n.ListenerCount(MouseOut))
	})
}
