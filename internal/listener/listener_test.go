package listener

import (
	"testing"

	"github.com/specialistvlad/nbflow/internal/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBind(t *testing.T) {
	t.Run("fires until cancelled", func(t *testing.T) {
		m := NewManager()
		region := dom.NewNode()
		calls := 0

		b := m.Bind(region, dom.MouseOver, func() { calls++ })
		require.NotNil(t, b)
		assert.Equal(t, 1, m.Active(region))

		region.Dispatch(dom.MouseOver)
		b.Cancel()
		b.Cancel()
		region.Dispatch(dom.MouseOver)

		assert.Equal(t, 1, calls)
		assert.Equal(t, 0, m.Active(region))
		assert.Equal(t, 0, region.ListenerCount(dom.MouseOver))
	})

	t.Run("nil region is a no-op", func(t *testing.T) {
		m := NewManager()

		b := m.Bind(nil, dom.MouseOver, func() { t.Fatal("must not fire") })
		assert.Nil(t, b)
		b.Cancel()
		m.Cleanup(nil)
		assert.Equal(t, 0, m.Active(nil))
		assert.Equal(t, 0, m.Len())
	})
}

func TestCleanup(t *testing.T) {
	m := NewManager()
	input := dom.NewNode()
	output := dom.NewNode()

	m.Bind(input, dom.MouseOver, func() {})
	m.Bind(input, dom.MouseOut, func() {})
	m.Bind(output, dom.MouseOver, func() {})
	require.Equal(t, 3, m.Len())

	m.Cleanup(input)
	assert.Equal(t, 0, input.ListenerCount(dom.MouseOver))
	assert.Equal(t, 0, input.ListenerCount(dom.MouseOut))
	assert.Equal(t, 0, m.Active(input))
	assert.Equal(t, 1, m.Active(output))

	// A second cleanup must neither panic nor touch other regions.
	m.Cleanup(input)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 1, output.ListenerCount(dom.MouseOver))
}

func TestCleanupThenRebindDoesNotDuplicate(t *testing.T) {
	m := NewManager()
	region := dom.NewNode()
	calls := 0

	for range 3 {
		m.Cleanup(region)
		m.Bind(region, dom.MouseOver, func() { calls++ })
	}

	region.Dispatch(dom.MouseOver)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, m.Active(region))
}

func TestCleanupExcept(t *testing.T) {
	m := NewManager()
	kept := dom.NewNode()
	gone := dom.NewNode()

	m.Bind(kept, dom.MouseOver, func() {})
	m.Bind(gone, dom.MouseOver, func() {})
	m.Bind(gone, dom.MouseOut, func() {})

	swept := m.CleanupExcept(map[dom.Region]struct{}{kept: {}})

	assert.Equal(t, 1, swept)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 0, gone.ListenerCount(dom.MouseOver))
	assert.Equal(t, 0, gone.ListenerCount(dom.MouseOut))
	assert.Equal(t, 1, kept.ListenerCount(dom.MouseOver))
}
