package notebook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotebook(t *testing.T, ids ...string) *Memory {
	t.Helper()
	specs := make([]CellSpec, 0, len(ids))
	for _, id := range ids {
		specs = append(specs, CellSpec{ID: id, Source: "x = " + id})
	}
	nb, err := NewMemory(specs...)
	require.NoError(t, err)
	return nb
}

func cellIDs(nb Notebook) []string {
	var ids []string
	for _, c := range nb.Cells() {
		ids = append(ids, c.ID())
	}
	return ids
}

func TestMemoryMutations(t *testing.T) {
	nb := newTestNotebook(t, "a", "b", "c")

	_, err := nb.Insert(1, CellSpec{ID: "m", Kind: KindMarkdown, Source: "# title"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "m", "b", "c"}, cellIDs(nb))

	_, err = nb.Insert(0, CellSpec{ID: "a"})
	assert.Error(t, err, "duplicate ids are rejected")

	require.True(t, nb.Move("c", 0))
	assert.Equal(t, []string{"c", "a", "m", "b"}, cellIDs(nb))

	require.True(t, nb.Move("c", 99))
	assert.Equal(t, []string{"a", "m", "b", "c"}, cellIDs(nb))

	removed, _ := nb.Cell("b")
	removed.InputNode().AddListener("mouseover", func() {})
	require.True(t, nb.Remove("b"))
	assert.False(t, nb.Remove("b"))
	assert.Equal(t, []string{"a", "m", "c"}, cellIDs(nb))
	assert.Zero(t, removed.InputNode().ListenerCount("mouseover"), "removed cells drop their listeners")

	require.True(t, nb.SetSource("a", "y = 1"))
	a, _ := nb.Cell("a")
	assert.Equal(t, "y = 1", a.Source())
}

func TestMemoryCellSections(t *testing.T) {
	nb, err := NewMemory(CellSpec{ID: "a", NoInput: true, NoOutput: true})
	require.NoError(t, err)

	cell := nb.Cells()[0]
	assert.Nil(t, cell.Input())
	assert.Nil(t, cell.Output())
	assert.NotNil(t, cell.Element())
	assert.Equal(t, KindCode, cell.Kind(), "kind defaults to code")
}

func TestContentByID(t *testing.T) {
	nb := newTestNotebook(t, "a", "b")
	_, err := nb.Insert(1, CellSpec{ID: "md", Kind: KindMarkdown, Source: "text"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"a": "x = a", "b": "x = b"}, ContentByID(nb))
}

func TestIndexOf(t *testing.T) {
	nb := newTestNotebook(t, "a", "b", "c", "d", "e")

	idx, ok := IndexOf(nb, "c")
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	nb.Move("c", 4)
	idx, _ = IndexOf(nb, "c")
	assert.Equal(t, 4, idx, "position follows the live order")

	_, ok = IndexOf(nb, "missing")
	assert.False(t, ok)
}

func TestBus(t *testing.T) {
	nb := newTestNotebook(t, "a")
	var got []Event

	h := HandlerFunc(func(ev Event) { got = append(got, ev) })
	nb.Bus().On(EventExecute, h)
	assert.Equal(t, 1, nb.Bus().Subscribers(EventExecute))

	require.True(t, nb.Execute("a"))
	assert.False(t, nb.Execute("missing"))
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Cell.ID())
	assert.Equal(t, Notebook(nb), got[0].Notebook)

	nb.Bus().Off(EventExecute, h)
	nb.Bus().Off(EventExecute, h)
	nb.Execute("a")
	assert.Len(t, got, 1)
	assert.Equal(t, 0, nb.Bus().Subscribers(EventExecute))
}

func TestBusDistinguishesHandlers(t *testing.T) {
	bus := NewBus()
	calls := map[string]int{}
	first := HandlerFunc(func(Event) { calls["first"]++ })
	second := HandlerFunc(func(Event) { calls["second"]++ })

	bus.On(EventSelect, first)
	bus.On(EventSelect, second)
	bus.Off(EventSelect, first)
	bus.Emit(Event{Name: EventSelect})

	assert.Equal(t, map[string]int{"second": 1}, calls)
}

func TestParseIPYNB(t *testing.T) {
	data := []byte(`{
  "nbformat": 4,
  "nbformat_minor": 5,
  "cells": [
    {"id": "c1", "cell_type": "code", "source": ["x = 1\n", "y = x + 1"], "outputs": []},
    {"cell_type": "markdown", "source": "# notes"},
    {"id": "c3", "cell_type": "raw", "source": ""}
  ]
}`)

	specs, err := ParseIPYNB(data)
	require.NoError(t, err)

	expected := []CellSpec{
		{ID: "c1", Kind: KindCode, Source: "x = 1\ny = x + 1"},
		{ID: "cell-1", Kind: KindMarkdown, Source: "# notes", NoOutput: true},
		{ID: "c3", Kind: KindRaw, Source: "", NoOutput: true},
	}
	if diff := cmp.Diff(expected, specs); diff != "" {
		t.Errorf("ParseIPYNB() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIPYNBErrors(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{name: "invalid json", data: `{`},
		{name: "old format", data: `{"nbformat": 3, "cells": []}`},
		{name: "bad source", data: `{"cells": [{"cell_type": "code", "source": 3}]}`},
		{name: "unknown type", data: `{"cells": [{"cell_type": "widget", "source": ""}]}`},
		{name: "duplicate id", data: `{"cells": [{"id": "a", "cell_type": "code"}, {"id": "a", "cell_type": "code"}]}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseIPYNB([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadIPYNB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nb.ipynb")
	require.NoError(t, os.WriteFile(path, []byte(`{"nbformat": 4, "cells": [{"id": "a", "cell_type": "code", "source": "1"}]}`), 0644))

	specs, err := LoadIPYNB(path)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "a", specs[0].ID)

	_, err = LoadIPYNB(filepath.Join(t.TempDir(), "missing.ipynb"))
	assert.Error(t, err)
}
