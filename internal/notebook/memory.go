package notebook

import (
	"fmt"
	"slices"
	"sync"

	"github.com/specialistvlad/nbflow/internal/dom"
)

// CellSpec describes a cell to be inserted into a Memory notebook.
type CellSpec struct {
	ID     string
	Kind   Kind
	Source string
	// NoInput and NoOutput create a cell without the corresponding section.
	NoInput  bool
	NoOutput bool
}

// MemoryCell is a cell of a Memory notebook.
type MemoryCell struct {
	id     string
	kind   Kind
	nb     *Memory
	root   *dom.Node
	input  *dom.Node
	output *dom.Node

	mu     sync.Mutex
	source string
}

func (c *MemoryCell) ID() string { return c.id }
func (c *MemoryCell) Kind() Kind { return c.kind }
func (c *MemoryCell) Notebook() Notebook { return c.nb }

func (c *MemoryCell) Source() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

func (c *MemoryCell) Element() dom.Element { return c.root }

// Input returns an untyped nil when the section is absent so callers can
// compare the interface against nil.
func (c *MemoryCell) Input() dom.Region {
	if c.input == nil {
		return nil
	}
	return c.input
}

func (c *MemoryCell) Output() dom.Region {
	if c.output == nil {
		return nil
	}
	return c.output
}

// Root, InputNode and OutputNode expose the concrete nodes so the host can
// simulate hovering and inspect tags.
func (c *MemoryCell) Root() *dom.Node { return c.root }
func (c *MemoryCell) InputNode() *dom.Node { return c.input }
func (c *MemoryCell) OutputNode() *dom.Node { return c.output }

func (c *MemoryCell) detach() {
	c.root.Detach()
	if c.input != nil {
		c.input.Detach()
	}
	if c.output != nil {
		c.output.Detach()
	}
}

// Memory is an in-memory notebook host. All mutators are safe for concurrent
// use; event delivery happens synchronously on the mutating goroutine.
type Memory struct {
	mu    sync.Mutex
	cells []*MemoryCell
	bus   *Bus
}

// NewMemory builds a notebook from specs in order.
func NewMemory(specs ...CellSpec) (*Memory, error) {
	nb := &Memory{bus: NewBus()}
	for _, spec := range specs {
		if _, err := nb.Insert(len(nb.cells), spec); err != nil {
			return nil, err
		}
	}
	return nb, nil
}

func (nb *Memory) Events() Events { return nb.bus }

// Bus exposes the concrete event bus.
func (nb *Memory) Bus() *Bus { return nb.bus }

func (nb *Memory) Cells() []Cell {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	out := make([]Cell, len(nb.cells))
	for i, c := range nb.cells {
		out[i] = c
	}
	return out
}

// Cell returns the cell with id.
func (nb *Memory) Cell(id string) (*MemoryCell, bool) {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	i := nb.indexLocked(id)
	if i < 0 {
		return nil, false
	}
	return nb.cells[i], true
}

// Len returns the number of cells.
func (nb *Memory) Len() int {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	return len(nb.cells)
}

// Insert adds a cell at position pos (clamped to the valid range).
func (nb *Memory) Insert(pos int, spec CellSpec) (*MemoryCell, error) {
	if spec.ID == "" {
		return nil, fmt.Errorf("cell id must not be empty")
	}
	if spec.Kind == "" {
		spec.Kind = KindCode
	}

	cell := &MemoryCell{
		id:     spec.ID,
		kind:   spec.Kind,
		nb:     nb,
		root:   dom.NewNode(),
		source: spec.Source,
	}
	if !spec.NoInput {
		cell.input = dom.NewNode()
	}
	if !spec.NoOutput {
		cell.output = dom.NewNode()
	}

	nb.mu.Lock()
	defer nb.mu.Unlock()

	if nb.indexLocked(spec.ID) >= 0 {
		return nil, fmt.Errorf("duplicate cell id %q", spec.ID)
	}
	pos = max(0, min(pos, len(nb.cells)))
	nb.cells = slices.Insert(nb.cells, pos, cell)
	return cell, nil
}

// Remove deletes the cell with id and tears down its nodes.
func (nb *Memory) Remove(id string) bool {
	nb.mu.Lock()
	i := nb.indexLocked(id)
	if i < 0 {
		nb.mu.Unlock()
		return false
	}
	cell := nb.cells[i]
	nb.cells = slices.Delete(nb.cells, i, i+1)
	nb.mu.Unlock()

	cell.detach()
	return true
}

// Move relocates the cell with id to position pos.
func (nb *Memory) Move(id string, pos int) bool {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	i := nb.indexLocked(id)
	if i < 0 {
		return false
	}
	cell := nb.cells[i]
	nb.cells = slices.Delete(nb.cells, i, i+1)
	pos = max(0, min(pos, len(nb.cells)))
	nb.cells = slices.Insert(nb.cells, pos, cell)
	return true
}

// SetSource replaces the source text of the cell with id.
func (nb *Memory) SetSource(id, source string) bool {
	cell, ok := nb.Cell(id)
	if !ok {
		return false
	}
	cell.mu.Lock()
	cell.source = source
	cell.mu.Unlock()
	return true
}

// Execute emits an execute event for the cell with id.
func (nb *Memory) Execute(id string) bool {
	return nb.emitCell(EventExecute, id)
}

// Select emits a select event for the cell with id.
func (nb *Memory) Select(id string) bool {
	return nb.emitCell(EventSelect, id)
}

// KernelReady emits the kernel-ready event.
func (nb *Memory) KernelReady() {
	nb.bus.Emit(Event{Name: EventKernelReady, Notebook: nb})
}

// ChangeKernelSpec emits the kernel-spec-changed event.
func (nb *Memory) ChangeKernelSpec() {
	nb.bus.Emit(Event{Name: EventKernelSpecChanged, Notebook: nb})
}

func (nb *Memory) emitCell(name, id string) bool {
	cell, ok := nb.Cell(id)
	if !ok {
		return false
	}
	nb.bus.Emit(Event{Name: name, Notebook: nb, Cell: cell})
	return true
}

func (nb *Memory) indexLocked(id string) int {
	return slices.IndexFunc(nb.cells, func(c *MemoryCell) bool { return c.id == id })
}
