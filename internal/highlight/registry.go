package highlight

import (
	"github.com/specialistvlad/nbflow/internal/dom"
	"github.com/specialistvlad/nbflow/internal/notebook"
)

// Registry is a snapshot of the live cells, keyed by id. It is rebuilt for
// every classification and never outlives one cycle.
type Registry struct {
	order []notebook.Cell
	byID  map[string]notebook.Cell
}

// NewRegistry snapshots cells, keeping their display order. When ids repeat,
// the first cell wins.
func NewRegistry(cells []notebook.Cell) *Registry {
	r := &Registry{
		order: make([]notebook.Cell, 0, len(cells)),
		byID:  make(map[string]notebook.Cell, len(cells)),
	}
	for _, c := range cells {
		if _, dup := r.byID[c.ID()]; dup {
			continue
		}
		r.order = append(r.order, c)
		r.byID[c.ID()] = c
	}
	return r
}

// Snapshot builds a registry from the notebook's current cells.
func Snapshot(nb notebook.Notebook) *Registry {
	return NewRegistry(nb.Cells())
}

func (r *Registry) Lookup(id string) (notebook.Cell, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// Cells returns the snapshot in display order.
func (r *Registry) Cells() []notebook.Cell {
	return r.order
}

func (r *Registry) Len() int {
	return len(r.order)
}

// regions returns the set of non-nil input and output regions.
func (r *Registry) regions() map[dom.Region]struct{} {
	set := make(map[dom.Region]struct{}, 2*len(r.order))
	for _, c := range r.order {
		if in := c.Input(); in != nil {
			set[in] = struct{}{}
		}
		if out := c.Output(); out != nil {
			set[out] = struct{}{}
		}
	}
	return set
}
