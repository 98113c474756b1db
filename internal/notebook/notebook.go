// Package notebook defines the host capabilities the highlight engine and the
// session controller consume: an ordered list of live cells and a
// publish/subscribe channel for lifecycle events.
//
// Memory is an in-memory host that implements these capabilities for the CLI
// and for tests.
package notebook

import "github.com/specialistvlad/nbflow/internal/dom"

// Kind is the cell type as reported by the host.
type Kind string

const (
	KindCode     Kind = "code"
	KindMarkdown Kind = "markdown"
	KindRaw      Kind = "raw"
)

// Cell is a live handle on a host cell. Handles are only valid for the
// duration of one classification cycle; callers look cells up by ID again
// instead of keeping handles around.
type Cell interface {
	ID() string
	Kind() Kind
	Source() string
	// Element is the cell root that carries visual tags.
	Element() dom.Element
	// Input and Output return nil when the host has not rendered the section.
	Input() dom.Region
	Output() dom.Region
	// Notebook is the notebook instance the cell belongs to.
	Notebook() Notebook
}

// Notebook is the host notebook.
type Notebook interface {
	// Cells returns the live cells in display order.
	Cells() []Cell
	Events() Events
}

// ContentByID returns the source of every code cell keyed by cell id.
func ContentByID(nb Notebook) map[string]string {
	content := make(map[string]string)
	for _, cell := range nb.Cells() {
		if cell.Kind() != KindCode {
			continue
		}
		content[cell.ID()] = cell.Source()
	}
	return content
}

// IndexOf returns the zero-based position of the cell with id in the live
// cell sequence, scanning it afresh on every call.
func IndexOf(nb Notebook, id string) (int, bool) {
	for i, cell := range nb.Cells() {
		if cell.ID() == id {
			return i, true
		}
	}
	return 0, false
}
