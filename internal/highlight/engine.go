// Package highlight turns a dependency classification into visual tags on
// notebook cells and installs the hover listeners that preview how cells
// affect each other.
package highlight

import (
	"log/slog"

	"github.com/specialistvlad/nbflow/internal/dom"
	"github.com/specialistvlad/nbflow/internal/listener"
	"github.com/specialistvlad/nbflow/internal/notebook"
)

// Engine applies classifications. It is not safe for concurrent use; the
// session controller serializes calls.
type Engine struct {
	binder *listener.Manager
	logger *slog.Logger
}

// NewEngine creates an engine that binds listeners through binder.
func NewEngine(binder *listener.Manager, logger *slog.Logger) *Engine {
	if binder == nil {
		binder = listener.NewManager()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{binder: binder, logger: logger}
}

// Binder returns the listener manager the engine binds through.
func (e *Engine) Binder() *listener.Manager {
	return e.binder
}

// Reset removes every tag from every cell in reg and tears down all hover
// listeners, including those left on regions of cells that are no longer in
// the notebook.
func (e *Engine) Reset(reg *Registry) {
	for _, cell := range reg.Cells() {
		cell.Element().RemoveClass(AllTags...)
		e.binder.Cleanup(cell.Input())
		e.binder.Cleanup(cell.Output())
	}
	if swept := e.binder.CleanupExcept(reg.regions()); swept > 0 {
		e.logger.Debug("Released listeners of departed cells.", "regions", swept)
	}
}

// Apply resets reg and then applies cls to it. Applying the same
// classification twice leaves the same tags and listener count as applying
// it once.
func (e *Engine) Apply(cls Classification, reg *Registry) {
	e.Reset(reg)

	waiting := toSet(cls.Waiting)
	ready := toSet(cls.Ready)
	selfBound := make(map[string]struct{})
	bindSelf := func(cell notebook.Cell) {
		if _, done := selfBound[cell.ID()]; done {
			return
		}
		selfBound[cell.ID()] = struct{}{}
		e.bindSelf(cell)
	}

	for _, cell := range reg.Cells() {
		id := cell.ID()
		el := cell.Element()

		if _, ok := waiting[id]; ok {
			el.AddClass(TagWaiting, TagReady)
			el.RemoveClass(TagReadyMakingInput)
		} else if _, ok := ready[id]; ok {
			el.AddClass(TagReadyMakingInput, TagReady)
			bindSelf(cell)
		}

		if waiters, ok := cls.WaiterLinks[id]; ok {
			targets := e.resolve(reg, id, waiters)
			e.bindHover(cell.Input(), targets, TagLinkedReadyMaking)
			e.bindHover(cell.Output(), targets, TagLinkedReadyMaking)
		}

		if linked, ok := cls.ReadyMakerLinks[id]; ok {
			el.AddClass(TagReadyMaking, TagReady)
			bindSelf(cell)
			targets := e.resolve(reg, id, linked)
			e.bindHover(cell.Input(), targets, TagLinkedWaiting, TagLinkedReady)
		}
	}

	e.logger.Debug("Classification applied.",
		"cells", reg.Len(),
		"waiting", len(cls.Waiting),
		"ready", len(cls.Ready),
		"bindings", e.binder.Len(),
	)
}

// bindSelf previews a ready cell on itself: hovering its input marks it
// linked-ready, hovering its output marks it linked-ready-making.
func (e *Engine) bindSelf(cell notebook.Cell) {
	self := []dom.Element{cell.Element()}
	e.bindHover(cell.Input(), self, TagLinkedReady)
	e.bindHover(cell.Output(), self, TagLinkedReadyMaking)
}

// bindHover adds tags to targets on mouseover and removes them on mouseout.
func (e *Engine) bindHover(region dom.Region, targets []dom.Element, tags ...Tag) {
	if region == nil || len(targets) == 0 {
		return
	}
	e.binder.Bind(region, dom.MouseOver, func() {
		for _, t := range targets {
			t.AddClass(tags...)
		}
	})
	e.binder.Bind(region, dom.MouseOut, func() {
		for _, t := range targets {
			t.RemoveClass(tags...)
		}
	})
}

// resolve maps linked ids to elements, skipping ids that are not in the
// snapshot. Stale ids are expected while cells are being removed.
func (e *Engine) resolve(reg *Registry, from string, ids []string) []dom.Element {
	out := make([]dom.Element, 0, len(ids))
	for _, id := range ids {
		cell, ok := reg.Lookup(id)
		if !ok {
			e.logger.Debug("Skipping link to unknown cell.", "from", from, "to", id)
			continue
		}
		out = append(out, cell.Element())
	}
	return out
}
