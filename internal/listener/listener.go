// Package listener tracks hover listeners attached to notebook regions and
// guarantees that each one is removed exactly once.
//
// Every Bind records a disposer under its region. Cleanup(region) runs all
// disposers recorded for that region since the previous cleanup, so a caller
// that cleans up before rebinding can never accumulate duplicate listeners.
package listener

import (
	"slices"
	"sync"

	"github.com/specialistvlad/nbflow/internal/dom"
)

// Binding is one handler attached to one region for one event kind.
type Binding struct {
	Region dom.Region
	Kind   dom.EventKind

	once    sync.Once
	remove  func()
	manager *Manager
}

// Cancel detaches the handler. Calling it more than once, or on a nil
// binding, does nothing.
func (b *Binding) Cancel() {
	if b == nil {
		return
	}
	b.once.Do(func() {
		b.remove()
		b.manager.forget(b)
	})
}

// Manager owns the region -> bindings association.
type Manager struct {
	mu       sync.Mutex
	bindings map[dom.Region][]*Binding
}

func NewManager() *Manager {
	return &Manager{bindings: make(map[dom.Region][]*Binding)}
}

// Bind registers fn for kind on region. A nil region is expected (not every
// cell renders both sections) and yields a nil binding.
func (m *Manager) Bind(region dom.Region, kind dom.EventKind, fn func()) *Binding {
	if region == nil {
		return nil
	}

	b := &Binding{
		Region:  region,
		Kind:    kind,
		remove:  region.AddListener(kind, fn),
		manager: m,
	}

	m.mu.Lock()
	m.bindings[region] = append(m.bindings[region], b)
	m.mu.Unlock()

	return b
}

// Cleanup cancels every binding on region. No handler bound through this
// manager remains on region when it returns.
func (m *Manager) Cleanup(region dom.Region) {
	if region == nil {
		return
	}

	m.mu.Lock()
	bound := m.bindings[region]
	delete(m.bindings, region)
	m.mu.Unlock()

	for _, b := range bound {
		b.Cancel()
	}
}

// CleanupExcept cancels bindings on every region not present in keep. It is
// used to release regions whose cells have left the notebook.
func (m *Manager) CleanupExcept(keep map[dom.Region]struct{}) int {
	m.mu.Lock()
	var stale []dom.Region
	for region := range m.bindings {
		if _, ok := keep[region]; !ok {
			stale = append(stale, region)
		}
	}
	m.mu.Unlock()

	for _, region := range stale {
		m.Cleanup(region)
	}
	return len(stale)
}

// Active reports the number of live bindings on region.
func (m *Manager) Active(region dom.Region) int {
	if region == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bindings[region])
}

// Len reports the number of live bindings across all regions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, bound := range m.bindings {
		total += len(bound)
	}
	return total
}

func (m *Manager) forget(b *Binding) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bound := m.bindings[b.Region]
	if i := slices.Index(bound, b); i >= 0 {
		bound = slices.Delete(bound, i, i+1)
	}
	if len(bound) == 0 {
		delete(m.bindings, b.Region)
		return
	}
	m.bindings[b.Region] = bound
}
