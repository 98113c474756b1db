package dom

import (
	"slices"
	"sync"
)

type listenerEntry struct {
	fn func()
}

// Node is an in-memory element. It satisfies both Element and Region, so a
// headless cell can use one Node for its root and one per hoverable section.
type Node struct {
	mu        sync.Mutex
	classes   map[string]struct{}
	listeners map[EventKind][]*listenerEntry
	detached  bool
}

// NewNode returns an empty, attached node.
func NewNode() *Node {
	return &Node{
		classes:   make(map[string]struct{}),
		listeners: make(map[EventKind][]*listenerEntry),
	}
}

func (n *Node) AddClass(names ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, name := range names {
		n.classes[name] = struct{}{}
	}
}

func (n *Node) RemoveClass(names ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, name := range names {
		delete(n.classes, name)
	}
}

func (n *Node) HasClass(name string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.classes[name]
	return ok
}

// Classes returns the current class set in sorted order.
func (n *Node) Classes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.classes))
	for name := range n.classes {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// AddListener registers fn for kind. Registering on a detached node is a
// no-op, mirroring an element that has already left the document.
func (n *Node) AddListener(kind EventKind, fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.detached {
		return func() {}
	}

	entry := &listenerEntry{fn: fn}
	n.listeners[kind] = append(n.listeners[kind], entry)

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		entries := n.listeners[kind]
		if i := slices.Index(entries, entry); i >= 0 {
			n.listeners[kind] = slices.Delete(entries, i, i+1)
		}
	}
}

// Dispatch invokes every listener registered for kind, in registration order.
// Listeners run without the node lock held, so they may add or remove
// listeners (on this node or any other).
func (n *Node) Dispatch(kind EventKind) {
	n.mu.Lock()
	entries := slices.Clone(n.listeners[kind])
	n.mu.Unlock()

	for _, entry := range entries {
		entry.fn()
	}
}

// ListenerCount reports how many listeners are registered for kind.
func (n *Node) ListenerCount(kind EventKind) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners[kind])
}

// Detach drops every listener and refuses new ones.
func (n *Node) Detach() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.detached = true
	clear(n.listeners)
}
