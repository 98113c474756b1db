package dom

// EventKind names a hover event delivered by a Region.
type EventKind string

const (
	MouseOver EventKind = "mouseover"
	MouseOut  EventKind = "mouseout"
)

// Element is the part of a cell that carries visual tags.
type Element interface {
	AddClass(names ...string)
	RemoveClass(names ...string)
	HasClass(name string) bool
}

// Region is a part of a cell that can be hovered.
type Region interface {
	// AddListener registers fn for kind and returns a function that removes
	// exactly this registration. The returned function must be safe to call
	// more than once.
	AddListener(kind EventKind, fn func()) (remove func())
}
