// Package dom defines the two element capabilities the highlight engine needs
// from a rendered notebook: an Element that carries visual tags and a Region
// that delivers hover events. Node is the headless implementation used by the
// CLI host and by tests.
package dom
