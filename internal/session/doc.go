// Package session drives one dependency-highlighting session per kernel.
//
// A Controller owns the channel to the analysis engine for a single notebook.
// It moves through disconnected, establishing, established and torn-down.
// Host events (execute, select) and inbound messages are serialized behind
// one lock so each handler runs to completion before the next starts.
//
// Requests and responses carry no correlation ids: the controller assumes the
// engine answers classification requests one at a time and in order, and
// simply applies whatever classification arrives last.
//
// Extension is the entry point a host wires up once: it listens for
// kernel-ready and kernel-spec-changed and creates or tears down controllers
// accordingly.
package session
