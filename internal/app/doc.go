// Package app wires configuration, logging, metrics and the transport into
// the inspect and watch flows, decoupled from the CLI that invokes them.
package app
