// Package config loads nbflow settings from an HCL file.
//
// Attribute expressions are evaluated with an `env` object holding the
// process environment, so a file can write
//
//	engine {
//	  url = "ws://${env.NBFLOW_HOST}:8888/ipyflow"
//	}
//
// Every attribute is optional; anything left out keeps the value from
// Default.
package config
