package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/specialistvlad/nbflow/internal/protocol"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Transport names.
const (
	TransportWebSocket = "websocket"
	TransportSocketIO  = "socketio"
)

var (
	transports = []string{TransportWebSocket, TransportSocketIO}
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Config is the validated runtime configuration.
type Config struct {
	Engine          Engine
	Log             Log
	HealthcheckPort int
}

// Engine describes how to reach the analysis engine.
type Engine struct {
	Transport          string
	URL                string
	Namespace          string
	Event              string
	CommTarget         string
	DialTimeout        time.Duration
	InsecureSkipVerify bool
}

type Log struct {
	Level  string
	Format string
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Engine: Engine{
			Transport:   TransportWebSocket,
			URL:         "ws://localhost:8888/ipyflow",
			Namespace:   "/",
			Event:       "comm_msg",
			CommTarget:  protocol.DefaultCommTarget,
			DialTimeout: 15 * time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate reports the first problem found, wrapped in ErrInvalid.
func (c *Config) Validate() error {
	if !slices.Contains(transports, c.Engine.Transport) {
		return fmt.Errorf("%w: engine.transport must be one of %v, got %q", ErrInvalid, transports, c.Engine.Transport)
	}
	if c.Engine.URL == "" {
		return fmt.Errorf("%w: engine.url is required", ErrInvalid)
	}
	u, err := url.Parse(c.Engine.URL)
	if err != nil {
		return fmt.Errorf("%w: engine.url: %v", ErrInvalid, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: engine.url must be absolute, got %q", ErrInvalid, c.Engine.URL)
	}
	if c.Engine.DialTimeout <= 0 {
		return fmt.Errorf("%w: engine.dial_timeout must be positive", ErrInvalid)
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		return fmt.Errorf("%w: log.level must be one of %v, got %q", ErrInvalid, logLevels, c.Log.Level)
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		return fmt.Errorf("%w: log.format must be one of %v, got %q", ErrInvalid, logFormats, c.Log.Format)
	}
	if c.HealthcheckPort < 0 || c.HealthcheckPort > 65535 {
		return fmt.Errorf("%w: healthcheck_port out of range: %d", ErrInvalid, c.HealthcheckPort)
	}
	return nil
}
