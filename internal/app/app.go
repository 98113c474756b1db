package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/nbflow/internal/channel"
	"github.com/specialistvlad/nbflow/internal/channel/sioc"
	"github.com/specialistvlad/nbflow/internal/channel/wschannel"
	"github.com/specialistvlad/nbflow/internal/config"
	"github.com/specialistvlad/nbflow/internal/ctxlog"
	"github.com/specialistvlad/nbflow/internal/metrics"
	"github.com/specialistvlad/nbflow/internal/notebook"
	"github.com/specialistvlad/nbflow/internal/session"
)

// Option customizes an App.
type Option func(*App)

// WithDialer replaces the transport chosen from the configuration.
func WithDialer(d channel.Dialer) Option {
	return func(a *App) { a.dialer = d }
}

// App encapsulates the application's dependencies and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	ctx     context.Context
	config  *config.Config
	metrics *metrics.Metrics
	dialer  channel.Dialer

	httpServer *http.Server
}

// NewApp builds an App. Reports go to outW and logs to logW.
func NewApp(outW, logW io.Writer, cfg *config.Config, opts ...Option) *App {
	logger := newLogger(cfg.Log.Level, cfg.Log.Format, logW)
	a := &App{
		outW:    outW,
		logger:  logger,
		ctx:     ctxlog.WithLogger(context.Background(), logger),
		config:  cfg,
		metrics: metrics.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.dialer == nil {
		a.dialer = newDialer(cfg.Engine)
	}
	logger.Debug("App configured", "transport", cfg.Engine.Transport, "url", cfg.Engine.URL)
	return a
}

// Metrics returns the app's metric recorder.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

func newDialer(e config.Engine) channel.Dialer {
	switch e.Transport {
	case config.TransportSocketIO:
		return &sioc.Dialer{
			URL:                e.URL,
			Namespace:          e.Namespace,
			Event:              e.Event,
			CommTarget:         e.CommTarget,
			InsecureSkipVerify: e.InsecureSkipVerify,
			Timeout:            e.DialTimeout,
		}
	default:
		return &wschannel.Dialer{
			URL:                e.URL,
			CommTarget:         e.CommTarget,
			InsecureSkipVerify: e.InsecureSkipVerify,
			HandshakeTimeout:   e.DialTimeout,
		}
	}
}

// newExtension creates the session entry point for nb, reporting applied
// classifications on the returned channel. A pending notification is not
// duplicated: readers render the live state, not the one notified.
func (a *App) newExtension(nb notebook.Notebook) (*session.Extension, <-chan session.Applied) {
	applied := make(chan session.Applied, 1)
	ext := session.NewExtension(nb, a.dialer,
		session.WithLogger(a.logger.With("component", "session")),
		session.WithMetrics(a.metrics),
		session.WithObserver(func(ap session.Applied) {
			select {
			case applied <- ap:
			default:
			}
		}),
	)
	return ext, applied
}
