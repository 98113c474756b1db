// Package metrics records session activity as Prometheus metrics. A nil
// *Metrics is valid and records nothing, so components can take one
// unconditionally.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nbflow"

// Metrics holds the collectors of one process. Each instance owns its own
// registry so tests and multiple apps do not collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	messagesSent           *prometheus.CounterVec
	messagesReceived       *prometheus.CounterVec
	sendErrors             prometheus.Counter
	classificationsApplied prometheus.Counter
	activeBindings         prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages sent to the analysis engine, by type.",
		}, []string{"kind"}),
		messagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Messages received from the analysis engine, by type.",
		}, []string{"kind"}),
		sendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_errors_total",
			Help:      "Messages that could not be written to the channel.",
		}),
		classificationsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_applied_total",
			Help:      "Classifications applied to the notebook.",
		}),
		activeBindings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_bindings",
			Help:      "Hover listeners currently attached.",
		}),
	}
	m.registry.MustRegister(
		m.messagesSent,
		m.messagesReceived,
		m.sendErrors,
		m.classificationsApplied,
		m.activeBindings,
	)
	return m
}

func (m *Metrics) MessageSent(kind string) {
	if m == nil {
		return
	}
	m.messagesSent.WithLabelValues(kind).Inc()
}

func (m *Metrics) MessageReceived(kind string) {
	if m == nil {
		return
	}
	m.messagesReceived.WithLabelValues(kind).Inc()
}

func (m *Metrics) SendFailed() {
	if m == nil {
		return
	}
	m.sendErrors.Inc()
}

// ClassificationApplied counts an applied classification and records the
// number of bindings it left attached.
func (m *Metrics) ClassificationApplied(bindings int) {
	if m == nil {
		return
	}
	m.classificationsApplied.Inc()
	m.activeBindings.Set(float64(bindings))
}

// BindingsCleared records that all bindings were released.
func (m *Metrics) BindingsCleared() {
	if m == nil {
		return
	}
	m.activeBindings.Set(0)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
