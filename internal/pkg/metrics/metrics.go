// internal/pkg/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the kiosk collectors
type Metrics struct {
	registry *prometheus.Registry

	Commands       *prometheus.CounterVec
	Checkouts      *prometheus.CounterVec
	StepFailures   *prometheus.CounterVec
	SessionsActive prometheus.Gauge
	Reclaimed      prometheus.Counter
}

// New creates the collectors on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kiosk",
			Name:      "commands_total",
			Help:      "Total number of dispatched websocket commands.",
		}, []string{"type"}),
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kiosk",
			Name:      "checkouts_total",
			Help:      "Checkout attempts by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		StepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kiosk",
			Name:      "order_step_failures_total",
			Help:      "Order pipeline step failures.",
		}, []string{"step"}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kiosk",
			Name:      "sessions_active",
			Help:      "Sessions currently held in the registry.",
		}),
		Reclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kiosk",
			Name:      "sessions_reclaimed_total",
			Help:      "Idle sessions reclaimed by the sweeper.",
		}),
	}

	reg.MustRegister(
		m.Commands,
		m.Checkouts,
		m.StepFailures,
		m.SessionsActive,
		m.Reclaimed,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
