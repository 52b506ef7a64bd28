package agent

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the agent.
type Metrics struct {
	// Process metrics
	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec

	// Runtime gauges
	modulesLoaded prometheus.Gauge
	stateKeys     prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a metrics instance with all agent metrics registered
// against a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		processTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "modus_process_total",
				Help: "Total number of agent process calls by pipeline and status",
			},
			[]string{"pipeline", "status"},
		),

		processDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "modus_process_duration_seconds",
				Help:    "Agent process call latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"pipeline"},
		),

		modulesLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "modus_modules_loaded",
				Help: "Number of module instances currently cached by the loader",
			},
		),

		stateKeys: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "modus_state_keys",
				Help: "Number of top-level keys in agent state",
			},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.processTotal,
		m.processDuration,
		m.modulesLoaded,
		m.stateKeys,
	)

	return m
}

// Handler returns an HTTP handler exposing the metrics in Prometheus format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordProcess records one process call.
func (m *Metrics) RecordProcess(pipeline, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.processTotal.WithLabelValues(pipeline, status).Inc()
	m.processDuration.WithLabelValues(pipeline).Observe(duration.Seconds())
}

// SetModulesLoaded updates the loaded-modules gauge.
func (m *Metrics) SetModulesLoaded(n int) {
	if m == nil {
		return
	}
	m.modulesLoaded.Set(float64(n))
}

// SetStateKeys updates the state-size gauge.
func (m *Metrics) SetStateKeys(n int) {
	if m == nil {
		return
	}
	m.stateKeys.Set(float64(n))
}
