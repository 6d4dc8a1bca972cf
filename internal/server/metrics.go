package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jonathan/scout-webhook/internal/webhook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	// Webhook events by canonical kind and outcome
	Events *prometheus.CounterVec
	// Events whose writes were rolled back
	PersistFailures *prometheus.CounterVec
	// HTTP latency by route pattern
	RequestDuration *prometheus.HistogramVec
	// Open session streams
	Streams prometheus.Gauge
}

// NewMetrics registers collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scout_webhook_events_total",
			Help: "Webhook events processed, by canonical event and outcome",
		}, []string{"event", "outcome"}),

		PersistFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scout_webhook_persist_failures_total",
			Help: "Webhook events whose database writes failed and were dead-lettered",
		}, []string{"event"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scout_webhook_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route", "code"}),

		Streams: factory.NewGauge(prometheus.GaugeOpts{
			Name: "scout_webhook_streams_active",
			Help: "Number of open session SSE streams",
		}),
	}
}

// ObserveEvent records one processed webhook.
func (m *Metrics) ObserveEvent(res webhook.Result) {
	kind := string(res.Kind)
	m.Events.WithLabelValues(kind, string(res.Outcome)).Inc()
	if res.Outcome == webhook.OutcomeFailed || res.Outcome == webhook.OutcomeRejected {
		m.PersistFailures.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) observeRequest(method, route string, code int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
