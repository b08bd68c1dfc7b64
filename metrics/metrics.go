// Package metrics exposes Prometheus collectors for forwarded exchanges.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default histogram buckets for exchange duration.
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}

// Metrics holds all Prometheus metric collectors for the proxy.
type Metrics struct {
	Registry *prometheus.Registry

	ExchangesInFlight prometheus.Gauge
	ExchangesTotal    *prometheus.CounterVec
	ExchangeDuration  *prometheus.HistogramVec
	BytesOut          *prometheus.CounterVec
}

// New creates a Metrics instance with a dedicated registry and all
// collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: registry,

		ExchangesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "courier_exchanges_in_flight",
			Help: "Number of exchanges currently being forwarded.",
		}),

		ExchangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_exchanges_total",
			Help: "Total forwarded exchanges by mode and status code.",
		}, []string{"mode", "status_code"}),

		ExchangeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "courier_exchange_duration_seconds",
			Help:    "Exchange duration in seconds, from first inbound byte to teardown.",
			Buckets: defaultBuckets,
		}, []string{"mode"}),

		BytesOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_bytes_out_total",
			Help: "Total bytes sent to clients by mode.",
		}, []string{"mode"}),
	}

	registry.MustRegister(
		m.ExchangesInFlight,
		m.ExchangesTotal,
		m.ExchangeDuration,
		m.BytesOut,
	)

	return m
}

// ObserveExchange records the outcome of a single forwarded exchange.
func (m *Metrics) ObserveExchange(
	isWebSocket bool,
	statusCode int,
	seconds float64,
	bytesOut int64,
) {
	mode := "web"
	if isWebSocket {
		mode = "ws"
	}

	m.ExchangesTotal.WithLabelValues(mode, strconv.Itoa(statusCode)).Inc()
	m.ExchangeDuration.WithLabelValues(mode).Observe(seconds)
	m.BytesOut.WithLabelValues(mode).Add(float64(bytesOut))
}

// Handler returns an http.Handler that serves the registry in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
