// Package prometheus provides Prometheus-backed implementations of the
// recorders declared in pkg/metrics.
package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/dittoapi/pkg/metrics"
)

type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewHTTPMetrics returns request metrics registered on the global registry,
// or nil when metrics are disabled.
func NewHTTPMetrics() metrics.HTTPMetrics {
	reg := metrics.GetRegistry()
	if reg == nil {
		return nil
	}
	return newHTTPMetrics(reg)
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	return &httpMetrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests by method, route pattern and status code",
			},
			[]string{"method", "route", "status"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metrics.Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by method and route pattern",
				Buckets: []float64{
					0.001, // 1ms - health checks
					0.005,
					0.01,
					0.05,
					0.1,
					0.5,
					1,
					5, // slow store round trips
				},
			},
			[]string{"method", "route"},
		),
		inFlight: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: metrics.Namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Requests currently being served",
			},
		),
	}
}

func (m *httpMetrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *httpMetrics) RequestStarted() {
	m.inFlight.Inc()
}

func (m *httpMetrics) RequestFinished() {
	m.inFlight.Dec()
}
