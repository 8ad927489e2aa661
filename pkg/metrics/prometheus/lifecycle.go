package prometheus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/dittoapi/pkg/metrics"
)

type lifecycleMetrics struct {
	state     *prometheus.GaugeVec
	startup   prometheus.Gauge
	shutdowns *prometheus.CounterVec

	mu      sync.Mutex
	current string
}

// NewLifecycleMetrics returns coordinator metrics registered on the global
// registry, or nil when metrics are disabled. states are pre-seeded at 0 so
// that every state is visible before it is entered.
func NewLifecycleMetrics(states ...string) metrics.LifecycleMetrics {
	reg := metrics.GetRegistry()
	if reg == nil {
		return nil
	}
	return newLifecycleMetrics(reg, states...)
}

func newLifecycleMetrics(reg prometheus.Registerer, states ...string) *lifecycleMetrics {
	m := &lifecycleMetrics{
		state: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metrics.Namespace,
				Name:      "lifecycle_state",
				Help:      "1 for the current lifecycle state, 0 otherwise",
			},
			[]string{"state"},
		),
		startup: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: metrics.Namespace,
				Name:      "startup_duration_seconds",
				Help:      "Time from coordinator start until the listener was bound",
			},
		),
		shutdowns: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Name:      "shutdowns_total",
				Help:      "Terminations by cause",
			},
			[]string{"cause"},
		),
	}
	for _, s := range states {
		m.state.WithLabelValues(s).Set(0)
	}
	return m
}

func (m *lifecycleMetrics) SetState(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != "" {
		m.state.WithLabelValues(m.current).Set(0)
	}
	m.state.WithLabelValues(state).Set(1)
	m.current = state
}

func (m *lifecycleMetrics) ObserveStartup(duration time.Duration) {
	m.startup.Set(duration.Seconds())
}

func (m *lifecycleMetrics) RecordShutdown(cause string) {
	m.shutdowns.WithLabelValues(cause).Inc()
}
