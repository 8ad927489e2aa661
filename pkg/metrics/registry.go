// Package metrics holds the process-wide Prometheus registry and the
// instrumentation interfaces used by the request pipeline and the
// lifecycle coordinator.
//
// Metrics are opt-in. Until InitRegistry is called IsEnabled reports false,
// constructors in pkg/metrics/prometheus return nil, and the helpers in this
// package treat a nil recorder as a no-op.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Namespace prefixes every metric name.
const Namespace = "dittoapi"

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
)

// InitRegistry creates the registry with Go runtime and process collectors.
// Calling it again returns the existing registry.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return registry
}

// GetRegistry returns the registry, or nil when metrics are disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}

// ResetRegistry discards the registry. Intended for tests.
func ResetRegistry() {
	mu.Lock()
	registry = nil
	mu.Unlock()
}
