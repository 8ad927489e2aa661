package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/marmos91/dittoapi/pkg/metrics"
)

func TestConstructors_NilWhenDisabled(t *testing.T) {
	metrics.ResetRegistry()
	t.Cleanup(metrics.ResetRegistry)

	assert.Nil(t, NewHTTPMetrics())
	assert.Nil(t, NewLifecycleMetrics("Listening"))
}

func TestConstructors_EnabledRegistry(t *testing.T) {
	metrics.ResetRegistry()
	t.Cleanup(metrics.ResetRegistry)
	metrics.InitRegistry()

	assert.NotNil(t, NewHTTPMetrics())
	assert.NotNil(t, NewLifecycleMetrics())
}

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newHTTPMetrics(reg)

	m.RequestStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight))
	m.ObserveRequest("GET", "/health", 200, 3*time.Millisecond)
	m.ObserveRequest("GET", "/health", 200, 2*time.Millisecond)
	m.ObserveRequest("GET", "unmatched", 404, time.Millisecond)
	m.RequestFinished()

	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestLifecycleMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newLifecycleMetrics(reg, "Initializing", "Verifying", "Listening")

	assert.Equal(t, 3, testutil.CollectAndCount(m.state))

	m.SetState("Verifying")
	m.SetState("Listening")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.state.WithLabelValues("Verifying")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.state.WithLabelValues("Listening")))

	m.ObserveStartup(1500 * time.Millisecond)
	assert.Equal(t, 1.5, testutil.ToFloat64(m.startup))

	m.RecordShutdown("signal")
	m.RecordShutdown("signal")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.shutdowns.WithLabelValues("signal")))
}
