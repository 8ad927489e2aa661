package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// recordSpans installs an in-memory tracer and restores the previous
// globals when the test ends.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	prevGlobal := otel.GetTracerProvider()
	mu.Lock()
	prevTracer, prevEnabled := tracer, enabled
	tracer, enabled = provider.Tracer(instrumentationName), true
	mu.Unlock()
	otel.SetTracerProvider(provider)

	t.Cleanup(func() {
		otel.SetTracerProvider(prevGlobal)
		mu.Lock()
		tracer, enabled = prevTracer, prevEnabled
		mu.Unlock()
		_ = provider.Shutdown(context.Background())
	})
	return rec
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "dittoapi", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())
	assert.Nil(t, TracerProvider())
}

func TestNoOpHelpersDoNotPanic(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		spanCtx, span := StartSpan(ctx, "noop")
		AddEvent(spanCtx, "event")
		RecordError(spanCtx, errors.New("boom"))
		RecordError(spanCtx, nil)
		span.End()
	})
	assert.Empty(t, TraceID(ctx))
	assert.Empty(t, SpanID(ctx))
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestStartLifecycleSpan(t *testing.T) {
	rec := recordSpans(t)

	ctx, span := StartLifecycleSpan(context.Background(), "authenticate", Mode("production"))
	assert.NotEmpty(t, TraceID(ctx))
	assert.NotEmpty(t, SpanID(ctx))
	RecordError(ctx, errors.New("connection refused"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "lifecycle.authenticate", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.String(AttrLifecycleStep, "authenticate"))
	assert.Contains(t, ended[0].Attributes(), attribute.String(AttrLifecycleMode, "production"))
}

func TestStartStoreSpan(t *testing.T) {
	rec := recordSpans(t)

	_, span := StartStoreSpan(context.Background(), "sync", "sqlite")
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "store.sync", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String(AttrDBSystem, "sqlite"))
}

func TestHTTPMiddleware_NamesSpanByRoute(t *testing.T) {
	rec := recordSpans(t)

	r := chi.NewRouter()
	r.Use(HTTPMiddleware("dittoapi"))
	r.Get("/api/v1/settings/{key}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/settings/theme", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "GET /api/v1/settings/{key}", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String(AttrHTTPRoute, "/api/v1/settings/{key}"))
}

func TestParseProfileType(t *testing.T) {
	pt, err := ParseProfileType(" CPU ")
	require.NoError(t, err)
	assert.Equal(t, pyroscope.ProfileCPU, pt)

	pt, err = ParseProfileType("inuse_space")
	require.NoError(t, err)
	assert.Equal(t, pyroscope.ProfileInuseSpace, pt)

	_, err = ParseProfileType("heap")
	assert.Error(t, err)
}

func TestInitProfilingDisabled(t *testing.T) {
	stop, err := InitProfiling(ProfilingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, stop())
}
