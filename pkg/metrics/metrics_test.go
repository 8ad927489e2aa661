package metrics

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lifecycle(t *testing.T) {
	ResetRegistry()
	t.Cleanup(ResetRegistry)

	assert.False(t, IsEnabled())
	assert.Nil(t, GetRegistry())

	reg := InitRegistry()
	require.NotNil(t, reg)
	assert.True(t, IsEnabled())
	assert.Same(t, reg, InitRegistry(), "InitRegistry is idempotent")
}

type countingHTTP struct{ observed, started, finished int }

func (c *countingHTTP) ObserveRequest(string, string, int, time.Duration) { c.observed++ }
func (c *countingHTTP) RequestStarted()                                   { c.started++ }
func (c *countingHTTP) RequestFinished()                                  { c.finished++ }

func TestHelpers_NilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		ObserveRequest(nil, "GET", "/health", 200, time.Millisecond)
		RequestStarted(nil)
		RequestFinished(nil)
		SetState(nil, "Listening")
		ObserveStartup(nil, time.Second)
		RecordShutdown(nil, "signal")
	})

	c := &countingHTTP{}
	ObserveRequest(c, "GET", "/health", 200, time.Millisecond)
	RequestStarted(c)
	RequestFinished(c)
	assert.Equal(t, 1, c.observed)
	assert.Equal(t, 1, c.started)
	assert.Equal(t, 1, c.finished)
}

func TestServer_ServesMetrics(t *testing.T) {
	ResetRegistry()
	t.Cleanup(ResetRegistry)
	reg := InitRegistry()

	srv := NewServer(0, reg)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	assert.Error(t, srv.Start(), "second Start must fail")

	resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(srv.Port()) + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")

	require.NoError(t, srv.Stop(context.Background()))
	require.NoError(t, srv.Stop(context.Background()), "Stop is safe to repeat")
}

func TestServer_RequiresRegistry(t *testing.T) {
	assert.Error(t, NewServer(0, nil).Start())
}
