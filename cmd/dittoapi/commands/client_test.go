package commands

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittoapi/pkg/api"
	"github.com/marmos91/dittoapi/pkg/models"
	"github.com/marmos91/dittoapi/pkg/store"
)

func newAPIServer(t *testing.T, cfg api.Config) *httptest.Server {
	t.Helper()
	st, err := store.Open(store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: filepath.Join(t.TempDir(), "server.db")},
	}, models.AllModels()...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	require.NoError(t, st.Authenticate(ctx))
	require.NoError(t, st.Sync(ctx, store.SyncOptions{Alter: true}))

	h, err := api.NewRouter(cfg, api.Deps{Store: st, State: func() string { return "Listening" }})
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestStatus(t *testing.T) {
	isolate(t)
	srv := newAPIServer(t, api.Config{Version: "1.0.0", Environment: "production"})

	out, err := execute(t, "status", "--url", srv.URL, "--output", "json")
	require.NoError(t, err)

	var report StatusReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, srv.URL, report.URL)
	assert.True(t, report.Running)
	assert.True(t, report.Ready)
	assert.Equal(t, "Listening", report.State)
	assert.Equal(t, "1.0.0", report.Version)
	assert.Equal(t, "production", report.Environment)
}

func TestStatus_Table(t *testing.T) {
	isolate(t)
	srv := newAPIServer(t, api.Config{})

	out, err := execute(t, "status", "--url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Listening")
	assert.Contains(t, out, srv.URL)
}

func TestStatus_Unreachable(t *testing.T) {
	isolate(t)
	_, err := execute(t, "status", "--url", "http://127.0.0.1:1")
	assert.ErrorContains(t, err, "server not reachable")
}

func TestSettingsCommands(t *testing.T) {
	isolate(t)
	srv := newAPIServer(t, api.Config{JWTSecret: testSecret})

	_, err := execute(t, "settings", "set", "theme", "dark", "--url", srv.URL)
	assert.ErrorContains(t, err, "Authorization header required")

	t.Setenv("DITTOAPI_SECURITY_JWT_SECRET", testSecret)
	token, err := execute(t, "token", "--subject", "cli")
	require.NoError(t, err)
	t.Setenv(TokenEnvVar, token[:len(token)-1])

	out, err := execute(t, "settings", "set", "theme", "dark", "--url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "theme")
	assert.Contains(t, out, "dark")

	out, err = execute(t, "settings", "get", "theme", "--url", srv.URL, "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"value": "dark"`)

	out, err = execute(t, "settings", "list", "--url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "theme")

	out, err = execute(t, "settings", "delete", "theme", "--url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted theme")

	_, err = execute(t, "settings", "get", "theme", "--url", srv.URL)
	assert.ErrorContains(t, err, "Setting not found")
}
