//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/marmos91/dittoapi/pkg/models"
)

// startPostgres runs a disposable PostgreSQL container and returns a store
// config pointing at it.
func startPostgres(t *testing.T) Config {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("dittoapi"),
		tcpostgres.WithUsername("dittoapi"),
		tcpostgres.WithPassword("dittoapi"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return Config{
		Type: DatabaseTypePostgres,
		Postgres: PostgresConfig{
			Host:     host,
			Port:     port.Int(),
			Database: "dittoapi",
			User:     "dittoapi",
			Password: "dittoapi",
		},
	}
}

func TestPostgres_LifecycleAndSettings(t *testing.T) {
	cfg := startPostgres(t)
	ctx := context.Background()

	s, err := Open(cfg, models.AllModels()...)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Authenticate(ctx))
	require.NoError(t, s.Sync(ctx, SyncOptions{Alter: true}))

	_, err = s.SetSetting(ctx, "theme", "dark")
	require.NoError(t, err)
	_, err = s.SetSetting(ctx, "theme", "light")
	require.NoError(t, err)

	got, err := s.GetSetting(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", got.Value)
}

func TestPostgres_Migrate(t *testing.T) {
	cfg := startPostgres(t)
	ctx := context.Background()

	status, err := Migrate(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, status.Applied)
	assert.EqualValues(t, 1, status.Version)
	assert.False(t, status.Dirty)

	status, err = Migrate(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, status.Applied)

	s, err := Open(cfg, models.AllModels()...)
	require.NoError(t, err)
	defer s.Close()
	assert.True(t, s.DB().Migrator().HasTable(&models.Setting{}))
}

func TestPostgres_AuthenticateWrongPassword(t *testing.T) {
	cfg := startPostgres(t)
	cfg.Postgres.Password = "wrong"

	s, err := Open(cfg)
	require.NoError(t, err)
	defer s.Close()

	assert.Error(t, s.Authenticate(context.Background()))
}
