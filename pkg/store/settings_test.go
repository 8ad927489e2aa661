package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittoapi/pkg/models"
)

func TestSettings_CRUD(t *testing.T) {
	s := newSyncedStore(t)
	ctx := context.Background()

	list, err := s.ListSettings(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	created, err := s.SetSetting(ctx, "theme", "dark")
	require.NoError(t, err)
	assert.Equal(t, "theme", created.Key)
	assert.False(t, created.UpdatedAt.IsZero())

	got, err := s.GetSetting(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", got.Value)

	_, err = s.SetSetting(ctx, "theme", "light")
	require.NoError(t, err)
	got, err = s.GetSetting(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", got.Value)

	_, err = s.SetSetting(ctx, "locale", "en")
	require.NoError(t, err)
	list, err = s.ListSettings(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "locale", list[0].Key)
	assert.Equal(t, "theme", list[1].Key)

	require.NoError(t, s.DeleteSetting(ctx, "theme"))
	_, err = s.GetSetting(ctx, "theme")
	assert.ErrorIs(t, err, models.ErrSettingNotFound)
}

func TestSettings_NotFound(t *testing.T) {
	s := newSyncedStore(t)
	ctx := context.Background()

	_, err := s.GetSetting(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrSettingNotFound)
	assert.ErrorIs(t, s.DeleteSetting(ctx, "missing"), models.ErrSettingNotFound)
}

func TestSettings_InvalidKey(t *testing.T) {
	s := newSyncedStore(t)
	ctx := context.Background()

	_, err := s.SetSetting(ctx, "", "v")
	assert.ErrorIs(t, err, models.ErrInvalidSettingKey)
	_, err = s.GetSetting(ctx, strings.Repeat("x", 300))
	assert.ErrorIs(t, err, models.ErrInvalidSettingKey)
}
