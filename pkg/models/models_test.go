package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllModels(t *testing.T) {
	all := AllModels()
	assert.Len(t, all, 1)
	assert.IsType(t, &Setting{}, all[0])
}

func TestSettingTableName(t *testing.T) {
	assert.Equal(t, "settings", Setting{}.TableName())
}

func TestValidateSettingKey(t *testing.T) {
	assert.NoError(t, ValidateSettingKey("theme"))
	assert.ErrorIs(t, ValidateSettingKey(""), ErrInvalidSettingKey)
	assert.ErrorIs(t, ValidateSettingKey(strings.Repeat("k", MaxSettingKeyLength+1)), ErrInvalidSettingKey)
	assert.NoError(t, ValidateSettingKey(strings.Repeat("k", MaxSettingKeyLength)))
}
