// Package models defines the persisted data types owned by the store.
package models

// MaxSettingKeyLength matches the size of the settings.key column.
const MaxSettingKeyLength = 255

// AllModels returns every model the store reconciles during schema sync.
func AllModels() []any {
	return []any{
		&Setting{},
	}
}

// ValidateSettingKey reports ErrInvalidSettingKey for keys that cannot be stored.
func ValidateSettingKey(key string) error {
	if key == "" || len(key) > MaxSettingKeyLength {
		return ErrInvalidSettingKey
	}
	return nil
}
