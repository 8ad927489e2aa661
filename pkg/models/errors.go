package models

import "errors"

var (
	// ErrSettingNotFound is returned when a setting key does not exist.
	ErrSettingNotFound = errors.New("setting not found")

	// ErrInvalidSettingKey is returned for empty or oversized keys.
	ErrInvalidSettingKey = errors.New("invalid setting key")
)
