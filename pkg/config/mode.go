package config

import (
	"fmt"
	"strings"
)

// Mode is the deployment mode the service runs in.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
	ModeTest        Mode = "test"
)

// ParseMode parses an environment name. Unknown names map to production,
// the mode with the fewest side effects, and return an error.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDevelopment:
		return ModeDevelopment, nil
	case ModeProduction:
		return ModeProduction, nil
	case ModeTest:
		return ModeTest, nil
	default:
		return ModeProduction, fmt.Errorf("unknown environment %q", s)
	}
}

// IsDevelopment reports whether schema sync and verbose behaviour apply.
func (m Mode) IsDevelopment() bool {
	return m == ModeDevelopment
}

// String returns the mode name.
func (m Mode) String() string {
	return string(m)
}
