package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(GetDefaultConfig()); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"invalid log level", func(c *Config) { c.Logging.Level = "INVALID" }, "logging.level: failed 'oneof'"},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port: failed 'lte'"},
		{"negative port", func(c *Config) { c.Server.Port = -1 }, "server.port: failed 'gte'"},
		{"prefix without slash", func(c *Config) { c.Server.APIPrefix = "api" }, "server.apiPrefix: failed 'startswith'"},
		{"unknown environment", func(c *Config) { c.Server.Environment = "staging" }, "server.environment"},
		{"short jwt secret", func(c *Config) { c.Security.JWT.Secret = "short" }, "security.jwt.secret: failed 'min'"},
		{"empty cors origin", func(c *Config) { c.Security.CORS.Origin = "" }, "security.cors.origin"},
		{"sample rate", func(c *Config) { c.Telemetry.SampleRate = 1.5 }, "telemetry.sampleRate"},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }, "shutdownTimeout"},
		{"telemetry without endpoint", func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.Endpoint = ""
		}, "telemetry.endpoint"},
		{"bad profile type", func(c *Config) {
			c.Telemetry.Profiling.Enabled = true
			c.Telemetry.Profiling.ProfileTypes = []string{"heap"}
		}, "profileTypes"},
		{"metrics port clash", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Port = c.Server.Port
		}, "metrics.port"},
		{"wildcard origin with credentials", func(c *Config) { c.Security.CORS.Origin = "*" }, "cannot be \"*\""},
		{"database type", func(c *Config) { c.Database.Type = "mysql" }, "database.type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatalf("Expected validation error containing %q", tt.wantSub)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantSub, err)
			}
		})
	}
}

func TestValidate_WildcardOriginWithoutCredentials(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Security.CORS.Origin = "*"
	cfg.Security.CORS.Credentials = false

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected wildcard origin to be valid without credentials: %v", err)
	}
}

func TestValidate_LogLevelCaseInsensitive(t *testing.T) {
	for _, level := range []string{"info", "INFO", "debug", "WARN", "error"} {
		cfg := GetDefaultConfig()
		cfg.Logging.Level = level
		if err := Validate(cfg); err != nil {
			t.Errorf("Validation failed for level %q: %v", level, err)
		}
	}
}
