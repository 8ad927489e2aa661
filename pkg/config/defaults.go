package config

import (
	"strings"
	"time"

	"github.com/marmos91/dittoapi/internal/bytesize"
	"github.com/marmos91/dittoapi/pkg/store"
)

// Defaults for keys consumed by the lifecycle and request pipeline.
const (
	DefaultPort       = 3000
	DefaultAPIPrefix  = "/api/v1"
	DefaultCORSOrigin = "http://localhost:3000"
)

// ApplyDefaults replaces zero values with defaults; explicit values are kept.
// Values whose zero is meaningful (true booleans such as CORS credentials,
// rate limiting and OTLP insecure, and the trace sample rate) are seeded by
// GetDefaultConfig and the loader instead.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applySecurityDefaults(&cfg.Security)
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	cfg.Database.ApplyDefaults()

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = DefaultAPIPrefix
	}
	if len(cfg.APIPrefix) > 1 {
		cfg.APIPrefix = strings.TrimRight(cfg.APIPrefix, "/")
	}
	if cfg.Environment == "" {
		cfg.Environment = string(ModeDevelopment)
	}
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))

	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if cfg.BodyLimit == 0 {
		cfg.BodyLimit = 10 * bytesize.MiB
	}
}

func applySecurityDefaults(cfg *SecurityConfig) {
	if cfg.CORS.Origin == "" {
		cfg.CORS.Origin = DefaultCORSOrigin
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 100
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 200
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
	if cfg.Level == "WARNING" {
		cfg.Level = "WARN"
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{"cpu", "alloc_space", "inuse_space"}
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// GetDefaultConfig returns a Config with every default applied.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{Port: DefaultPort},
		Security: SecurityConfig{
			CORS:      CORSConfig{Credentials: true},
			RateLimit: RateLimitConfig{Enabled: true},
		},
		Telemetry: TelemetryConfig{Insecure: true, SampleRate: 1.0},
		Database:  store.Config{Type: store.DatabaseTypeSQLite},
	}
	ApplyDefaults(cfg)
	return cfg
}
