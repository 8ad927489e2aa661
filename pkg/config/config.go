// Package config resolves runtime settings from defaults, a YAML or TOML
// file, DITTOAPI_* environment variables and CLI flag overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/dittoapi/internal/bytesize"
	"github.com/marmos91/dittoapi/pkg/store"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// DITTOAPI_SERVER_PORT=8080 or DITTOAPI_SECURITY_CORS_ORIGIN=https://app.example.com.
const EnvPrefix = "DITTOAPI"

// Config is the complete service configuration.
//
// Sources, lowest to highest precedence: built-in defaults, configuration
// file, environment variables, CLI flags.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Security  SecurityConfig  `mapstructure:"security" yaml:"security"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Database  store.Config    `mapstructure:"database" yaml:"database"`

	// ShutdownTimeout bounds the graceful HTTP drain on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout" validate:"gt=0" yaml:"shutdownTimeout"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Port is the TCP port to listen on. 0 picks an ephemeral port.
	Port int `mapstructure:"port" validate:"gte=0,lte=65535" yaml:"port"`

	// APIPrefix is the mount path of the versioned API.
	APIPrefix string `mapstructure:"apiPrefix" validate:"required,startswith=/" yaml:"apiPrefix"`

	// Environment selects the runtime Mode: development, production or test.
	Environment string `mapstructure:"environment" validate:"required,oneof=development production test" yaml:"environment"`

	ReadTimeout  time.Duration `mapstructure:"readTimeout" validate:"gte=0" yaml:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout" validate:"gte=0" yaml:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout" validate:"gte=0" yaml:"idleTimeout"`

	// BodyLimit caps request bodies, e.g. "10MiB".
	BodyLimit bytesize.ByteSize `mapstructure:"bodyLimit" yaml:"bodyLimit"`
}

// SecurityConfig groups cross-origin, rate limiting and token settings.
type SecurityConfig struct {
	CORS      CORSConfig      `mapstructure:"cors" yaml:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rateLimit" yaml:"rateLimit"`
	JWT       JWTConfig       `mapstructure:"jwt" yaml:"jwt"`
}

// CORSConfig configures cross-origin resource sharing.
type CORSConfig struct {
	// Origin is a single origin, a comma-separated list, or "*".
	Origin string `mapstructure:"origin" validate:"required" yaml:"origin"`

	// Credentials allows cookies and Authorization headers cross-origin.
	Credentials bool `mapstructure:"credentials" yaml:"credentials"`
}

// Origins splits Origin into its trimmed, non-empty parts.
func (c CORSConfig) Origins() []string {
	return SplitOrigins(c.Origin)
}

// SplitOrigins parses a comma-separated origin list, dropping blanks.
func SplitOrigins(list string) []string {
	var out []string
	for _, o := range strings.Split(list, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled" yaml:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requestsPerSecond" validate:"gte=0" yaml:"requestsPerSecond"`
	Burst             int     `mapstructure:"burst" validate:"gte=0" yaml:"burst"`
}

// JWTConfig configures bearer token verification for mutating routes.
type JWTConfig struct {
	// Secret is the HS256 signing key. Empty disables authentication.
	Secret string `mapstructure:"secret" validate:"omitempty,min=32" yaml:"secret,omitempty"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	// Level: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format: text or json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector (host:port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sampleRate" validate:"gte=0,lte=1" yaml:"sampleRate"`

	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profileTypes" yaml:"profileTypes"`
}

// MetricsConfig configures the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"gte=0,lte=65535" yaml:"port"`
}

// Mode returns the parsed deployment mode.
func (c *Config) Mode() Mode {
	m, _ := ParseMode(c.Server.Environment)
	return m
}

// Load reads configuration from configPath (or the default location when
// empty), layers DITTOAPI_* environment variables on top, applies defaults
// and validates the result. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// MustLoad is Load with a user-facing hint when an explicitly requested
// file does not exist.
func MustLoad(configPath string) (*Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Create one with:\n"+
				"  dittoapi config init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML with owner-only permissions.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper seeds every known key with its default so that environment
// variables resolve even when no file is present.
func setupViper(v *viper.Viper, configPath string) {
	for _, e := range Flatten(GetDefaultConfig()) {
		v.SetDefault(e.Key, e.Value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// readConfigFile reports whether a config file was read.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks handles ByteSize, durations and comma-separated lists.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.Parse(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/dittoapi, ~/.config/dittoapi, or ".".
func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dittoapi")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "dittoapi")
}

// GetConfigDir returns the default configuration directory.
func GetConfigDir() string {
	return getConfigDir()
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a file exists at the default path.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
