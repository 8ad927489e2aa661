package api

import (
	"time"

	"github.com/marmos91/dittoapi/pkg/config"
)

// Config configures the HTTP server and its middleware stack.
type Config struct {
	// Port is the TCP port to bind. 0 picks an ephemeral port.
	Port int

	// APIPrefix is the mount path of the versioned routes. Default: /api/v1
	APIPrefix string

	Environment string
	Version     string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// BodyLimit caps request bodies in bytes; <= 0 disables the cap.
	BodyLimit int64

	CORSOrigins     []string
	CORSCredentials bool

	RateLimitEnabled  bool
	RequestsPerSecond float64
	Burst             int

	// JWTSecret enables bearer authentication on mutating routes.
	JWTSecret string
}

// ConfigFrom derives the server configuration from the application config.
// The listener and CORS keys are looked up through p.
func ConfigFrom(p *config.Provider, version string) Config {
	cfg := p.Config()
	return Config{
		Port:              p.GetInt("server.port"),
		APIPrefix:         p.GetString("server.apiPrefix"),
		Environment:       p.Environment(),
		Version:           version,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		BodyLimit:         cfg.Server.BodyLimit.Int64(),
		CORSOrigins:       config.SplitOrigins(p.GetString("security.cors.origin")),
		CORSCredentials:   p.GetBool("security.cors.credentials"),
		RateLimitEnabled:  cfg.Security.RateLimit.Enabled,
		RequestsPerSecond: cfg.Security.RateLimit.RequestsPerSecond,
		Burst:             cfg.Security.RateLimit.Burst,
		JWTSecret:         cfg.Security.JWT.Secret,
	}
}

// applyDefaults fills in zero values with sensible defaults.
func (c *Config) applyDefaults() {
	if c.APIPrefix == "" {
		c.APIPrefix = config.DefaultAPIPrefix
	}
	if c.Environment == "" {
		c.Environment = string(config.ModeProduction)
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	mode, _ := config.ParseMode(c.Environment)
	return mode.IsDevelopment()
}
