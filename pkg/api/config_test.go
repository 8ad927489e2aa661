package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/marmos91/dittoapi/internal/bytesize"
	"github.com/marmos91/dittoapi/pkg/config"
)

func TestConfigFrom(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Server.Port = 8080
	cfg.Server.APIPrefix = "/api/v2"
	cfg.Server.Environment = "production"
	cfg.Server.BodyLimit = 1 * bytesize.MiB
	cfg.Server.ReadTimeout = 5 * time.Second
	cfg.Security.CORS.Origin = "https://a.example.com, https://b.example.com"
	cfg.Security.CORS.Credentials = false
	cfg.Security.JWT.Secret = "s3cr3t"

	got := ConfigFrom(config.NewProvider(cfg), "1.2.3")

	assert.Equal(t, 8080, got.Port)
	assert.Equal(t, "/api/v2", got.APIPrefix)
	assert.Equal(t, "production", got.Environment)
	assert.Equal(t, "1.2.3", got.Version)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, got.CORSOrigins)
	assert.False(t, got.CORSCredentials)
	assert.EqualValues(t, bytesize.MiB, got.BodyLimit)
	assert.Equal(t, 5*time.Second, got.ReadTimeout)
	assert.True(t, got.RateLimitEnabled)
	assert.Equal(t, "s3cr3t", got.JWTSecret)
}

func TestConfigFrom_Defaults(t *testing.T) {
	got := ConfigFrom(config.NewProvider(config.GetDefaultConfig()), "dev")

	assert.Equal(t, config.DefaultPort, got.Port)
	assert.Equal(t, config.DefaultAPIPrefix, got.APIPrefix)
	assert.Equal(t, []string{config.DefaultCORSOrigin}, got.CORSOrigins)
	assert.True(t, got.CORSCredentials)
}
