package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten_UsesConfigKeys(t *testing.T) {
	entries := Flatten(GetDefaultConfig())

	keys := make(map[string]any, len(entries))
	for _, e := range entries {
		keys[e.Key] = e.Value
	}

	assert.Equal(t, 3000, keys["server.port"])
	assert.Equal(t, "/api/v1", keys["server.apiPrefix"])
	assert.Equal(t, "http://localhost:3000", keys["security.cors.origin"])
	assert.Equal(t, true, keys["security.cors.credentials"])
	assert.Contains(t, keys, "database.sqlite.path")
	assert.Contains(t, keys, "telemetry.profiling.profileTypes")
	assert.Equal(t, "server.port", entries[0].Key, "field order is preserved")
}

func TestProvider_Get(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.Port = 8080
	cfg.Server.APIPrefix = "/api/v2"
	p := NewProvider(cfg)

	v, ok := p.Get("server.port")
	require.True(t, ok)
	assert.Equal(t, 8080, v)

	assert.Equal(t, "/api/v2", p.GetString("server.apiPrefix"))
	assert.Equal(t, "/api/v2", p.GetString("SERVER.APIPREFIX"))
	assert.Equal(t, "http://localhost:3000", p.GetString("security.cors.origin"))

	cred, ok := p.Get("security.cors.credentials")
	require.True(t, ok)
	assert.Equal(t, true, cred)

	_, ok = p.Get("server.nope")
	assert.False(t, ok)
	assert.Empty(t, p.GetString("server.port"), "non-string values yield empty string")
	assert.Same(t, cfg, p.Config())

	assert.Equal(t, 8080, p.GetInt("server.port"))
	assert.Zero(t, p.GetInt("server.apiPrefix"))
	assert.True(t, p.GetBool("security.cors.credentials"))
	assert.False(t, p.GetBool("server.nope"))
}

func TestProvider_Mode(t *testing.T) {
	cfg := GetDefaultConfig()
	assert.True(t, NewProvider(cfg).IsDevelopment())

	cfg.Server.Environment = "production"
	p := NewProvider(cfg)
	assert.False(t, p.IsDevelopment())
	assert.Equal(t, ModeProduction, p.Mode())
	assert.Equal(t, "production", p.Environment())
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"development", ModeDevelopment, false},
		{" Production ", ModeProduction, false},
		{"test", ModeTest, false},
		{"staging", ModeProduction, true},
		{"", ModeProduction, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantErr, err != nil, tt.in)
	}

	assert.True(t, ModeDevelopment.IsDevelopment())
	assert.False(t, ModeTest.IsDevelopment())
	assert.Equal(t, "test", ModeTest.String())
}

func TestCORSConfig_Origins(t *testing.T) {
	c := CORSConfig{Origin: " https://a.example.com, ,https://b.example.com "}
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, c.Origins())
	assert.Nil(t, CORSConfig{}.Origins())
}
