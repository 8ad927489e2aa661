package config

import (
	"reflect"
	"strings"
)

// Entry is one flattened configuration key and its value.
type Entry struct {
	Key   string
	Value any
}

// Flatten walks cfg and returns its leaves as dotted keys using the
// mapstructure tag names (e.g. "security.cors.origin"), in field order.
func Flatten(cfg *Config) []Entry {
	var out []Entry
	flatten("", reflect.ValueOf(cfg).Elem(), &out)
	return out
}

func flatten(prefix string, v reflect.Value, out *[]Entry) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := strings.Split(field.Tag.Get("mapstructure"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		fv := v.Field(i)
		if fv.Kind() == reflect.Struct {
			flatten(key, fv, out)
			continue
		}
		*out = append(*out, Entry{Key: key, Value: fv.Interface()})
	}
}

// Provider answers key lookups against a resolved Config.
type Provider struct {
	cfg    *Config
	values map[string]any
	mode   Mode
}

// NewProvider indexes cfg for lookups by dotted key.
func NewProvider(cfg *Config) *Provider {
	p := &Provider{
		cfg:    cfg,
		values: make(map[string]any),
		mode:   cfg.Mode(),
	}
	for _, e := range Flatten(cfg) {
		p.values[strings.ToLower(e.Key)] = e.Value
	}
	return p
}

// Get returns the value for a dotted key such as "server.apiPrefix".
// Lookups are case-insensitive.
func (p *Provider) Get(key string) (any, bool) {
	v, ok := p.values[strings.ToLower(key)]
	return v, ok
}

// GetString returns the string value for key, or "" when absent or not a string.
func (p *Provider) GetString(key string) string {
	v, _ := p.Get(key)
	s, _ := v.(string)
	return s
}

// GetInt returns the int value for key, or 0 when absent or not an int.
func (p *Provider) GetInt(key string) int {
	v, _ := p.Get(key)
	i, _ := v.(int)
	return i
}

// GetBool returns the bool value for key, or false when absent or not a bool.
func (p *Provider) GetBool(key string) bool {
	v, _ := p.Get(key)
	b, _ := v.(bool)
	return b
}

// IsDevelopment reports whether the environment is development.
func (p *Provider) IsDevelopment() bool {
	return p.mode.IsDevelopment()
}

// Environment returns the environment name.
func (p *Provider) Environment() string {
	return p.cfg.Server.Environment
}

// Mode returns the deployment mode.
func (p *Provider) Mode() Mode {
	return p.mode
}

// Config returns the underlying configuration.
func (p *Provider) Config() *Config {
	return p.cfg
}
