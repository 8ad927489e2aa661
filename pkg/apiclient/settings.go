package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/marmos91/dittoapi/pkg/api/handlers"
)

// Setting is a stored key/value pair.
type Setting = handlers.SettingResponse

func settingPath(key string) string {
	return "/settings/" + url.PathEscape(key)
}

// ListSettings returns all settings ordered by key.
func (c *Client) ListSettings(ctx context.Context) ([]Setting, error) {
	var settings []Setting
	if err := c.doEnvelope(ctx, http.MethodGet, c.apiPath("/settings"), nil, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// GetSetting returns the setting stored under key.
func (c *Client) GetSetting(ctx context.Context, key string) (*Setting, error) {
	var setting Setting
	if err := c.doEnvelope(ctx, http.MethodGet, c.apiPath(settingPath(key)), nil, &setting); err != nil {
		return nil, err
	}
	return &setting, nil
}

// SetSetting creates or replaces a setting. Requires a token when the
// server has a JWT secret.
func (c *Client) SetSetting(ctx context.Context, key, value string) (*Setting, error) {
	body := handlers.SetSettingRequest{Value: &value}
	var setting Setting
	if err := c.doEnvelope(ctx, http.MethodPut, c.apiPath(settingPath(key)), body, &setting); err != nil {
		return nil, err
	}
	return &setting, nil
}

// DeleteSetting removes a setting.
func (c *Client) DeleteSetting(ctx context.Context, key string) error {
	_, err := c.do(ctx, http.MethodDelete, c.apiPath(settingPath(key)), nil)
	return err
}
