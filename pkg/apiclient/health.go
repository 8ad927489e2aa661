package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/marmos91/dittoapi/pkg/api/handlers"
)

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*handlers.HealthResponse, error) {
	raw, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}
	var health handlers.HealthResponse
	if err := json.Unmarshal(raw, &health); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &health, nil
}

// Ready calls GET /health/ready and returns nil when the store is reachable.
func (c *Client) Ready(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health/ready", nil)
	return err
}

// Info calls GET {prefix}/.
func (c *Client) Info(ctx context.Context) (*handlers.ServiceInfo, error) {
	var info handlers.ServiceInfo
	if err := c.doEnvelope(ctx, http.MethodGet, c.apiPath("/"), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Status calls GET {prefix}/status.
func (c *Client) Status(ctx context.Context) (*handlers.StatusInfo, error) {
	var status handlers.StatusInfo
	if err := c.doEnvelope(ctx, http.MethodGet, c.apiPath("/status"), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
