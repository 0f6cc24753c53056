package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// HealthCheck probes the API's liveness endpoint and returns the decoded
// health document. Any non-2xx response, including after exhausting retries,
// is an *APIError.
func (c *Client) HealthCheck(ctx context.Context) (map[string]any, error) {
	body, err := c.do(ctx, call{
		op:        "health_check",
		method:    http.MethodGet,
		path:      "/health",
		errPrefix: "API health check failed",
	})
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode health response: %w", err)
	}
	return doc, nil
}
