// Package client provides the HTTP client used by the Byte bot to manage
// guild configuration through the Byte API service, with automatic retry,
// error classification, and per-method retry statistics.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for API client requests.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "byteapi_requests_total",
		Help: "Total Byte API requests by method and status",
	}, []string{"method", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "byteapi_request_duration_seconds",
		Help:    "Byte API request duration in seconds by method",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"method"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "byteapi_errors_total",
		Help: "Total Byte API errors by class",
	}, []string{"class"})
)

// DefaultTimeout is the per-attempt request timeout applied when
// Config.Timeout is zero. It bounds each individual HTTP attempt, not the
// whole retry sequence.
const DefaultTimeout = 10 * time.Second

// Client is the Byte API client. All methods are safe for concurrent use;
// retry statistics are shared across all calls on the same instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
	stats      *RetryStats
	logger     zerolog.Logger

	closeOnce sync.Once
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the root URL of the Byte API service,
	// e.g. "http://localhost:8000". A trailing slash is stripped.
	BaseURL string

	// Timeout applies to each individual HTTP attempt (default 10s).
	Timeout time.Duration

	// Retry controls the retry behavior for all operations.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration for the given base URL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: DefaultTimeout,
		Retry:   DefaultRetryConfig(),
	}
}

// New creates a new Byte API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	logger := log.With().Str("component", "byteapi-client").Logger()

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		retry:  cfg.Retry,
		stats:  newRetryStats(),
		logger: logger,
	}, nil
}

// BaseURL returns the normalized base URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Stats returns a point-in-time copy of the retry statistics accumulated
// since the client was constructed.
func (c *Client) Stats() RetryStatsSnapshot {
	return c.stats.Snapshot()
}

// Close releases the underlying transport resources. It is safe to call
// multiple times; only the first call has any effect.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.httpClient.CloseIdleConnections()
	})
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// call describes one API operation for the retry executor: the HTTP request
// to build on each attempt plus the operation's identity for statistics,
// metrics, and error messages.
type call struct {
	// op is the operation name used in retry statistics and metrics,
	// e.g. "create_guild".
	op string

	// method and path form the HTTP request; path is relative to the base URL.
	method string
	path   string

	// payload is JSON-encoded once per invocation and sent as the request
	// body when non-nil. Each attempt gets a fresh body reader so retries
	// never reuse a drained body.
	payload any

	// errPrefix is the operation-specific message carried by APIError,
	// e.g. "Failed to create guild".
	errPrefix string

	// notFoundOK marks 404 as an absent-record sentinel instead of an error.
	// Only get_guild sets this.
	notFoundOK bool
}

// sendOnce performs a single HTTP attempt for the given call and returns the
// response status and fully-read body. A non-nil error means no usable
// response was received (connect failure, timeout, interrupted read).
func (c *Client) sendOnce(ctx context.Context, cl call, payload []byte) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	apiRequestDuration.WithLabelValues(cl.op).Observe(time.Since(start).Seconds())

	if err != nil {
		apiRequestsTotal.WithLabelValues(cl.op, "network_error").Inc()
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		apiRequestsTotal.WithLabelValues(cl.op, "network_error").Inc()
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}

	apiRequestsTotal.WithLabelValues(cl.op, strconv.Itoa(resp.StatusCode)).Inc()
	return resp.StatusCode, body, nil
}
