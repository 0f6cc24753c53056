package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for retry operations.
var (
	apiRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "byteapi_retries_total",
		Help: "Total number of failed attempts that were counted for retry by method",
	}, []string{"method"})

	apiRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "byteapi_retry_backoff_seconds",
		Help:    "Backoff duration before retry attempts by method",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30},
	}, []string{"method"})

	apiRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "byteapi_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by method",
	}, []string{"method"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per operation
	// invocation, including the initial request.
	MaxAttempts int

	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration

	// BackoffMultiplier is the factor applied to the delay after each
	// failed attempt.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration: up to 3
// attempts with exponential backoff starting at 1s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// do executes one API call through the retry loop and returns the final
// response body.
//
// Counting rules: every failed attempt of a retryable fault increments the
// total and per-method retry counters, including the final attempt of an
// exhausted sequence. A terminal fault increments the failed-request counter
// and ends the invocation after a single attempt. A 404 on a call with
// notFoundOK set returns errNotFound without touching any counter. Caller
// cancellation aborts the current attempt or backoff sleep, is returned as
// the context's error, and is never counted.
func (c *Client) do(ctx context.Context, cl call) ([]byte, error) {
	var payload []byte
	if cl.payload != nil {
		data, err := json.Marshal(cl.payload)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		payload = data
	}

	backoff := c.retry.InitialBackoff
	var lastStatus int
	var lastErr error

	for attempt := 1; ; attempt++ {
		status, body, err := c.sendOnce(ctx, cl, payload)

		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			// No response received: transport fault, retryable.
			apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			c.trackRetry(cl.op)
			c.logger.Warn().
				Str("method", cl.op).
				Int("attempt", attempt).
				Err(err).
				Msg("Request failed with transport error")
			lastStatus = 0
			lastErr = err

		case status == http.StatusNotFound && cl.notFoundOK:
			return nil, errNotFound

		case status >= 200 && status < 300:
			if attempt > 1 {
				c.logger.Info().
					Str("method", cl.op).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return body, nil

		default:
			class := classifyStatus(status)
			apiErrorsTotal.WithLabelValues(string(class)).Inc()

			if !shouldRetry(class) {
				c.stats.trackFailure()
				c.logger.Warn().
					Str("method", cl.op).
					Int("status_code", status).
					Str("error_class", string(class)).
					Msg("Request rejected by API")
				return nil, &APIError{Message: cl.errPrefix, StatusCode: status}
			}

			c.trackRetry(cl.op)
			c.logger.Warn().
				Str("method", cl.op).
				Int("status_code", status).
				Int("attempt", attempt).
				Str("error_class", string(class)).
				Msg("Request failed with server error")
			lastStatus = status
			lastErr = nil
		}

		if attempt >= c.retry.MaxAttempts {
			break
		}

		// Jitter (±20%) smooths out synchronized retries without changing
		// the observable attempt counts.
		delay := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		apiRetryBackoffSeconds.WithLabelValues(cl.op).Observe(delay.Seconds())

		c.logger.Debug().
			Str("method", cl.op).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("Retrying request after backoff")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		backoff = time.Duration(float64(backoff) * c.retry.BackoffMultiplier)
		if backoff > c.retry.MaxBackoff {
			backoff = c.retry.MaxBackoff
		}
	}

	apiRetryExhaustedTotal.WithLabelValues(cl.op).Inc()
	c.logger.Warn().
		Str("method", cl.op).
		Int("max_attempts", c.retry.MaxAttempts).
		Msg("Retry attempts exhausted")

	var wrapped error = ErrRetryExhausted
	if lastErr != nil {
		wrapped = fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
	}
	return nil, &APIError{Message: cl.errPrefix, StatusCode: lastStatus, Err: wrapped}
}

// trackRetry records one counted failed attempt in both the instance
// statistics and the Prometheus counters.
func (c *Client) trackRetry(method string) {
	c.stats.trackRetry(method)
	apiRetriesTotal.WithLabelValues(method).Inc()
}
