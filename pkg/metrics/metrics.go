// Package metrics provides the centralized Prometheus registry reference for
// the Byte API client. The collectors themselves are defined in pkg/client
// next to the code that drives them; this package documents what is exported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All collectors are registered automatically via promauto in pkg/client.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - byteapi_requests_total{method, status} (Counter): Attempts by operation
//     and HTTP status ("network_error" when no response was received)
//   - byteapi_request_duration_seconds{method} (Histogram): Attempt duration
//   - byteapi_errors_total{class} (Counter): Failures by class
//     (client, server, network)
//
// Retry Metrics (pkg/client):
//   - byteapi_retries_total{method} (Counter): Counted failed attempts by
//     operation; mirrors the in-process retry statistics
//   - byteapi_retry_backoff_seconds{method} (Histogram): Backoff delays
//   - byteapi_retry_exhausted_total{method} (Counter): Invocations that
//     failed all attempts
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(byteapi_errors_total[5m])
//
//   # Retry Rate per Operation
//   rate(byteapi_retries_total[5m])
//
//   # P95 Attempt Latency
//   histogram_quantile(0.95, rate(byteapi_request_duration_seconds_bucket[5m]))
//
//   # Exhaustion Ratio
//   rate(byteapi_retry_exhausted_total[5m]) / rate(byteapi_requests_total[5m])
