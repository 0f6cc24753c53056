// Command byte-monitor is a liveness sidecar for the Byte API service. It
// periodically probes the API health endpoint through the resilient client
// and exposes the result on /ready, together with Prometheus metrics on
// /metrics.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/byte-bot/byte-api-client/pkg/client"
	"github.com/byte-bot/byte-api-client/pkg/logging"
)

func main() {
	// Optional .env file for local development.
	_ = godotenv.Load()

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "false") == "true",
		Output: os.Stderr,
	})

	apiURL := getEnv("BYTE_API_URL", "http://localhost:8000")
	port := getEnv("PORT", "8081")

	interval, err := time.ParseDuration(getEnv("HEALTH_INTERVAL", "30s"))
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid HEALTH_INTERVAL")
	}

	apiClient, err := client.New(client.DefaultConfig(apiURL))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create API client")
	}
	defer apiClient.Close()

	mon := newMonitor(apiClient, logging.NewLogger("byte-monitor"))
	go mon.run(context.Background(), interval)

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/ready", mon.readyHandler)
	http.Handle("/metrics", promhttp.Handler())

	addr := ":" + port
	logger.Info().
		Str("addr", addr).
		Str("api_url", apiURL).
		Dur("interval", interval).
		Msg("Starting Byte API monitor")

	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// monitor tracks the last observed API health state.
type monitor struct {
	client *client.Client
	logger zerolog.Logger

	mu          sync.RWMutex
	healthy     bool
	lastChecked time.Time
	lastErr     error
}

func newMonitor(apiClient *client.Client, logger zerolog.Logger) *monitor {
	return &monitor{
		client: apiClient,
		logger: logger,
	}
}

// run probes the API immediately and then on every tick until ctx is done.
func (m *monitor) run(ctx context.Context, interval time.Duration) {
	m.check(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *monitor) check(ctx context.Context) {
	// Budget for the full retry sequence, not a single attempt.
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	doc, err := m.client.HealthCheck(ctx)

	m.mu.Lock()
	m.healthy = err == nil
	m.lastChecked = time.Now()
	m.lastErr = err
	m.mu.Unlock()

	if err != nil {
		m.logger.Error().Err(err).Msg("API health check failed")
		return
	}

	m.logger.Debug().Interface("health", doc).Msg("API healthy")
}

// setState overrides the observed state (for testing).
func (m *monitor) setState(healthy bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthy = healthy
	m.lastErr = err
	m.lastChecked = time.Now()
}

func (m *monitor) readyHandler(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	healthy := m.healthy
	lastErr := m.lastErr
	m.mu.RUnlock()

	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		if lastErr != nil {
			fmt.Fprintf(w, "API unavailable: %v", lastErr)
			return
		}
		fmt.Fprint(w, "API unavailable")
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
