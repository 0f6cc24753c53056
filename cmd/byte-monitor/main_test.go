package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/byte-bot/byte-api-client/internal/testutil"
	"github.com/byte-bot/byte-api-client/pkg/client"
	"github.com/byte-bot/byte-api-client/pkg/logging"
)

func newTestMonitor(t *testing.T, baseURL string) *monitor {
	t.Helper()

	apiClient, err := client.New(client.DefaultConfig(baseURL))
	if err != nil {
		t.Fatalf("Failed to create API client: %v", err)
	}
	t.Cleanup(func() { apiClient.Close() })

	return newMonitor(apiClient, logging.NewLogger("byte-monitor-test"))
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestReadyHandler(t *testing.T) {
	mon := newTestMonitor(t, "http://localhost:8000")

	t.Run("ready", func(t *testing.T) {
		mon.setState(true, nil)

		req := httptest.NewRequest("GET", "/ready", nil)
		w := httptest.NewRecorder()
		mon.readyHandler(w, req)

		resp := w.Result()
		body, _ := io.ReadAll(resp.Body)

		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected status 200, got %d", resp.StatusCode)
		}
		if string(body) != "OK" {
			t.Errorf("Expected body 'OK', got %s", string(body))
		}
	})

	t.Run("not_ready", func(t *testing.T) {
		mon.setState(false, errors.New("connection refused"))

		req := httptest.NewRequest("GET", "/ready", nil)
		w := httptest.NewRecorder()
		mon.readyHandler(w, req)

		resp := w.Result()
		body, _ := io.ReadAll(resp.Body)

		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", resp.StatusCode)
		}
		if !strings.Contains(string(body), "connection refused") {
			t.Errorf("Expected body to mention the cause, got %s", string(body))
		}
	})
}

func TestMonitorCheck(t *testing.T) {
	mock := testutil.NewMockAPI()
	t.Cleanup(mock.Close)

	mock.SetResponse("GET", "/health", testutil.NewHealthResponse())

	mon := newTestMonitor(t, mock.URL())
	mon.check(context.Background())

	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()
	mon.readyHandler(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("Expected ready after a healthy check, got %d", w.Result().StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	mock := testutil.NewMockAPI()
	t.Cleanup(mock.Close)
	mock.SetResponse("GET", "/health", testutil.NewHealthResponse())

	// Drive one request through the client so the labeled collectors have
	// at least one series to export.
	mon := newTestMonitor(t, mock.URL())
	mon.check(context.Background())

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(bodyStr, "# HELP") || !strings.Contains(bodyStr, "# TYPE") {
		t.Error("Expected Prometheus format metrics output")
	}
	if !strings.Contains(bodyStr, "byteapi_requests_total") {
		t.Error("Expected metrics output to contain byteapi_requests_total")
	}
}
