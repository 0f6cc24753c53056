package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthCheck_OK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("Path = %s, want /health", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok", "database": "ok"}`))
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server.URL)

	doc, err := c.HealthCheck(context.Background())
	if err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
	if doc["status"] != "ok" {
		t.Errorf(`doc["status"] = %v, want "ok"`, doc["status"])
	}
	if doc["database"] != "ok" {
		t.Errorf(`doc["database"] = %v, want "ok"`, doc["database"])
	}
}

func TestHealthCheck_ServiceUnavailable(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server.URL)

	_, err := c.HealthCheck(context.Background())
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "API health check failed") {
		t.Errorf("error = %v, want the health check prefix", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != 503 {
		t.Errorf("StatusCode = %d, want 503", apiErr.StatusCode)
	}

	// 503 is retryable, so all attempts are used.
	if requests != 3 {
		t.Errorf("Expected 3 attempts, got %d", requests)
	}
}
