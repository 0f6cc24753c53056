// Package testutil provides testing utilities for the Byte API client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockResponse defines the behavior of a mock API endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RequestRecord captures one request seen by the mock server.
type RequestRecord struct {
	Method string
	Path   string
}

// MockAPI is a configurable mock Byte API server for testing. Handlers are
// keyed by HTTP method and path, so the guild item endpoints can behave
// differently for GET, PATCH, and DELETE.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
	requests []RequestRecord
}

// NewMockAPI creates a new mock API server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requests = append(mock.requests, RequestRecord{Method: r.Method, Path: r.URL.Path})
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[handlerKey(r.Method, r.URL.Path)]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

func handlerKey(method, path string) string {
	return method + " " + path
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears recorded requests and registered handlers.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.handlers = make(map[string]http.HandlerFunc)
}

// SetHandler sets a custom handler for a method and path.
func (m *MockAPI) SetHandler(method, path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[handlerKey(method, path)] = handler
}

// SetResponse configures a fixed response for a method and path.
func (m *MockAPI) SetResponse(method, path string, resp MockResponse) {
	m.SetHandler(method, path, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, resp)
	})
}

// SetResponseSequence configures a scripted series of responses for a method
// and path; the n-th request receives the n-th response, and requests beyond
// the script repeat the last entry.
func (m *MockAPI) SetResponseSequence(method, path string, resps []MockResponse) {
	var mu sync.Mutex
	served := 0
	m.SetHandler(method, path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		idx := served
		if idx >= len(resps) {
			idx = len(resps) - 1
		}
		served++
		mu.Unlock()

		writeResponse(w, resps[idx])
	})
}

// Requests returns a copy of all recorded requests.
func (m *MockAPI) Requests() []RequestRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RequestRecord(nil), m.requests...)
}

// RequestCount returns the total number of requests seen by the server.
func (m *MockAPI) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// CountFor returns the number of requests seen for a method and path.
func (m *MockAPI) CountFor(method, path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, rec := range m.requests {
		if rec.Method == method && rec.Path == path {
			count++
		}
	}
	return count
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}

	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// defaultHandler mimics the API's catch-all 404.
func (m *MockAPI) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"detail": "Not Found"}`))
}

// GuildJSON renders a guild record document the way the API does.
func GuildJSON(id uuid.UUID, guildID int64, guildName, prefix string) string {
	now := time.Now().UTC().Format(time.RFC3339)
	return fmt.Sprintf(`{
		"id": %q,
		"guild_id": %d,
		"guild_name": %q,
		"prefix": %q,
		"help_channel_id": null,
		"showcase_channel_id": null,
		"sync_label": null,
		"issue_linking": false,
		"comment_linking": false,
		"pep_linking": false,
		"created_at": %q,
		"updated_at": %q
	}`, id, guildID, guildName, prefix, now, now)
}

// NewGuildResponse creates a 200 OK response carrying a guild record.
func NewGuildResponse(guildID int64, guildName, prefix string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       GuildJSON(uuid.New(), guildID, guildName, prefix),
	}
}

// NewCreatedGuildResponse creates a 201 Created response carrying a guild
// record.
func NewCreatedGuildResponse(guildID int64, guildName, prefix string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusCreated,
		Body:       GuildJSON(uuid.New(), guildID, guildName, prefix),
	}
}

// NewNotFoundResponse creates a 404 response in the API's error format.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"detail": "Not Found"}`,
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"detail": "Internal Server Error"}`,
	}
}

// NewHealthResponse creates the API's healthy liveness document.
func NewHealthResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"status": "ok", "database": "ok"}`,
	}
}
