// Package testutil provides testing utilities for the offline client.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockPage defines the response for a mock origin path.
type MockPage struct {
	StatusCode  int
	Body        string
	ContentType string
}

// MockOrigin is a configurable mock origin server for testing. It can
// simulate an unreachable network by dropping connections.
type MockOrigin struct {
	server *httptest.Server
	mu     sync.RWMutex
	pages  map[string]MockPage

	offline   bool
	failFirst map[string]int

	// Tracking
	requestCount int
	pathCounts   map[string]int
}

// NewMockOrigin creates a mock origin server with no pages configured.
// Unknown paths return 404.
func NewMockOrigin() *MockOrigin {
	mock := &MockOrigin{
		pages:      make(map[string]MockPage),
		failFirst:  make(map[string]int),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.pathCounts[r.URL.Path]++
		offline := mock.offline

		failures := mock.failFirst[r.URL.Path]
		if failures > 0 {
			mock.failFirst[r.URL.Path] = failures - 1
		}

		page, exists := mock.pages[r.URL.Path]
		mock.mu.Unlock()

		if offline {
			// Drop the connection so the client observes a network error
			// rather than an HTTP status.
			hijacker, ok := w.(http.Hijacker)
			if !ok {
				panic("mock origin: hijacking not supported")
			}
			conn, _, err := hijacker.Hijack()
			if err != nil {
				panic(err)
			}
			conn.Close()
			return
		}

		if failures > 0 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}

		if !exists {
			http.NotFound(w, r)
			return
		}

		contentType := page.ContentType
		if contentType == "" {
			contentType = "text/html; charset=utf-8"
		}
		w.Header().Set("Content-Type", contentType)

		status := page.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		w.Write([]byte(page.Body))
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockOrigin) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockOrigin) Close() {
	m.server.Close()
}

// SetPage configures the response for a path.
func (m *MockOrigin) SetPage(path string, page MockPage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[path] = page
}

// SetSite configures a minimal site: every given path returns 200 with a
// body derived from its path.
func (m *MockOrigin) SetSite(paths ...string) {
	for _, path := range paths {
		m.SetPage(path, MockPage{Body: "content of " + path})
	}
}

// SetOffline toggles network failure simulation. While offline, every
// request has its connection dropped.
func (m *MockOrigin) SetOffline(offline bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline = offline
}

// FailFirst makes the next n requests for a path fail with a 503 before
// the configured page is served. Used to exercise install retries.
func (m *MockOrigin) FailFirst(path string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFirst[path] = n
}

// RequestCount returns the total number of requests received.
func (m *MockOrigin) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// RequestsFor returns the number of requests received for a path.
func (m *MockOrigin) RequestsFor(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// Reset clears all tracking counters.
func (m *MockOrigin) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.pathCounts = make(map[string]int)
}
