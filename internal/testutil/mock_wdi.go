// Package testutil provides testing utilities for the WDI harvester.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockAPI is a configurable mock World Bank API server.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	RequestCount int
	pathCounts   map[string]int
}

// NewMockAPI creates a mock server. Paths without a registered handler
// return 404.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers:   make(map[string]http.HandlerFunc),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.pathCounts[r.URL.Path]++
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if !exists {
			http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
			return
		}
		handler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetJSON configures a static 200 response for a path.
func (m *MockAPI) SetJSON(path, body string) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		fmt.Fprint(w, body)
	})
}

// FailThenSucceed configures a path to fail with the given status for the
// first failures requests, then serve the body with 200.
func (m *MockAPI) FailThenSucceed(path string, failures, status int, body string) {
	var mu sync.Mutex
	calls := 0
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n <= failures {
			http.Error(w, `{"message":"unavailable"}`, status)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		fmt.Fprint(w, body)
	})
}

// RequestsFor returns how many requests hit a path.
func (m *MockAPI) RequestsFor(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// GetRequestCount returns the total number of requests served.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// Envelope builds the two-element [metadata, records] payload the World Bank
// API returns. records must be a JSON array literal.
func Envelope(page, pages, perPage, total int, records string) string {
	return fmt.Sprintf(`[{"page":%d,"pages":%d,"per_page":%d,"total":%d},%s]`,
		page, pages, perPage, total, records)
}

// PagedHandler serves each element of pages as one result page, keyed by the
// "page" query parameter. Each element must be a JSON array literal.
func PagedHandler(pages []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		if page > len(pages) {
			http.Error(w, `{"message":"page out of range"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		fmt.Fprint(w, Envelope(page, len(pages), 20000, 0, pages[page-1]))
	}
}

// WaitRecorder is a pacing.Waiter that records requested delays without
// sleeping, so paced code runs instantly under test.
type WaitRecorder struct {
	mu     sync.Mutex
	Delays []time.Duration
}

// Wait records the requested delay and returns immediately.
func (w *WaitRecorder) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	w.Delays = append(w.Delays, d)
	w.mu.Unlock()
	return nil
}

// Count returns how many waits were requested.
func (w *WaitRecorder) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.Delays)
}
