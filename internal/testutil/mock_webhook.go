// Package testutil provides testing utilities for the CRM client.
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/Sternrassler/minicrm-client/pkg/config"
	"github.com/tidwall/gjson"
)

// MockResponse defines the behavior of one mock webhook response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RecordedRequest is a request received by the mock.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
	Action string
}

// MockWebhook is a configurable mock of the automation backend.
//
// Responses are registered per path, optionally narrowed to the "action" of
// the JSON request body. A sequence registered for a route is served in
// order and its last response repeats.
type MockWebhook struct {
	server *httptest.Server

	mu        sync.Mutex
	sequences map[route][]MockResponse
	served    map[route]int
	requests  []RecordedRequest
}

type route struct {
	path   string
	action string
}

// NewMockWebhook starts a mock backend.
func NewMockWebhook() *MockWebhook {
	m := &MockWebhook{
		sequences: make(map[route][]MockResponse),
		served:    make(map[route]int),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// URL returns the mock server URL.
func (m *MockWebhook) URL() string {
	return m.server.URL
}

// Settings returns default settings pointing every webhook at the mock,
// with fast retries.
func (m *MockWebhook) Settings() config.Settings {
	s := config.DefaultSettings()
	s.BaseURL = m.server.URL
	s.RetryDelayMillis = 1
	s.TimeoutMillis = 2000
	s.SearchTimeoutMillis = 2000
	return s
}

// Close shuts down the mock server.
func (m *MockWebhook) Close() {
	m.server.Close()
}

// SetResponse serves resp for every request to path.
func (m *MockWebhook) SetResponse(path string, resp MockResponse) {
	m.SetSequence(path, "", resp)
}

// SetActionResponse serves resp for requests to path whose body action is action.
func (m *MockWebhook) SetActionResponse(path, action string, resp MockResponse) {
	m.SetSequence(path, action, resp)
}

// SetSequence serves resps in order for path (and action, if not empty).
func (m *MockWebhook) SetSequence(path, action string, resps ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := route{path: path, action: action}
	m.sequences[r] = resps
	m.served[r] = 0
}

// Requests returns the requests received so far.
func (m *MockWebhook) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// RequestCount returns the number of requests received for path, or for
// all paths if path is empty.
func (m *MockWebhook) RequestCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if path == "" {
		return len(m.requests)
	}
	n := 0
	for _, r := range m.requests {
		if r.Path == path {
			n++
		}
	}
	return n
}

// Reset clears recorded requests and restarts every sequence.
func (m *MockWebhook) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	for r := range m.served {
		m.served[r] = 0
	}
}

func (m *MockWebhook) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	action := gjson.GetBytes(body, "action").String()

	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
		Action: action,
	})

	resp, ok := m.next(route{path: r.URL.Path, action: action})
	if !ok {
		resp, ok = m.next(route{path: r.URL.Path})
	}
	m.mu.Unlock()

	if !ok {
		m.defaultHandler(w, r)
		return
	}

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
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

// next must be called with m.mu held.
func (m *MockWebhook) next(r route) (MockResponse, bool) {
	seq, ok := m.sequences[r]
	if !ok || len(seq) == 0 {
		return MockResponse{}, false
	}
	i := m.served[r]
	if i >= len(seq) {
		i = len(seq) - 1
	}
	m.served[r]++
	return seq[i], true
}

// defaultHandler answers HEAD probes and rejects unknown routes.
func (m *MockWebhook) defaultHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"success":false,"error":{"message":"route not configured"}}`))
}

// NewSuccessResponse creates a 200 OK response with the given JSON body.
func NewSuccessResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
	}
}

// NewServerErrorResponse creates a 503 Service Unavailable response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       `workflow unavailable`,
		Headers:    map[string]string{"Content-Type": "text/plain"},
	}
}

// NewClientErrorResponse creates a 400 Bad Request response.
func NewClientErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusBadRequest,
		Body:       `{"message":"invalid payload"}`,
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response with Retry-After.
func NewRateLimitResponse(retryAfter string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"message":"slow down"}`,
		Headers:    map[string]string{"Retry-After": retryAfter},
	}
}

// NewApplicationErrorResponse creates a 200 OK response with success:false.
func NewApplicationErrorResponse(message string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"success":false,"error":{"message":"` + message + `"}}`,
	}
}
