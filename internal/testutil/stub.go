package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// StubServer is an httptest server that answers from a route table keyed by
// "METHOD /path" or just "/path", and records every request path it sees.
type StubServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string
}

// NewStubServer starts a stub server. Unmatched requests get a 404.
func NewStubServer(t *testing.T, routes map[string]http.HandlerFunc) *StubServer {
	t.Helper()

	s := &StubServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		s.mu.Unlock()

		if h, ok := routes[r.Method+" "+r.URL.Path]; ok {
			h(w, r)
			return
		}
		if h, ok := routes[r.URL.Path]; ok {
			h(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// Requests returns the "METHOD /path" lines received so far.
func (s *StubServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Count returns how many requests hit the given path with any method.
func (s *StubServer) Count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, req := range s.requests {
		if _, p, _ := strings.Cut(req, " "); p == path {
			n++
		}
	}
	return n
}

// JSON returns a handler that writes body with the given status.
func JSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// Image returns a handler serving data as content type ct. HEAD requests get
// the headers only.
func Image(ct string, data []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", ct)
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write(data)
		}
	}
}
