// Package backendtest fakes the equipment REST API for handler tests.
package backendtest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/equip-manager/equip-console/internal/backend"
	"github.com/equip-manager/equip-console/internal/shared"
)

// Request is one call the fake received.
type Request struct {
	Method string
	Path   string
	Query  string
	Body   string
}

type response struct {
	status int
	body   string
}

// Server answers canned JSON per method and path. Unregistered routes get 200 with "{}".
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	routes   map[string]response
	requests []Request
}

// New starts a Server that is closed with the test.
func New(t *testing.T) *Server {
	t.Helper()
	s := &Server{routes: make(map[string]response)}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.srv.Close)
	return s
}

// Handle registers the answer for method and path.
func (s *Server) Handle(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = response{status: status, body: body}
}

// Requests returns every call received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many calls matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent call to method and path.
func (s *Server) Last(method, path string) (Request, bool) {
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return Request{}, false
}

// URL is the root of the fake API.
func (s *Server) URL() string { return s.srv.URL }

// Client returns a backend client that reports failures to the session in the request context.
func (s *Server) Client() *backend.Client {
	return backend.NewClient(s.srv.URL, 2*time.Second)
}

// Resources returns every resource client on top of Client.
func (s *Server) Resources() *backend.Resources {
	return backend.NewResources(s.Client())
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body)})
	resp, ok := s.routes[r.Method+" "+r.URL.Path]
	s.mu.Unlock()
	if !ok {
		resp = response{status: http.StatusOK, body: "{}"}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}

// WithSession serves next with sess attached to every request.
func WithSession(next http.Handler, sess *shared.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(shared.ContextWithSession(r.Context(), sess)))
	})
}
