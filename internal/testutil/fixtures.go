// Package testutil provides test helper utilities for pvlab tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pvlab-dev/pvlab/internal/api"
)

// FakeBackend is an in-memory stand-in for the lab backend. Handlers are
// registered per method+path; anything unregistered returns 404 with a
// FastAPI-style detail body.
type FakeBackend struct {
	t   *testing.T
	mux *http.ServeMux
	srv *httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
}

// RecordedRequest captures one request the fake backend served.
type RecordedRequest struct {
	Method    string
	Path      string
	AuthToken string
	RequestID string
}

// NewFakeBackend starts a fake backend. It is shut down automatically
// when the test finishes.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	fb := &FakeBackend{t: t, mux: http.NewServeMux()}
	fb.srv = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.srv.Close)
	return fb
}

// URL returns the backend's base URL.
func (fb *FakeBackend) URL() string {
	return fb.srv.URL
}

// Handle registers a handler for method+path, e.g. "GET /api/v1/imports".
func (fb *FakeBackend) Handle(pattern string, handler http.HandlerFunc) {
	fb.mux.HandleFunc(pattern, handler)
}

// HandleJSON registers a handler that returns status and a JSON body.
func (fb *FakeBackend) HandleJSON(pattern string, status int, body any) {
	fb.Handle(pattern, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(fb.t, w, status, body)
	})
}

// Requests returns a copy of every request served so far.
func (fb *FakeBackend) Requests() []RecordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]RecordedRequest, len(fb.requests))
	copy(out, fb.requests)
	return out
}

func (fb *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	fb.requests = append(fb.requests, RecordedRequest{
		Method:    r.Method,
		Path:      r.URL.Path,
		AuthToken: r.Header.Get("Authorization"),
		RequestID: r.Header.Get("X-Request-ID"),
	})
	fb.mu.Unlock()

	h, pattern := fb.mux.Handler(r)
	if pattern == "" {
		WriteJSON(fb.t, w, http.StatusNotFound, map[string]string{"detail": "not found"})
		return
	}
	h.ServeHTTP(w, r)
}

// WriteJSON encodes body with the given status.
func WriteJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Fatalf("encoding response: %v", err)
		}
	}
}

// StaticToken is a CredentialSource holding a fixed token. An empty
// token reads as "no credential".
type StaticToken string

// Token implements api.CredentialSource.
func (s StaticToken) Token() (string, bool) {
	return string(s), s != ""
}

// TestUser returns a fixed operator identity for tests.
func TestUser() api.User {
	return api.User{
		ID:       "u-1",
		Email:    "operator@lab.example",
		FullName: "Test Operator",
		Role:     "operator",
	}
}

// PendingJob returns an import job the backend has accepted but not
// started.
func PendingJob(id string) api.ImportJob {
	return api.ImportJob{
		ID:        id,
		FileName:  "results.xlsx",
		FileSize:  4096,
		Status:    api.ImportPending,
		CreatedAt: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}
}

// CompletedJob returns a cleanly completed import job.
func CompletedJob(id string, total int) api.ImportJob {
	job := PendingJob(id)
	job.Status = api.ImportCompleted
	job.TotalRecords = total
	job.SuccessRecords = total
	return job
}

// FailedJob returns a failed import job with an error message.
func FailedJob(id string) api.ImportJob {
	job := PendingJob(id)
	job.Status = api.ImportFailed
	job.ErrorMessage = "sheet missing required columns"
	return job
}
