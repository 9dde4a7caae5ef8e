package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type staticToken string

func (s staticToken) Token() (string, bool) { return string(s), s != "" }

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Category
	}{
		{401, AuthExpired},
		{403, Forbidden},
		{404, NotFound},
		{500, ServerError},
		{502, ServerError},
		{503, ServerError},
		{400, ValidationRejected},
		{409, ValidationRejected},
		{422, ValidationRejected},
	}

	for _, tt := range tests {
		if got := classify(tt.status); got != tt.want {
			t.Errorf("classify(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestDoClassifiesResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Category
		detail string
	}{
		{"unauthorized", 401, `{"detail":"token expired"}`, AuthExpired, "token expired"},
		{"forbidden", 403, `{"detail":"admin only"}`, Forbidden, "admin only"},
		{"not found", 404, `{"detail":"no such record"}`, NotFound, "no such record"},
		{"server error", 500, `{"detail":"boom"}`, ServerError, "boom"},
		{"validation", 422, `{"detail":"duplicate device model"}`, ValidationRejected, "duplicate device model"},
		{"non-json body", 500, `<html>gateway error</html>`, ServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, 0)
			err := c.get(context.Background(), "/x", nil, nil)
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if apiErr.Category != tt.want {
				t.Errorf("category = %v, want %v", apiErr.Category, tt.want)
			}
			if apiErr.Status != tt.status {
				t.Errorf("status = %d, want %d", apiErr.Status, tt.status)
			}
			if apiErr.Detail != tt.detail {
				t.Errorf("detail = %q, want %q", apiErr.Detail, tt.detail)
			}
		})
	}
}

func TestNoResponseIsUnreachable(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, 0)
	err := c.get(context.Background(), "/x", nil, nil)

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Category != Unreachable {
		t.Errorf("category = %v, want Unreachable", apiErr.Category)
	}
	if apiErr.Status != 0 {
		t.Errorf("status = %d, want 0 (no response)", apiErr.Status)
	}
}

func TestTimeoutIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 20*time.Millisecond)
	err := c.get(context.Background(), "/slow", nil, nil)

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Category != Unreachable {
		t.Errorf("category = %v, want Unreachable", apiErr.Category)
	}
}

func TestNoCredentialMeansNoAuthHeader(t *testing.T) {
	var gotAuth string
	var gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	if err := c.get(context.Background(), "/x", nil, nil); err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization header = %q, want empty without a session", gotAuth)
	}
	if gotReqID == "" {
		t.Error("X-Request-ID header missing")
	}

	// With a credential source installed, the bearer header appears.
	c.SetCredentialSource(staticToken("tok-123"))
	if err := c.get(context.Background(), "/x", nil, nil); err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer tok-123")
	}
}

func TestAuthExpiredHookFiresOn401Only(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	fired := 0
	c := NewClient(srv.URL, 0)
	c.OnAuthExpired(func() { fired++ })

	_ = c.get(context.Background(), "/x", nil, nil)
	if fired != 0 {
		t.Fatalf("hook fired on 200")
	}

	status = http.StatusForbidden
	_ = c.get(context.Background(), "/x", nil, nil)
	if fired != 0 {
		t.Fatalf("hook fired on 403")
	}

	status = http.StatusUnauthorized
	_ = c.get(context.Background(), "/x", nil, nil)
	if fired != 1 {
		t.Fatalf("hook fired %d times on 401, want 1", fired)
	}
}

func TestUploadExcelRejectsBadFilesLocally(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()
	c := NewClient(srv.URL, 0)

	// Wrong extension.
	txt := filepath.Join(t.TempDir(), "results.txt")
	if err := os.WriteFile(txt, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := c.UploadExcel(context.Background(), txt)
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Category != Malformed {
		t.Fatalf("wrong extension: got %v, want Malformed", err)
	}

	// Missing file.
	_, err = c.UploadExcel(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"))
	if !errors.As(err, &apiErr) || apiErr.Category != Malformed {
		t.Fatalf("missing file: got %v, want Malformed", err)
	}

	if requests != 0 {
		t.Errorf("%d requests reached the backend, want 0", requests)
	}
}

func TestUserMessageStableByCategory(t *testing.T) {
	a := &Error{Category: ServerError, Status: 500, Detail: "stack trace A"}
	b := &Error{Category: ServerError, Status: 503, Detail: "stack trace B"}
	if a.UserMessage() != b.UserMessage() {
		t.Errorf("ServerError messages differ: %q vs %q", a.UserMessage(), b.UserMessage())
	}

	// ValidationRejected is the one category that surfaces the backend
	// detail verbatim.
	v := &Error{Category: ValidationRejected, Status: 422, Detail: "device model already exists"}
	if v.UserMessage() != "device model already exists" {
		t.Errorf("ValidationRejected message = %q, want backend detail", v.UserMessage())
	}
}
