// Package api is the single outbound channel to the lab backend.
// This file provides the HTTP client with credential injection, a fixed
// per-request timeout, and centralized error classification.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout is the upper bound for a single request.
const DefaultTimeout = 30 * time.Second

// CredentialSource supplies the bearer token for outgoing requests.
// The session manager implements it; the client never stores a token of
// its own, so the Authorization header always reflects the live session.
type CredentialSource interface {
	// Token returns the current credential and whether one exists.
	Token() (string, bool)
}

// Client communicates with the lab backend REST API.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	creds         CredentialSource
	onAuthExpired func()
}

// NewClient creates a Client for the backend at baseURL.
// A timeout of 0 uses DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetCredentialSource installs the session's credential source.
// A nil source means requests go out unauthenticated.
func (c *Client) SetCredentialSource(src CredentialSource) {
	c.creds = src
}

// OnAuthExpired registers the hook fired when any request returns 401.
// This is the only cross-cutting side effect in the gateway.
func (c *Client) OnAuthExpired(fn func()) {
	c.onAuthExpired = fn
}

// errorBody is the FastAPI-style error payload.
type errorBody struct {
	Detail string `json:"detail"`
}

// newRequest builds an outgoing request with correlation id and, when a
// session exists, the bearer credential. A request issued with no session
// never carries an Authorization header.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, "", err
	}

	reqID := uuid.New().String()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")

	if c.creds != nil {
		if token, ok := c.creds.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return req, reqID, nil
}

// do executes the request and decodes a JSON response into out (out may be
// nil). All failures come back as *Error.
func (c *Client) do(req *http.Request, reqID string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// No response received: connection failure, DNS, or timeout.
		return &Error{Category: Unreachable, RequestID: reqID, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized && c.onAuthExpired != nil {
		c.onAuthExpired()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		_ = json.Unmarshal(data, &eb)
		return &Error{
			Category:  classify(resp.StatusCode),
			Status:    resp.StatusCode,
			Detail:    eb.Detail,
			RequestID: reqID,
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("api: decoding response: %w", err)
		}
	}

	return nil
}

// get issues a GET with optional query parameters.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if len(query) > 0 {
		path = path + "?" + query.Encode()
	}
	req, reqID, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return &Error{Category: Malformed, Err: err}
	}
	return c.do(req, reqID, out)
}

// postJSON issues a POST with a JSON body.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	return c.sendJSON(ctx, http.MethodPost, path, body, out)
}

// putJSON issues a PUT with a JSON body.
func (c *Client) putJSON(ctx context.Context, path string, body, out any) error {
	return c.sendJSON(ctx, http.MethodPut, path, body, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, out any) error {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Category: Malformed, Err: err}
		}
		buf = bytes.NewReader(data)
	}

	req, reqID, err := c.newRequest(ctx, method, path, buf)
	if err != nil {
		return &Error{Category: Malformed, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, reqID, out)
}

// postForm issues a POST with a form-encoded body (the auth endpoints use
// OAuth2 password-form encoding, not JSON).
func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, reqID, err := c.newRequest(ctx, http.MethodPost, path, strings.NewReader(form.Encode()))
	if err != nil {
		return &Error{Category: Malformed, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, reqID, out)
}

// delete issues a DELETE.
func (c *Client) delete(ctx context.Context, path string) error {
	req, reqID, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return &Error{Category: Malformed, Err: err}
	}
	return c.do(req, reqID, nil)
}

// download streams a GET response body to w, for binary exports.
// The response is not JSON-decoded; non-2xx responses are classified as usual.
func (c *Client) download(ctx context.Context, path string, query url.Values, w io.Writer) error {
	if len(query) > 0 {
		path = path + "?" + query.Encode()
	}
	req, reqID, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return &Error{Category: Malformed, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Category: Unreachable, RequestID: reqID, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized && c.onAuthExpired != nil {
		c.onAuthExpired()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		_ = json.Unmarshal(data, &eb)
		return &Error{
			Category:  classify(resp.StatusCode),
			Status:    resp.StatusCode,
			Detail:    eb.Detail,
			RequestID: reqID,
		}
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("api: writing download: %w", err)
	}

	return nil
}
