// auth.go wraps the backend authentication endpoints.
package api

import (
	"context"
	"net/url"
)

// User is the backend's view of an authenticated operator.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role"`
}

// LoginResult is the response of a successful login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        User   `json:"user"`
}

// Login exchanges credentials for a bearer token. The auth endpoint takes
// OAuth2 password-form fields, with the email in the username slot.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var result LoginResult
	if err := c.postForm(ctx, "/api/v1/auth/login", form, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout notifies the backend that the session is ending.
func (c *Client) Logout(ctx context.Context) error {
	return c.postJSON(ctx, "/api/v1/auth/logout", nil, nil)
}

// Me returns the user attached to the current credential. A 401 here means
// the persisted token is no longer valid.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "/api/v1/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
