// Package session is the single source of truth for who is signed in.
package session

import "github.com/pvlab-dev/pvlab/internal/api"

// Session is an immutable snapshot of the authentication state.
// Invariant: Authenticated == (Token != "").
type Session struct {
	User          api.User
	Token         string
	Authenticated bool
}

// DisplayIdentity returns the name shown in the UI for this session.
func (s Session) DisplayIdentity() string {
	if s.User.FullName != "" {
		return s.User.FullName
	}
	return s.User.Email
}
