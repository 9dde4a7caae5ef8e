package session

import (
	"context"
	"sync"

	"github.com/pvlab-dev/pvlab/internal/api"
)

// Manager owns the in-memory session and drives the durable store.
// Every transition (login, logout, revalidation, forced expiry) swaps the
// whole state under one lock and commits it before the lock is released,
// so observers never see a mix of old token and new identity.
type Manager struct {
	client *api.Client
	store  *Store

	mu      sync.Mutex
	current Session

	onReset func()
}

// NewManager creates a Manager backed by the given gateway client and
// durable store. Persisted credentials, if any, are restored immediately
// so the first outgoing request already carries the token; their validity
// is only established later by CheckAuth.
func NewManager(client *api.Client, store *Store) (*Manager, error) {
	m := &Manager{client: client, store: store}

	if store != nil {
		token, user, ok, err := store.Load()
		if err != nil {
			return nil, err
		}
		if ok && token != "" {
			m.current = Session{User: user, Token: token, Authenticated: true}
		}
	}

	client.SetCredentialSource(m)
	client.OnAuthExpired(m.Expire)

	return m, nil
}

// OnReset registers the hook fired when the session is cleared by a 401.
// The view layer uses it to force navigation to the login screen.
func (m *Manager) OnReset(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReset = fn
}

// Token implements api.CredentialSource.
func (m *Manager) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Token, m.current.Token != ""
}

// Authenticated reports whether a session is active.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Authenticated
}

// Snapshot returns a copy of the current session state.
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Login exchanges credentials for a session. On success the new state is
// installed atomically and committed to the durable store; on failure the
// previous state is left untouched and the backend's rejection surfaces
// to the caller.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	result, err := m.client.Login(ctx, email, password)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.current = Session{
		User:          result.User,
		Token:         result.AccessToken,
		Authenticated: true,
	}
	if m.store != nil {
		// Commit inside the lock so a concurrent transition cannot
		// persist state that was never current.
		_ = m.store.Save(result.AccessToken, result.User)
	}
	m.mu.Unlock()

	return nil
}

// Logout clears the session locally and best-effort notifies the backend.
// The local clear is authoritative and unconditional: a failed
// notification never resurrects the session.
func (m *Manager) Logout(ctx context.Context) {
	m.reset()
	_ = m.client.Logout(ctx)
}

// CheckAuth revalidates a persisted token against the backend. Run it in
// a goroutine (or tea.Cmd) at startup: it never blocks the first render,
// and its completion is observable to the caller for deterministic tests.
// Any failure runs the same clearing path as Logout.
func (m *Manager) CheckAuth(ctx context.Context) error {
	m.mu.Lock()
	token := m.current.Token
	m.mu.Unlock()

	if token == "" {
		return nil
	}

	user, err := m.client.Me(ctx)
	if err != nil {
		// The 401 path already cleared via Expire; clear again for
		// the non-401 failures (idempotent either way).
		m.reset()
		return err
	}

	m.mu.Lock()
	// Only refresh the identity if the token that was validated is
	// still the installed one.
	if m.current.Token == token {
		m.current.User = *user
		if m.store != nil {
			_ = m.store.Save(token, *user)
		}
	}
	m.mu.Unlock()

	return nil
}

// Expire clears the session in response to a 401 and fires the OnReset
// hook. Installed as the gateway's auth-expired handler.
func (m *Manager) Expire() {
	fn := m.resetAndGetHook()
	if fn != nil {
		fn()
	}
}

// reset returns the state to the unauthenticated shape and clears the
// durable record.
func (m *Manager) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
}

func (m *Manager) resetAndGetHook() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
	return m.onReset
}

func (m *Manager) clearLocked() {
	m.current = Session{}
	if m.store != nil {
		_ = m.store.Clear()
	}
}
