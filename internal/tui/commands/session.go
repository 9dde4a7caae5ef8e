// Package commands provides Bubble Tea commands for TUI operations.
package commands

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pvlab-dev/pvlab/internal/session"
	"github.com/pvlab-dev/pvlab/internal/tui"
)

// CheckAuthCmd revalidates a persisted session against the backend.
// It resolves to SessionCheckedMsg either way, so the app can route to
// the dashboard or the login form deterministically.
func CheckAuthCmd(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		if !mgr.Authenticated() {
			return tui.SessionCheckedMsg{Valid: false}
		}
		if err := mgr.CheckAuth(context.Background()); err != nil {
			return tui.SessionCheckedMsg{Valid: false, Err: err}
		}
		return tui.SessionCheckedMsg{Valid: true, Session: mgr.Snapshot()}
	}
}

// LoginCmd exchanges credentials for a session.
func LoginCmd(mgr *session.Manager, email, password string) tea.Cmd {
	return func() tea.Msg {
		if err := mgr.Login(context.Background(), email, password); err != nil {
			return tui.LoginResultMsg{Err: err}
		}
		return tui.LoginResultMsg{Session: mgr.Snapshot()}
	}
}

// LogoutCmd clears the session.
func LogoutCmd(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		mgr.Logout(context.Background())
		return tui.LoggedOutMsg{}
	}
}

// WaitForResetCmd blocks on the session-reset channel and surfaces the
// forced navigation as a message. The app re-arms it after each firing.
func WaitForResetCmd(resets <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-resets
		return tui.SessionResetMsg{}
	}
}
