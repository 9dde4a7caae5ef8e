// Package views provides TUI view components for the pvlab console.
package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pvlab-dev/pvlab/internal/tui"
)

// SubmitLoginMsg is sent when the user submits the credentials form.
type SubmitLoginMsg struct {
	Email    string
	Password string
}

// loginField indexes the focusable inputs on the login form.
type loginField int

const (
	fieldEmail loginField = iota
	fieldPassword
)

// LoginModel is the view model for the credentials form.
type LoginModel struct {
	email    textinput.Model
	password textinput.Model
	focused  loginField
	busy     bool
	Err      error
	width    int
	height   int
}

// NewLoginModel creates the credentials form.
func NewLoginModel(width, height int) LoginModel {
	email := textinput.New()
	email.Placeholder = "operator@lab.example"
	email.CharLimit = 200
	email.Width = 40
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 200
	password.Width = 40
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return LoginModel{
		email:    email,
		password: password,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the login view.
func (m LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

// SetBusy toggles the submitting state while the login request is out.
func (m *LoginModel) SetBusy(busy bool) {
	m.busy = busy
}

// Update handles messages for the login view.
func (m LoginModel) Update(msg tea.Msg) (LoginModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case tui.KeyTab, tui.KeyDown, tui.KeyUp:
			if m.focused == fieldEmail {
				m.focused = fieldPassword
				m.email.Blur()
				cmd = m.password.Focus()
			} else {
				m.focused = fieldEmail
				m.password.Blur()
				cmd = m.email.Focus()
			}
			return m, cmd

		case tui.KeyEnter:
			email := strings.TrimSpace(m.email.Value())
			password := m.password.Value()
			if m.focused == fieldEmail && password == "" {
				// Move on instead of submitting a half-filled form.
				m.focused = fieldPassword
				m.email.Blur()
				return m, m.password.Focus()
			}
			if email != "" && password != "" {
				m.busy = true
				return m, func() tea.Msg {
					return SubmitLoginMsg{Email: email, Password: password}
				}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	if m.focused == fieldEmail {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

// View renders the login view.
func (m LoginModel) View() string {
	var b strings.Builder

	header := tui.TitleStyle.Render("PV Test Lab Console")
	b.WriteString(header)
	b.WriteString("\n\n")

	b.WriteString("Sign in to the lab backend\n\n")

	b.WriteString("Email\n")
	b.WriteString(m.email.View())
	b.WriteString("\n\n")
	b.WriteString("Password\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")

	if m.busy {
		b.WriteString(tui.DimStyle.Render("Signing in..."))
		b.WriteString("\n")
	} else if m.Err != nil {
		b.WriteString(tui.ErrorStyle.Render(errText(m.Err)))
		b.WriteString("\n")
	}

	footer := tui.DimStyle.Render("Enter: Sign in       Tab: Next field       Ctrl+C: Exit")
	b.WriteString("\n")
	b.WriteString(footer)

	boxed := tui.BoxStyle.
		Width(boxWidth(m.width)).
		Render(b.String())

	return boxed
}
