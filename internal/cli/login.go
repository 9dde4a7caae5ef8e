// login.go implements "pvlab login", "pvlab logout" and "pvlab whoami".
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pvlab-dev/pvlab/internal/log"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the lab backend",
	Long: `Exchange an email and password for a session token. The token is
persisted locally so subsequent commands and console launches stay
signed in until logout or expiry.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Account email (prompted if omitted)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	c, err := newConsole()
	if err != nil {
		return err
	}
	defer c.Close()

	email := loginEmail
	if email == "" {
		fmt.Print("Email: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	if err := c.sessions.Login(context.Background(), email, password); err != nil {
		_ = c.logger.Append(log.LogEvent{
			Event: log.EventLoginFailed,
			User:  email,
			Error: err.Error(),
		})
		return err
	}

	snap := c.sessions.Snapshot()
	_ = c.logger.Append(log.LogEvent{
		Event: log.EventLoginSucceeded,
		User:  snap.User.Email,
	})

	fmt.Printf("Signed in as %s\n", snap.DisplayIdentity())
	return nil
}

// readPassword reads a password without echo when stdin is a terminal,
// and falls back to a plain line read for piped input.
func readPassword() (string, error) {
	fmt.Print("Password: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.Close()

		snap := c.sessions.Snapshot()
		c.sessions.Logout(context.Background())

		if snap.Authenticated {
			_ = c.logger.Append(log.LogEvent{
				Event: log.EventLogout,
				User:  snap.User.Email,
			})
		}

		fmt.Println("Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.Close()

		if !c.sessions.Authenticated() {
			fmt.Println("Not signed in.")
			return nil
		}

		// Revalidate against the backend so a stale token reads as
		// signed out, not as a ghost session.
		if err := c.sessions.CheckAuth(context.Background()); err != nil {
			fmt.Println("Not signed in (stored session was no longer valid).")
			return nil
		}

		snap := c.sessions.Snapshot()
		fmt.Printf("%s <%s>", snap.DisplayIdentity(), snap.User.Email)
		if snap.User.Role != "" {
			fmt.Printf("  [%s]", snap.User.Role)
		}
		fmt.Println()
		return nil
	},
}
