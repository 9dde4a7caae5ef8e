// Package tui implements the terminal user interface using Bubble Tea.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// runFallback handles non-TTY execution.
// It guides users to the equivalent CLI commands instead of rendering.
func runFallback(_ tea.Model) error {
	fmt.Println("Non-TTY environment detected.")
	fmt.Println("Use the subcommands instead, e.g.:")
	fmt.Println("  pvlab records list")
	fmt.Println("  pvlab imports upload <file.xlsx> --watch")
	fmt.Println("  pvlab stats summary")
	return nil
}
