// Package tui implements the terminal user interface using Bubble Tea.
package tui

import (
	"github.com/pvlab-dev/pvlab/internal/config"
	"github.com/pvlab-dev/pvlab/internal/session"
)

// ViewState represents the current state of the TUI.
type ViewState int

const (
	StateLogin ViewState = iota // No session: credentials form
	StateDashboard
	StateRecords
	StateDevices
	StateImports
	StateStatistics
)

// Tab represents the active tab in the TUI. Tabs map one-to-one onto the
// signed-in view states; the login screen has no tabs.
type Tab int

const (
	TabDashboard Tab = iota
	TabRecords
	TabDevices
	TabImports
	TabStatistics
)

// TabState returns the view state a tab renders.
func (t Tab) TabState() ViewState {
	switch t {
	case TabRecords:
		return StateRecords
	case TabDevices:
		return StateDevices
	case TabImports:
		return StateImports
	case TabStatistics:
		return StateStatistics
	default:
		return StateDashboard
	}
}

// TabNames lists the tabs in display order.
var TabNames = []struct {
	Name string
	Tab  Tab
}{
	{"Dashboard", TabDashboard},
	{"Records", TabRecords},
	{"Devices", TabDevices},
	{"Imports", TabImports},
	{"Statistics", TabStatistics},
}

// Model is the main TUI model that holds the cross-view application
// state. Per-view state lives in the view models.
type Model struct {
	// State management
	State     ViewState
	ActiveTab Tab

	// Configuration
	Cfg *config.Config

	// Session snapshot, refreshed on every transition
	Session session.Session

	// Terminal dimensions
	Width  int
	Height int

	// Ctrl+C confirmation state
	CtrlCPending bool // True when waiting for second Ctrl+C press
}

// NewModel creates a new Model with the given configuration.
func NewModel(cfg *config.Config) *Model {
	return &Model{
		State:     StateLogin,
		ActiveTab: TabDashboard,
		Cfg:       cfg,

		// Default dimensions (will be updated on WindowSizeMsg)
		Width:  80,
		Height: 24,
	}
}
