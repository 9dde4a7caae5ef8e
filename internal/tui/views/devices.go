// devices.go renders the device catalogue with per-model test stats.
package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pvlab-dev/pvlab/internal/api"
	"github.com/pvlab-dev/pvlab/internal/stats"
	"github.com/pvlab-dev/pvlab/internal/tui"
)

// RefreshDevicesMsg is sent when the user requests a reload.
type RefreshDevicesMsg struct{}

// DeleteDeviceRequestMsg is sent when the user asks to delete the
// selected device model.
type DeleteDeviceRequestMsg struct {
	ID string
}

// DevicesModel is the view model for the device catalogue.
type DevicesModel struct {
	devices []api.DeviceWithStats
	cursor  int
	loading bool
	notice  string
	Err     error
	width   int
	height  int
}

// NewDevicesModel creates the devices view.
func NewDevicesModel(width, height int) DevicesModel {
	return DevicesModel{
		loading: true,
		width:   width,
		height:  height,
	}
}

// Init returns the initial command for the devices view.
func (m DevicesModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the devices view.
func (m DevicesModel) Update(msg tea.Msg) (DevicesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tui.DevicesLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.Err = nil
		m.devices = msg.Devices
		if m.cursor >= len(m.devices) {
			m.cursor = 0
		}

	case tui.DeviceDeletedMsg:
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.notice = fmt.Sprintf("Removed device %s", msg.ID)
		m.loading = true
		return m, func() tea.Msg { return RefreshDevicesMsg{} }

	case tea.KeyMsg:
		switch msg.String() {
		case tui.KeyUp, "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case tui.KeyDown, "j":
			if m.cursor < len(m.devices)-1 {
				m.cursor++
			}
		case "r":
			m.loading = true
			m.notice = ""
			return m, func() tea.Msg { return RefreshDevicesMsg{} }
		case "d":
			if m.cursor < len(m.devices) {
				id := m.devices[m.cursor].ID
				return m, func() tea.Msg { return DeleteDeviceRequestMsg{ID: id} }
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// View renders the devices view.
func (m DevicesModel) View() string {
	var b strings.Builder

	header := tui.TitleStyle.Render("Device Models")
	b.WriteString(header)
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(tui.DimStyle.Render("Loading devices..."))
	case m.Err != nil:
		b.WriteString(tui.ErrorStyle.Render(errText(m.Err)))
	case len(m.devices) == 0:
		b.WriteString(tui.DimStyle.Render("No devices registered. Add one with: pvlab devices add <model>"))
	default:
		b.WriteString(m.renderTable())
		if m.cursor < len(m.devices) {
			b.WriteString("\n\n")
			b.WriteString(m.renderDetail(m.devices[m.cursor]))
		}
	}

	if m.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(tui.SuccessStyle.Render(m.notice))
	}

	b.WriteString("\n\n")
	b.WriteString(tui.DimStyle.Render("↑/↓: Move       d: Delete       r: Refresh       Tab: Switch tabs"))

	return tui.BoxStyle.
		Width(boxWidth(m.width)).
		Render(b.String())
}

func (m DevicesModel) renderTable() string {
	var b strings.Builder

	head := fmt.Sprintf("  %-16s %-20s %-16s %6s  %s",
		"MODEL", "NAME", "MANUFACTURER", "TESTS", "AVG PASS RATE")
	b.WriteString(tui.DimStyle.Render(head))
	b.WriteString("\n")

	for i, d := range m.devices {
		line := fmt.Sprintf("  %-16s %-20s %-16s %6d  %s",
			truncate(d.DeviceModel, 16),
			truncate(d.DeviceName, 20),
			truncate(d.Manufacturer, 16),
			d.TestCount,
			stats.FormatPercent(d.AveragePassRate),
		)
		if i == m.cursor {
			line = tui.SelectedStyle.Render("▸" + line[1:])
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m DevicesModel) renderDetail(d api.DeviceWithStats) string {
	var parts []string
	if d.RatedVoltage != nil {
		parts = append(parts, fmt.Sprintf("%.1f V", *d.RatedVoltage))
	}
	if d.RatedCurrent != nil {
		parts = append(parts, fmt.Sprintf("%.1f A", *d.RatedCurrent))
	}
	if d.RatedPower != nil {
		parts = append(parts, fmt.Sprintf("%.1f W", *d.RatedPower))
	}

	var b strings.Builder
	b.WriteString(tui.DimStyle.Render("  Rated: "))
	if len(parts) > 0 {
		b.WriteString(strings.Join(parts, " / "))
	} else {
		b.WriteString(tui.DimStyle.Render("not specified"))
	}
	if d.LastTestDate != nil {
		b.WriteString(tui.DimStyle.Render("   Last test: "))
		b.WriteString(stats.FormatTestTime(*d.LastTestDate))
	}
	return b.String()
}
