// dashboard.go renders the summary and live statistics for the signed-in
// home screen.
package views

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pvlab-dev/pvlab/internal/api"
	"github.com/pvlab-dev/pvlab/internal/stats"
	"github.com/pvlab-dev/pvlab/internal/tui"
)

// DashboardModel is the view model for the summary dashboard.
type DashboardModel struct {
	summary  *api.Summary
	realtime *api.Realtime
	identity string
	loading  bool
	warn     string
	Err      error
	width    int
	height   int
}

// NewDashboardModel creates the dashboard view.
func NewDashboardModel(identity string, width, height int) DashboardModel {
	return DashboardModel{
		identity: identity,
		loading:  true,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the dashboard view.
func (m DashboardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the dashboard view.
func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tui.SummaryLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.Err = nil
		m.summary = msg.Summary

	case tui.RealtimeLoadedMsg:
		if msg.Err == nil {
			m.realtime = msg.Realtime
		}

	case tui.RealtimePollMsg:
		// Poll failures keep the previous snapshot on screen, with the
		// failure noted inline until a poll succeeds again.
		if msg.Err != nil {
			m.warn = "Live refresh failed: " + errText(msg.Err)
			return m, nil
		}
		m.warn = ""
		m.realtime = msg.Realtime

	case tui.SummaryPollMsg:
		if msg.Err != nil {
			m.warn = "Summary refresh failed: " + errText(msg.Err)
			return m, nil
		}
		m.warn = ""
		m.loading = false
		m.summary = msg.Summary

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// View renders the dashboard view.
func (m DashboardModel) View() string {
	var b strings.Builder

	header := tui.TitleStyle.Render("Test Lab Dashboard")
	b.WriteString(header)
	if m.identity != "" {
		b.WriteString(tui.DimStyle.Render("   signed in as " + m.identity))
	}
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(tui.DimStyle.Render("Loading summary..."))
	case m.Err != nil:
		b.WriteString(tui.ErrorStyle.Render(errText(m.Err)))
	case m.summary != nil:
		b.WriteString(m.renderSummary())
	}

	if m.realtime != nil {
		b.WriteString("\n\n")
		b.WriteString(m.renderRealtime())
	}
	if m.warn != "" {
		b.WriteString("\n\n")
		b.WriteString(tui.WarningStyle.Render(m.warn))
	}

	b.WriteString("\n\n")
	b.WriteString(tui.DimStyle.Render("Tab: Switch tabs       r: Refresh       Ctrl+C: Exit"))

	return tui.BoxStyle.
		Width(boxWidth(m.width)).
		Render(b.String())
}

func (m DashboardModel) renderSummary() string {
	s := m.summary
	var b strings.Builder

	rows := [][2]string{
		{"Total tests", stats.FormatCount(s.TotalCount)},
		{"Today", stats.FormatCount(s.TodayCount)},
		{"This week", stats.FormatCount(s.WeekCount)},
		{"This month", stats.FormatCount(s.MonthCount)},
		{"Pass / fail", stats.FormatCount(s.PassCount) + " / " + stats.FormatCount(s.FailCount)},
		{"Avg pass rate", stats.FormatPercent(s.AveragePassRate)},
	}
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("  %-16s %s\n", row[0], row[1]))
	}

	if len(s.DeviceDistribution) > 0 {
		b.WriteString("\n")
		b.WriteString(tui.DimStyle.Render("  Tests by device"))
		b.WriteString("\n")

		models := make([]string, 0, len(s.DeviceDistribution))
		for model := range s.DeviceDistribution {
			models = append(models, model)
		}
		sort.Strings(models)
		for _, model := range models {
			b.WriteString(fmt.Sprintf("    %-20s %s\n",
				truncate(model, 20), stats.FormatCount(s.DeviceDistribution[model])))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m DashboardModel) renderRealtime() string {
	rt := m.realtime
	var b strings.Builder

	b.WriteString(tui.SelectedStyle.Render("Live"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %-16s %s\n", "Today", stats.FormatCount(rt.TodayCount)))
	b.WriteString(fmt.Sprintf("  %-16s %s\n", "Last hour", stats.FormatCount(rt.HourCount)))
	b.WriteString(fmt.Sprintf("  %-16s %s\n", "Today pass rate", stats.FormatPercent(rt.TodayPassRate)))
	b.WriteString(fmt.Sprintf("  %-16s %s\n", "Active devices", stats.FormatCount(rt.ActiveDevices)))

	if len(rt.RecentTests) > 0 {
		b.WriteString("\n")
		b.WriteString(tui.DimStyle.Render("  Recent tests"))
		b.WriteString("\n")
		max := len(rt.RecentTests)
		if max > 5 {
			max = 5
		}
		for _, t := range rt.RecentTests[:max] {
			line := fmt.Sprintf("    %s  %-24s %s",
				stats.FormatTestTime(t.TestDate),
				truncate(t.FileName, 24),
				stats.FormatPassRate(t.PassRate),
			)
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
