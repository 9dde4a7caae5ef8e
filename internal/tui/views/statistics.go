// statistics.go renders the quality metrics and trend series.
package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pvlab-dev/pvlab/internal/api"
	"github.com/pvlab-dev/pvlab/internal/stats"
	"github.com/pvlab-dev/pvlab/internal/tui"
)

// RefreshStatisticsMsg is sent when the user requests a reload.
type RefreshStatisticsMsg struct{}

// trendBarWidth is the width of the inline trend bars.
const trendBarWidth = 30

// StatisticsModel is the view model for the statistics screen.
type StatisticsModel struct {
	quality *api.QualityMetrics
	trends  []api.TrendPoint
	loading bool
	warn    string
	Err     error
	width   int
	height  int
}

// NewStatisticsModel creates the statistics view.
func NewStatisticsModel(width, height int) StatisticsModel {
	return StatisticsModel{
		loading: true,
		width:   width,
		height:  height,
	}
}

// Init returns the initial command for the statistics view.
func (m StatisticsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the statistics view.
func (m StatisticsModel) Update(msg tea.Msg) (StatisticsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tui.QualityLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.Err = nil
		m.quality = msg.Metrics

	case tui.TrendsLoadedMsg:
		// The quality block carries the screen; a trend failure keeps
		// the previous series and is noted inline.
		if msg.Err != nil {
			m.warn = "Trend refresh failed: " + errText(msg.Err)
			return m, nil
		}
		m.warn = ""
		m.trends = msg.Points

	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			m.warn = ""
			return m, func() tea.Msg { return RefreshStatisticsMsg{} }
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// View renders the statistics view.
func (m StatisticsModel) View() string {
	var b strings.Builder

	header := tui.TitleStyle.Render("Process Statistics")
	b.WriteString(header)
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(tui.DimStyle.Render("Loading statistics..."))
	case m.Err != nil:
		b.WriteString(tui.ErrorStyle.Render(errText(m.Err)))
	case m.quality != nil:
		b.WriteString(m.renderQuality())
	}

	if len(m.trends) > 0 {
		b.WriteString("\n\n")
		b.WriteString(m.renderTrends())
	}
	if m.warn != "" {
		b.WriteString("\n\n")
		b.WriteString(tui.WarningStyle.Render(m.warn))
	}

	b.WriteString("\n\n")
	b.WriteString(tui.DimStyle.Render("r: Refresh       Tab: Switch tabs       Export: pvlab stats export"))

	return tui.BoxStyle.
		Width(boxWidth(m.width)).
		Render(b.String())
}

func (m StatisticsModel) renderQuality() string {
	q := m.quality
	var b strings.Builder

	rows := [][2]string{
		{"Total tests", stats.FormatCount(q.TotalTests)},
		{"Pass rate", stats.FormatPercent(q.PassRate)},
		{"Cpk", stats.FormatCpk(q.CPK)},
		{"Defects (PPM)", stats.FormatPPM(q.PPM)},
		{"First-pass yield", stats.FormatPercent(q.FirstPassYield)},
	}
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("  %-18s %s\n", row[0], row[1]))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m StatisticsModel) renderTrends() string {
	var b strings.Builder

	b.WriteString(tui.DimStyle.Render("  Daily volume"))
	b.WriteString("\n")

	maxCount := 0
	for _, p := range m.trends {
		if p.Count > maxCount {
			maxCount = p.Count
		}
	}

	shown := m.trends
	if len(shown) > 14 {
		shown = shown[len(shown)-14:]
	}
	for _, p := range shown {
		bar := ""
		if maxCount > 0 {
			n := p.Count * trendBarWidth / maxCount
			bar = strings.Repeat("█", n)
		}
		b.WriteString(fmt.Sprintf("  %-12s %-*s %5s  %s\n",
			p.Period,
			trendBarWidth, bar,
			stats.FormatCount(p.Count),
			stats.FormatPercent(p.AveragePassRate),
		))
	}

	return strings.TrimRight(b.String(), "\n")
}
