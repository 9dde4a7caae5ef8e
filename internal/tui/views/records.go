// records.go renders the scrollable test-record table.
package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pvlab-dev/pvlab/internal/api"
	"github.com/pvlab-dev/pvlab/internal/stats"
	"github.com/pvlab-dev/pvlab/internal/tui"
)

// DeleteRecordRequestMsg is sent when the user asks to delete the
// selected record.
type DeleteRecordRequestMsg struct {
	ID string
}

// RefreshRecordsMsg is sent when the user requests a reload.
type RefreshRecordsMsg struct{}

// RecordsModel is the view model for the test-record table.
type RecordsModel struct {
	records  []api.TestRecord
	cursor   int
	offset   int
	loading  bool
	notice   string
	Err      error
	width    int
	height   int
}

// NewRecordsModel creates the records view.
func NewRecordsModel(width, height int) RecordsModel {
	return RecordsModel{
		loading: true,
		width:   width,
		height:  height,
	}
}

// Init returns the initial command for the records view.
func (m RecordsModel) Init() tea.Cmd {
	return nil
}

// pageSize returns how many rows fit in the current terminal height.
func (m RecordsModel) pageSize() int {
	n := m.height - 12
	if n < 5 {
		n = 5
	}
	return n
}

// Update handles messages for the records view.
func (m RecordsModel) Update(msg tea.Msg) (RecordsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tui.RecordsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.Err = nil
		m.records = msg.Records
		if m.cursor >= len(m.records) {
			m.cursor = len(m.records) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}

	case tui.RecordDeletedMsg:
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.notice = fmt.Sprintf("Deleted record %s", msg.ID)
		m.loading = true
		return m, func() tea.Msg { return RefreshRecordsMsg{} }

	case tea.KeyMsg:
		switch msg.String() {
		case tui.KeyUp, "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case tui.KeyDown, "j":
			if m.cursor < len(m.records)-1 {
				m.cursor++
			}
		case "r":
			m.loading = true
			m.notice = ""
			return m, func() tea.Msg { return RefreshRecordsMsg{} }
		case "d":
			if m.cursor < len(m.records) {
				id := m.records[m.cursor].ID
				return m, func() tea.Msg { return DeleteRecordRequestMsg{ID: id} }
			}
		}
		m.clampScroll()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampScroll()
	}

	return m, nil
}

// clampScroll keeps the cursor inside the visible window.
func (m *RecordsModel) clampScroll() {
	page := m.pageSize()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+page {
		m.offset = m.cursor - page + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// View renders the records view.
func (m RecordsModel) View() string {
	var b strings.Builder

	header := tui.TitleStyle.Render("Test Records")
	b.WriteString(header)
	if len(m.records) > 0 {
		b.WriteString(tui.DimStyle.Render(fmt.Sprintf("   %d rows", len(m.records))))
	}
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(tui.DimStyle.Render("Loading records..."))
	case m.Err != nil:
		b.WriteString(tui.ErrorStyle.Render(errText(m.Err)))
	case len(m.records) == 0:
		b.WriteString(tui.DimStyle.Render("No records yet. Upload a spreadsheet from the Imports tab."))
	default:
		b.WriteString(m.renderTable())
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

func (m RecordsModel) renderTable() string {
	var b strings.Builder

	head := fmt.Sprintf("  %-24s %-16s %-14s %-8s %s",
		"FILE", "DATE", "DEVICE", "STATUS", "PASS RATE")
	b.WriteString(tui.DimStyle.Render(head))
	b.WriteString("\n")

	page := m.pageSize()
	end := m.offset + page
	if end > len(m.records) {
		end = len(m.records)
	}

	for i := m.offset; i < end; i++ {
		r := m.records[i]
		line := fmt.Sprintf("  %-24s %-16s %-14s %-8s %s",
			truncate(r.FileName, 24),
			stats.FormatTestTime(r.TestDate),
			truncate(r.DeviceModel, 14),
			r.Status,
			stats.FormatPassRate(r.PassRate),
		)
		if i == m.cursor {
			line = tui.SelectedStyle.Render("▸" + line[1:])
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if end < len(m.records) {
		b.WriteString(tui.DimStyle.Render(fmt.Sprintf("  ... %d more", len(m.records)-end)))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
