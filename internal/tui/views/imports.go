// imports.go renders the import job history, the upload prompt, and the
// live progress of jobs the backend is still processing.
package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pvlab-dev/pvlab/internal/api"
	"github.com/pvlab-dev/pvlab/internal/importer"
	"github.com/pvlab-dev/pvlab/internal/stats"
	"github.com/pvlab-dev/pvlab/internal/tui"
)

// UploadRequestMsg is sent when the user submits a spreadsheet path.
type UploadRequestMsg struct {
	Path string
}

// RetryRequestMsg is sent when the user asks to retry the selected job.
type RetryRequestMsg struct {
	ID string
}

// RefreshImportsMsg is sent when the user requests a reload.
type RefreshImportsMsg struct{}

// ImportsModel is the view model for the import job screen.
type ImportsModel struct {
	jobs      []api.ImportJob
	cursor    int
	loading   bool
	uploading bool
	prompting bool
	pathInput textinput.Model
	notice    string
	warn      string
	Err       error
	width     int
	height    int
}

// NewImportsModel creates the imports view.
func NewImportsModel(width, height int) ImportsModel {
	ti := textinput.New()
	ti.Placeholder = "/path/to/results.xlsx"
	ti.CharLimit = 500
	ti.Width = 60

	return ImportsModel{
		loading:   true,
		pathInput: ti,
		width:     width,
		height:    height,
	}
}

// Init returns the initial command for the imports view.
func (m ImportsModel) Init() tea.Cmd {
	return nil
}

// Prompting reports whether the upload path input is capturing keys.
func (m ImportsModel) Prompting() bool {
	return m.prompting
}

// Update handles messages for the imports view.
func (m ImportsModel) Update(msg tea.Msg) (ImportsModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tui.ImportsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.Err = nil
		m.warn = ""
		m.jobs = msg.Jobs
		if m.cursor >= len(m.jobs) {
			m.cursor = 0
		}

	case tui.ImportPollMsg:
		// A failed poll keeps the previous list; the ticker retries.
		// The failure is shown inline so a stalling list is explainable.
		if msg.Err != nil {
			m.warn = "Refresh failed: " + errText(msg.Err)
			return m, nil
		}
		m.warn = ""
		m.jobs = msg.Jobs
		m.loading = false
		if m.cursor >= len(m.jobs) {
			m.cursor = 0
		}

	case tui.UploadResultMsg:
		m.uploading = false
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.Err = nil
		m.notice = fmt.Sprintf("Accepted %s, job %s", msg.Job.FileName, msg.Job.ID)
		m.loading = true
		return m, func() tea.Msg { return RefreshImportsMsg{} }

	case tui.RetryResultMsg:
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.Err = nil
		m.notice = fmt.Sprintf("Retrying job %s", msg.ID)
		m.loading = true
		return m, func() tea.Msg { return RefreshImportsMsg{} }

	case tea.KeyMsg:
		if m.prompting {
			switch msg.String() {
			case tui.KeyEnter:
				path := strings.TrimSpace(m.pathInput.Value())
				if path != "" {
					m.prompting = false
					m.uploading = true
					m.notice = ""
					m.pathInput.Blur()
					m.pathInput.SetValue("")
					return m, func() tea.Msg { return UploadRequestMsg{Path: path} }
				}
			case tui.KeyEsc:
				m.prompting = false
				m.pathInput.Blur()
				m.pathInput.SetValue("")
				return m, nil
			}
			m.pathInput, cmd = m.pathInput.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case tui.KeyUp, "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case tui.KeyDown, "j":
			if m.cursor < len(m.jobs)-1 {
				m.cursor++
			}
		case "u":
			m.prompting = true
			m.Err = nil
			m.notice = ""
			return m, m.pathInput.Focus()
		case "t":
			if m.cursor < len(m.jobs) {
				job := m.jobs[m.cursor]
				if !importer.CanRetry(job.Status) {
					m.Err = importer.ErrNotRetryable
					return m, nil
				}
				m.notice = ""
				return m, func() tea.Msg { return RetryRequestMsg{ID: job.ID} }
			}
		case "r":
			m.loading = true
			m.notice = ""
			return m, func() tea.Msg { return RefreshImportsMsg{} }
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// View renders the imports view.
func (m ImportsModel) View() string {
	var b strings.Builder

	header := tui.TitleStyle.Render("Spreadsheet Imports")
	b.WriteString(header)
	b.WriteString("\n\n")

	if m.prompting {
		b.WriteString("Spreadsheet to upload (.xlsx or .xls, max 100 MB)\n\n")
		b.WriteString(m.pathInput.View())
		b.WriteString("\n\n")
		b.WriteString(tui.DimStyle.Render("Enter: Upload       Esc: Cancel"))
		return tui.BoxStyle.Width(boxWidth(m.width)).Render(b.String())
	}

	switch {
	case m.uploading:
		b.WriteString(tui.DimStyle.Render("Uploading..."))
	case m.loading:
		b.WriteString(tui.DimStyle.Render("Loading import jobs..."))
	case m.Err != nil:
		b.WriteString(tui.ErrorStyle.Render(errText(m.Err)))
	case len(m.jobs) == 0:
		b.WriteString(tui.DimStyle.Render("No import jobs yet. Press u to upload a spreadsheet."))
	default:
		b.WriteString(m.renderJobs())
	}

	if m.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(tui.SuccessStyle.Render(m.notice))
	}
	if m.warn != "" {
		b.WriteString("\n\n")
		b.WriteString(tui.WarningStyle.Render(m.warn))
	}

	b.WriteString("\n\n")
	b.WriteString(tui.DimStyle.Render("u: Upload       t: Retry       r: Refresh       Tab: Switch tabs"))

	return tui.BoxStyle.
		Width(boxWidth(m.width)).
		Render(b.String())
}

func (m ImportsModel) renderJobs() string {
	var b strings.Builder

	max := m.height - 14
	if max < 5 {
		max = 5
	}
	end := len(m.jobs)
	if end > max {
		end = max
	}

	for i := 0; i < end; i++ {
		job := m.jobs[i]
		line := fmt.Sprintf(" %s %-26s %-22s %s",
			jobIcon(job),
			truncate(job.FileName, 26),
			jobStatus(job),
			jobDetail(job),
		)
		if i == m.cursor {
			line = tui.SelectedStyle.Render("▸" + line[1:])
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if end < len(m.jobs) {
		b.WriteString(tui.DimStyle.Render(fmt.Sprintf("  ... %d more", len(m.jobs)-end)))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// jobIcon picks the status glyph for a job row.
func jobIcon(job api.ImportJob) string {
	switch job.Status {
	case api.ImportCompleted:
		return tui.JobDone
	case api.ImportProcessing:
		return tui.JobRunning
	case api.ImportFailed:
		return tui.JobFailed
	case api.ImportPartial:
		return tui.JobPartial
	default:
		return tui.JobPending
	}
}

// jobStatus renders the status text, keeping a completed job that
// dropped rows visually distinct from a clean completion and from a
// backend-declared partial outcome.
func jobStatus(job api.ImportJob) string {
	if importer.CompletedWithFailures(job) {
		return "completed (with failures)"
	}
	return job.Status
}

// jobDetail renders the per-row progress summary.
func jobDetail(job api.ImportJob) string {
	if percent, determinate := importer.ProgressPercent(job); determinate {
		s := fmt.Sprintf("%3d%%  %s/%s records",
			percent,
			stats.FormatCount(job.SuccessRecords),
			stats.FormatCount(job.TotalRecords))
		if job.FailedRecords > 0 {
			s += fmt.Sprintf(", %s failed", stats.FormatCount(job.FailedRecords))
		}
		return s
	}
	return stats.FormatBytes(job.FileSize)
}
