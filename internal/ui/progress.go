// Package ui provides terminal UI components for pvlab.
// This file implements the live import-job display used by the watch
// commands.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/pvlab-dev/pvlab/internal/api"
	"github.com/pvlab-dev/pvlab/internal/importer"
)

// JobDisplay renders the progress of one import job as it moves through
// the backend's state machine. On a TTY the line updates in place; piped
// output gets one line per status transition.
type JobDisplay struct {
	w           io.Writer
	isTTY       bool
	drawn       bool
	lastStatus  string
	lastSuccess int
	started     time.Time
}

// NewJobDisplay creates a JobDisplay writing to w.
func NewJobDisplay(w io.Writer) *JobDisplay {
	isTTY := false
	if f, ok := w.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return &JobDisplay{w: w, isTTY: isTTY, started: time.Now()}
}

// Render draws the job's current state.
func (d *JobDisplay) Render(job api.ImportJob) {
	if d.isTTY {
		d.renderTTY(job)
	} else {
		d.renderPlain(job)
	}
	d.lastStatus = job.Status
	d.lastSuccess = job.SuccessRecords
}

// Done finalizes the display, moving the cursor past the live line.
func (d *JobDisplay) Done() {
	if d.isTTY && d.drawn {
		fmt.Fprintln(d.w)
	}
}

// renderTTY overwrites the single live line in place.
func (d *JobDisplay) renderTTY(job api.ImportJob) {
	if d.drawn {
		fmt.Fprint(d.w, "\033[1A\033[2K")
	}
	fmt.Fprintf(d.w, "  %s %s  %s  %s\n",
		statusIcon(job.Status),
		job.FileName,
		statusLabel(job),
		detail(job, d.started),
	)
	d.drawn = true
}

// renderPlain writes non-TTY output (for CI/piping).
// Only prints on transitions to avoid duplicate lines.
func (d *JobDisplay) renderPlain(job api.ImportJob) {
	if job.Status == d.lastStatus && job.SuccessRecords == d.lastSuccess {
		return
	}
	fmt.Fprintf(d.w, "[%s] %s - %s\n",
		strings.ToUpper(job.Status), job.FileName, detail(job, d.started))
}

// statusLabel renders the status, marking a completed job that still
// dropped rows.
func statusLabel(job api.ImportJob) string {
	if importer.CompletedWithFailures(job) {
		return "completed (with failures)"
	}
	return job.Status
}

// statusIcon returns the colored status icon for a job.
func statusIcon(status string) string {
	switch status {
	case api.ImportCompleted:
		return "\033[32m✅\033[0m" // green checkmark
	case api.ImportProcessing:
		return "\033[33m⏳\033[0m" // yellow hourglass
	case api.ImportFailed:
		return "\033[31m❌\033[0m" // red X
	case api.ImportPartial:
		return "\033[33m⚠\033[0m" // yellow warning
	default:
		return "\033[90m○\033[0m" // dim circle
	}
}

// detail returns the right-side detail text for a job line.
func detail(job api.ImportJob, started time.Time) string {
	if percent, determinate := importer.ProgressPercent(job); determinate {
		s := fmt.Sprintf("%d%%  %d/%d records", percent, job.SuccessRecords, job.TotalRecords)
		if job.FailedRecords > 0 {
			s += fmt.Sprintf(", %d failed", job.FailedRecords)
		}
		if job.ErrorMessage != "" {
			s += "  " + job.ErrorMessage
		}
		return s
	}
	return fmt.Sprintf("waiting on backend [%s]", formatDuration(time.Since(started)))
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", h, m, s)
}
