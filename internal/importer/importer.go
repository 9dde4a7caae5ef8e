// Package importer tracks asynchronous spreadsheet import jobs to
// completion. The backend owns the state machine; this package decides
// what the client may render and which actions it may offer, polling the
// backend's representation and adopting whatever status it reports.
package importer

import (
	"errors"
	"math"

	"github.com/pvlab-dev/pvlab/internal/api"
)

// ErrNotRetryable is returned when retry is requested for a job that is
// not in a retryable status. The call has no side effects.
var ErrNotRetryable = errors.New("importer: job is not in a retryable state")

// IsTerminal reports whether the client stops polling this job.
func IsTerminal(status string) bool {
	switch status {
	case api.ImportCompleted, api.ImportFailed, api.ImportPartial:
		return true
	default:
		return false
	}
}

// CanRetry reports whether the retry action may be offered. Only jobs the
// backend declared failed or partial are retryable.
func CanRetry(status string) bool {
	return status == api.ImportFailed || status == api.ImportPartial
}

// ProgressPercent projects a job onto a whole-number percentage.
// determinate is false while the job is pending or processing, where no
// meaningful percentage exists yet. A terminal job with zero total
// records is 0%, not a division error.
func ProgressPercent(job api.ImportJob) (percent int, determinate bool) {
	if !IsTerminal(job.Status) {
		return 0, false
	}
	if job.TotalRecords <= 0 {
		return 0, true
	}
	p := float64(job.SuccessRecords) / float64(job.TotalRecords) * 100
	return int(math.Round(p)), true
}

// CompletedWithFailures reports a terminal success that still dropped
// records. It is rendered distinctly from partial, which is a
// backend-declared mixed outcome at the job level; the client never maps
// one onto the other.
func CompletedWithFailures(job api.ImportJob) bool {
	return job.Status == api.ImportCompleted && job.FailedRecords > 0
}
