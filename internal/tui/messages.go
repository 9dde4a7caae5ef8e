// Package tui implements the terminal user interface using Bubble Tea.
package tui

import (
	"github.com/pvlab-dev/pvlab/internal/api"
	"github.com/pvlab-dev/pvlab/internal/session"
)

// ============================================================================
// Session Messages
// ============================================================================

// SessionCheckedMsg reports the startup revalidation of a persisted
// session. Valid is false both for "no session" and "backend rejected".
type SessionCheckedMsg struct {
	Valid   bool
	Session session.Session
	Err     error
}

// LoginResultMsg reports the outcome of a login attempt.
type LoginResultMsg struct {
	Session session.Session
	Err     error
}

// SessionResetMsg signals that the session was cleared out from under
// the UI (a request came back 401). The app forces navigation to login.
type SessionResetMsg struct{}

// LoggedOutMsg signals a completed user-requested logout.
type LoggedOutMsg struct{}

// ============================================================================
// Data Messages
// ============================================================================

// RecordsLoadedMsg carries a test-record listing.
type RecordsLoadedMsg struct {
	Records []api.TestRecord
	Err     error
}

// RecordDeletedMsg reports a record deletion.
type RecordDeletedMsg struct {
	ID  string
	Err error
}

// DevicesLoadedMsg carries the device catalogue with stats.
type DevicesLoadedMsg struct {
	Devices []api.DeviceWithStats
	Err     error
}

// DeviceDeletedMsg reports a device deletion.
type DeviceDeletedMsg struct {
	ID  string
	Err error
}

// ImportsLoadedMsg carries the import job history.
type ImportsLoadedMsg struct {
	Jobs []api.ImportJob
	Err  error
}

// UploadResultMsg reports an upload attempt.
type UploadResultMsg struct {
	Job *api.ImportJob
	Err error
}

// RetryResultMsg reports a retry request for an import job.
type RetryResultMsg struct {
	ID  string
	Err error
}

// SummaryLoadedMsg carries the dashboard summary.
type SummaryLoadedMsg struct {
	Summary *api.Summary
	Err     error
}

// RealtimeLoadedMsg carries one poll of the live statistics.
type RealtimeLoadedMsg struct {
	Realtime *api.Realtime
	Err      error
}

// QualityLoadedMsg carries the process quality metrics.
type QualityLoadedMsg struct {
	Metrics *api.QualityMetrics
	Err     error
}

// TrendsLoadedMsg carries the trend series.
type TrendsLoadedMsg struct {
	Points []api.TrendPoint
	Err    error
}

// ============================================================================
// Polling Messages
// ============================================================================

// ImportPollMsg is one delivery from the import-list subscription.
type ImportPollMsg struct {
	Jobs []api.ImportJob
	Err  error
}

// RealtimePollMsg is one delivery from the realtime subscription.
type RealtimePollMsg struct {
	Realtime *api.Realtime
	Err      error
}

// SummaryPollMsg is one delivery from the summary subscription.
type SummaryPollMsg struct {
	Summary *api.Summary
	Err     error
}

// PollStoppedMsg signals that a subscription channel closed.
type PollStoppedMsg struct{}

// ============================================================================
// Utility Messages
// ============================================================================

// CtrlCResetMsg clears the double-press exit confirmation.
type CtrlCResetMsg struct{}

// ErrorMsg is a generic error message for unrecoverable errors.
type ErrorMsg struct {
	Err error
}
