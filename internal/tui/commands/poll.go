// poll.go bridges cache subscriptions into the Bubble Tea loop. Each
// listen command receives one delivery and resolves; the app re-arms it
// after handling the message, which is the idiomatic channel pattern.
package commands

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pvlab-dev/pvlab/internal/api"
	"github.com/pvlab-dev/pvlab/internal/cache"
	"github.com/pvlab-dev/pvlab/internal/tui"
)

// ListenImportsCmd receives the next import-list poll result.
func ListenImportsCmd(sub *cache.Subscription) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-sub.C
		if !ok {
			return tui.PollStoppedMsg{}
		}
		if res.Err != nil {
			return tui.ImportPollMsg{Err: res.Err}
		}
		jobs, _ := res.Value.([]api.ImportJob)
		return tui.ImportPollMsg{Jobs: jobs}
	}
}

// ListenSummaryCmd receives the next summary poll result.
func ListenSummaryCmd(sub *cache.Subscription) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-sub.C
		if !ok {
			return tui.PollStoppedMsg{}
		}
		if res.Err != nil {
			return tui.SummaryPollMsg{Err: res.Err}
		}
		summary, _ := res.Value.(*api.Summary)
		return tui.SummaryPollMsg{Summary: summary}
	}
}

// ListenRealtimeCmd receives the next realtime poll result.
func ListenRealtimeCmd(sub *cache.Subscription) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-sub.C
		if !ok {
			return tui.PollStoppedMsg{}
		}
		if res.Err != nil {
			return tui.RealtimePollMsg{Err: res.Err}
		}
		rt, _ := res.Value.(*api.Realtime)
		return tui.RealtimePollMsg{Realtime: rt}
	}
}
