package views

import (
	"errors"
	"strings"
	"testing"

	"github.com/pvlab-dev/pvlab/internal/api"
	"github.com/pvlab-dev/pvlab/internal/tui"
)

func TestImportsPollFailureShowsNoticeAndKeepsJobs(t *testing.T) {
	m := NewImportsModel(100, 40)
	m, _ = m.Update(tui.ImportsLoadedMsg{Jobs: []api.ImportJob{
		{ID: "job-1", FileName: "results.xlsx", Status: api.ImportCompleted},
	}})

	m, _ = m.Update(tui.ImportPollMsg{Err: errors.New("backend down")})

	out := m.View()
	if !strings.Contains(out, "results.xlsx") {
		t.Errorf("failed poll dropped the previous job list:\n%s", out)
	}
	if !strings.Contains(out, "Refresh failed") {
		t.Errorf("failed poll not surfaced in the view:\n%s", out)
	}

	// A succeeding poll replaces the list and clears the notice.
	m, _ = m.Update(tui.ImportPollMsg{Jobs: []api.ImportJob{
		{ID: "job-1", FileName: "results.xlsx", Status: api.ImportCompleted},
	}})
	if strings.Contains(m.View(), "Refresh failed") {
		t.Error("poll-failure notice survived a successful poll")
	}
}

func TestDashboardPollFailureShowsNotice(t *testing.T) {
	m := NewDashboardModel("operator", 100, 40)
	m, _ = m.Update(tui.SummaryLoadedMsg{Summary: &api.Summary{TotalCount: 5}})

	m, _ = m.Update(tui.RealtimePollMsg{Err: errors.New("backend down")})

	out := m.View()
	if !strings.Contains(out, "Total tests") {
		t.Errorf("failed poll dropped the summary:\n%s", out)
	}
	if !strings.Contains(out, "Live refresh failed") {
		t.Errorf("failed realtime poll not surfaced in the view:\n%s", out)
	}

	m, _ = m.Update(tui.RealtimePollMsg{Realtime: &api.Realtime{}})
	if strings.Contains(m.View(), "Live refresh failed") {
		t.Error("poll-failure notice survived a successful poll")
	}
}

func TestDashboardSummaryPollFailureKeepsPreviousSummary(t *testing.T) {
	m := NewDashboardModel("operator", 100, 40)
	m, _ = m.Update(tui.SummaryLoadedMsg{Summary: &api.Summary{TotalCount: 5}})

	m, _ = m.Update(tui.SummaryPollMsg{Err: errors.New("backend down")})

	out := m.View()
	if !strings.Contains(out, "Total tests") {
		t.Errorf("failed summary poll dropped the summary:\n%s", out)
	}
	if !strings.Contains(out, "Summary refresh failed") {
		t.Errorf("failed summary poll not surfaced in the view:\n%s", out)
	}
}

func TestStatisticsTrendFailureShowsNotice(t *testing.T) {
	m := NewStatisticsModel(100, 40)
	m, _ = m.Update(tui.QualityLoadedMsg{Metrics: &api.QualityMetrics{TotalTests: 10}})
	m, _ = m.Update(tui.TrendsLoadedMsg{Points: []api.TrendPoint{{Period: "2026-08-01", Count: 3}}})

	m, _ = m.Update(tui.TrendsLoadedMsg{Err: errors.New("backend down")})

	out := m.View()
	if !strings.Contains(out, "2026-08-01") {
		t.Errorf("failed trend poll dropped the previous series:\n%s", out)
	}
	if !strings.Contains(out, "Trend refresh failed") {
		t.Errorf("failed trend poll not surfaced in the view:\n%s", out)
	}

	m, _ = m.Update(tui.TrendsLoadedMsg{Points: []api.TrendPoint{{Period: "2026-08-02", Count: 4}}})
	if strings.Contains(m.View(), "Trend refresh failed") {
		t.Error("trend-failure notice survived a successful refresh")
	}
}
