// data.go holds the commands that read backend state through the query
// cache. Reads resolve instantly on a warm cache; a cold key blocks the
// command (not the UI loop) until the shared fetch lands.
package commands

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pvlab-dev/pvlab/internal/api"
	"github.com/pvlab-dev/pvlab/internal/cache"
	"github.com/pvlab-dev/pvlab/internal/importer"
	"github.com/pvlab-dev/pvlab/internal/stats"
	"github.com/pvlab-dev/pvlab/internal/tui"
)

// recordsTTL keeps the records view snappy while navigating back and
// forth without re-fetching on every keystroke.
const recordsTTL = 30 * time.Second

// devicesTTL mirrors recordsTTL for the device catalogue.
const devicesTTL = 60 * time.Second

// RecordsKey builds the cache key for a record listing.
func RecordsKey(filter api.RecordFilter) string {
	return fmt.Sprintf("records?device=%s&batch=%s&status=%s&limit=%d",
		filter.DeviceModel, filter.BatchNumber, filter.Status, filter.Limit)
}

// LoadRecordsCmd reads the record listing through the cache.
func LoadRecordsCmd(client *api.Client, c *cache.Cache, filter api.RecordFilter) tea.Cmd {
	return func() tea.Msg {
		v, err := c.Read(context.Background(), RecordsKey(filter), func(ctx context.Context) (any, error) {
			return client.ListRecords(ctx, filter)
		}, cache.Options{TTL: recordsTTL})
		if err != nil {
			return tui.RecordsLoadedMsg{Err: err}
		}
		return tui.RecordsLoadedMsg{Records: v.([]api.TestRecord)}
	}
}

// DeleteRecordCmd deletes a record and invalidates everything derived
// from the record set.
func DeleteRecordCmd(client *api.Client, c *cache.Cache, id string) tea.Cmd {
	return func() tea.Msg {
		if err := client.DeleteRecord(context.Background(), id); err != nil {
			return tui.RecordDeletedMsg{ID: id, Err: err}
		}
		c.InvalidatePrefix("records")
		c.InvalidatePrefix("stats/")
		return tui.RecordDeletedMsg{ID: id}
	}
}

// LoadDevicesCmd reads the device catalogue through the cache.
func LoadDevicesCmd(client *api.Client, c *cache.Cache) tea.Cmd {
	return func() tea.Msg {
		v, err := c.Read(context.Background(), "devices", func(ctx context.Context) (any, error) {
			return client.ListDevicesWithStats(ctx)
		}, cache.Options{TTL: devicesTTL})
		if err != nil {
			return tui.DevicesLoadedMsg{Err: err}
		}
		return tui.DevicesLoadedMsg{Devices: v.([]api.DeviceWithStats)}
	}
}

// DeleteDeviceCmd removes a device model. Device stats feed the summary
// numbers, so those keys are stamped out too.
func DeleteDeviceCmd(client *api.Client, c *cache.Cache, id string) tea.Cmd {
	return func() tea.Msg {
		if err := client.DeleteDevice(context.Background(), id); err != nil {
			return tui.DeviceDeletedMsg{ID: id, Err: err}
		}
		c.Invalidate("devices")
		c.InvalidatePrefix("stats/")
		return tui.DeviceDeletedMsg{ID: id}
	}
}

// LoadImportsCmd reads the import job history.
func LoadImportsCmd(svc *importer.Service) tea.Cmd {
	return func() tea.Msg {
		jobs, err := svc.List(context.Background())
		return tui.ImportsLoadedMsg{Jobs: jobs, Err: err}
	}
}

// UploadCmd submits a spreadsheet for import.
func UploadCmd(svc *importer.Service, path string) tea.Cmd {
	return func() tea.Msg {
		job, err := svc.Upload(context.Background(), path)
		return tui.UploadResultMsg{Job: job, Err: err}
	}
}

// RetryCmd requests a retry for a failed or partial job. A job in any
// other state resolves to importer.ErrNotRetryable without a request.
func RetryCmd(svc *importer.Service, id string) tea.Cmd {
	return func() tea.Msg {
		err := svc.Retry(context.Background(), id)
		return tui.RetryResultMsg{ID: id, Err: err}
	}
}

// LoadSummaryCmd reads the dashboard summary.
func LoadSummaryCmd(svc *stats.Service) tea.Cmd {
	return func() tea.Msg {
		summary, err := svc.Summary(context.Background(), api.StatsFilter{})
		return tui.SummaryLoadedMsg{Summary: summary, Err: err}
	}
}

// LoadRealtimeCmd reads the live statistics snapshot.
func LoadRealtimeCmd(svc *stats.Service) tea.Cmd {
	return func() tea.Msg {
		rt, err := svc.Realtime(context.Background())
		return tui.RealtimeLoadedMsg{Realtime: rt, Err: err}
	}
}

// LoadQualityCmd reads the process quality metrics.
func LoadQualityCmd(svc *stats.Service) tea.Cmd {
	return func() tea.Msg {
		m, err := svc.Quality(context.Background(), api.StatsFilter{})
		return tui.QualityLoadedMsg{Metrics: m, Err: err}
	}
}

// LoadTrendsCmd reads the daily trend series for the statistics view.
func LoadTrendsCmd(svc *stats.Service, days int) tea.Cmd {
	return func() tea.Msg {
		points, err := svc.Trends(context.Background(), "day", days, "")
		return tui.TrendsLoadedMsg{Points: points, Err: err}
	}
}
