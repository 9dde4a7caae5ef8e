// statistics.go wraps the statistics endpoints. The numbers are computed
// backend-side; the client consumes them as-is for dashboards.
package api

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"time"
)

// Summary aggregates the whole record set for the dashboard.
type Summary struct {
	TotalCount         int              `json:"total_count"`
	TodayCount         int              `json:"today_count"`
	WeekCount          int              `json:"week_count"`
	MonthCount         int              `json:"month_count"`
	PassCount          int              `json:"pass_count"`
	FailCount          int              `json:"fail_count"`
	AveragePassRate    float64          `json:"average_pass_rate"`
	DeviceDistribution map[string]int   `json:"device_distribution"`
	DailyTrend         []map[string]any `json:"daily_trend"`
}

// RecentTest is one row of the realtime recent-tests feed.
type RecentTest struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	TestDate    time.Time `json:"test_date"`
	DeviceModel string    `json:"device_model,omitempty"`
	PassRate    *float64  `json:"pass_rate,omitempty"`
}

// Realtime is the fast-refresh slice of state for the live screen.
type Realtime struct {
	CurrentTime   time.Time    `json:"current_time"`
	TodayCount    int          `json:"today_count"`
	HourCount     int          `json:"hour_count"`
	TodayPassRate float64      `json:"today_pass_rate"`
	ActiveDevices int          `json:"active_devices"`
	RecentTests   []RecentTest `json:"recent_tests"`
}

// TrendPoint is one bucket of the test-volume/pass-rate trend series.
type TrendPoint struct {
	Period          string  `json:"period"`
	Count           int     `json:"count"`
	AveragePassRate float64 `json:"average_pass_rate"`
}

// QualityMetrics carries the backend's process-quality indicators.
type QualityMetrics struct {
	TotalTests     int     `json:"total_tests"`
	PassRate       float64 `json:"pass_rate"`
	CPK            float64 `json:"cpk"`
	PPM            float64 `json:"ppm"`
	FirstPassYield float64 `json:"first_pass_yield"`
}

// DistributionBin is one histogram bucket of a measured metric.
type DistributionBin struct {
	Range      string  `json:"range"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// StatsFilter narrows statistics queries by date range and device.
type StatsFilter struct {
	StartDate   string // ISO date
	EndDate     string // ISO date
	DeviceModel string
}

func (f StatsFilter) query() url.Values {
	q := url.Values{}
	if f.StartDate != "" {
		q.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("end_date", f.EndDate)
	}
	if f.DeviceModel != "" {
		q.Set("device_model", f.DeviceModel)
	}
	return q
}

// GetSummary returns the dashboard summary statistics.
func (c *Client) GetSummary(ctx context.Context, filter StatsFilter) (*Summary, error) {
	var s Summary
	if err := c.get(ctx, "/api/v1/statistics/summary", filter.query(), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetRealtime returns the live-screen statistics.
func (c *Client) GetRealtime(ctx context.Context) (*Realtime, error) {
	var r Realtime
	if err := c.get(ctx, "/api/v1/statistics/realtime", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetTrends returns trend buckets for the given period granularity.
func (c *Client) GetTrends(ctx context.Context, period string, days int, deviceModel string) ([]TrendPoint, error) {
	q := url.Values{}
	q.Set("period", period)
	q.Set("days", strconv.Itoa(days))
	if deviceModel != "" {
		q.Set("device_model", deviceModel)
	}

	var points []TrendPoint
	if err := c.get(ctx, "/api/v1/statistics/trends", q, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// GetQualityMetrics returns CPK/PPM/pass-rate quality indicators.
func (c *Client) GetQualityMetrics(ctx context.Context, filter StatsFilter) (*QualityMetrics, error) {
	var m QualityMetrics
	if err := c.get(ctx, "/api/v1/statistics/quality-metrics", filter.query(), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetDistribution returns the histogram of one measured metric.
func (c *Client) GetDistribution(ctx context.Context, metric string, bins int, filter StatsFilter) ([]DistributionBin, error) {
	q := filter.query()
	q.Set("metric", metric)
	q.Set("bins", strconv.Itoa(bins))

	var result []DistributionBin
	if err := c.get(ctx, "/api/v1/statistics/distribution", q, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ExportStatistics streams an export in the given format to w.
func (c *Client) ExportStatistics(ctx context.Context, format string, filter StatsFilter, includeDetails bool, w io.Writer) error {
	q := filter.query()
	q.Set("format", format)
	if includeDetails {
		q.Set("include_details", "true")
	}
	return c.download(ctx, "/api/v1/statistics/export", q, w)
}
