// Package stats reads the statistics endpoints through the query cache
// and projects the numbers into display form. Each endpoint gets its own
// cache key and staleness window matched to how fast the underlying data
// moves: the live screen churns every few seconds, quality metrics barely
// move within an hour.
package stats

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/pvlab-dev/pvlab/internal/api"
	"github.com/pvlab-dev/pvlab/internal/cache"
)

// Cache keys. Parameterised reads append their query string so
// differently-filtered views never collide.
const (
	SummaryKey      = "stats/summary"
	RealtimeKey     = "stats/realtime"
	TrendsKey       = "stats/trends"
	QualityKey      = "stats/quality"
	DistributionKey = "stats/distribution"
)

// Staleness windows per endpoint.
const (
	summaryTTL      = 30 * time.Second
	realtimeTTL     = 5 * time.Second
	trendsTTL       = 60 * time.Second
	qualityTTL      = 5 * time.Minute
	distributionTTL = 60 * time.Second
)

// Service coordinates the gateway and the query cache for statistics.
type Service struct {
	client *api.Client
	cache  *cache.Cache
}

// NewService creates a statistics Service.
func NewService(client *api.Client, c *cache.Cache) *Service {
	return &Service{client: client, cache: c}
}

// Summary returns the dashboard summary through the cache.
func (s *Service) Summary(ctx context.Context, f api.StatsFilter) (*api.Summary, error) {
	key := filterKey(SummaryKey, f)
	v, err := s.cache.Read(ctx, key, func(ctx context.Context) (any, error) {
		return s.client.GetSummary(ctx, f)
	}, cache.Options{TTL: summaryTTL})
	if err != nil {
		return nil, err
	}
	return v.(*api.Summary), nil
}

// Realtime returns the live screen's snapshot through the cache.
func (s *Service) Realtime(ctx context.Context) (*api.Realtime, error) {
	v, err := s.cache.Read(ctx, RealtimeKey, func(ctx context.Context) (any, error) {
		return s.client.GetRealtime(ctx)
	}, cache.Options{TTL: realtimeTTL})
	if err != nil {
		return nil, err
	}
	return v.(*api.Realtime), nil
}

// Trends returns the trend series through the cache. period is "day",
// "week" or "month"; days bounds the window.
func (s *Service) Trends(ctx context.Context, period string, days int, deviceModel string) ([]api.TrendPoint, error) {
	key := fmt.Sprintf("%s?period=%s&days=%d&device=%s",
		TrendsKey, period, days, url.QueryEscape(deviceModel))
	v, err := s.cache.Read(ctx, key, func(ctx context.Context) (any, error) {
		return s.client.GetTrends(ctx, period, days, deviceModel)
	}, cache.Options{TTL: trendsTTL})
	if err != nil {
		return nil, err
	}
	return v.([]api.TrendPoint), nil
}

// Quality returns the process quality metrics through the cache.
func (s *Service) Quality(ctx context.Context, f api.StatsFilter) (*api.QualityMetrics, error) {
	key := filterKey(QualityKey, f)
	v, err := s.cache.Read(ctx, key, func(ctx context.Context) (any, error) {
		return s.client.GetQualityMetrics(ctx, f)
	}, cache.Options{TTL: qualityTTL})
	if err != nil {
		return nil, err
	}
	return v.(*api.QualityMetrics), nil
}

// Distribution returns the histogram of one measured metric through the
// cache.
func (s *Service) Distribution(ctx context.Context, metric string, bins int, f api.StatsFilter) ([]api.DistributionBin, error) {
	key := filterKey(fmt.Sprintf("%s?metric=%s&bins=%d", DistributionKey, metric, bins), f)
	v, err := s.cache.Read(ctx, key, func(ctx context.Context) (any, error) {
		return s.client.GetDistribution(ctx, metric, bins, f)
	}, cache.Options{TTL: distributionTTL})
	if err != nil {
		return nil, err
	}
	return v.([]api.DistributionBin), nil
}

// Export streams a statistics export straight to w, bypassing the cache:
// downloads are one-shot and never re-rendered.
func (s *Service) Export(ctx context.Context, format string, f api.StatsFilter, includeDetails bool, w io.Writer) error {
	return s.client.ExportStatistics(ctx, format, f, includeDetails, w)
}

// WatchRealtime polls the live snapshot on the given interval (0 means
// 5s) until the subscription is stopped.
func (s *Service) WatchRealtime(interval time.Duration) *cache.Subscription {
	if interval <= 0 {
		interval = realtimeTTL
	}
	return s.cache.Subscribe(RealtimeKey, func(ctx context.Context) (any, error) {
		return s.client.GetRealtime(ctx)
	}, interval, cache.Options{TTL: realtimeTTL})
}

// WatchSummary polls the dashboard summary on the given interval (0
// means 30s) until the subscription is stopped.
func (s *Service) WatchSummary(f api.StatsFilter, interval time.Duration) *cache.Subscription {
	if interval <= 0 {
		interval = summaryTTL
	}
	key := filterKey(SummaryKey, f)
	return s.cache.Subscribe(key, func(ctx context.Context) (any, error) {
		return s.client.GetSummary(ctx, f)
	}, interval, cache.Options{TTL: summaryTTL})
}

func filterKey(base string, f api.StatsFilter) string {
	q := url.Values{}
	if f.StartDate != "" {
		q.Set("start", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("end", f.EndDate)
	}
	if f.DeviceModel != "" {
		q.Set("device", f.DeviceModel)
	}
	if len(q) == 0 {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}
