// stats.go implements "pvlab stats" subcommands: the dashboard summary
// in plain text and the export download.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pvlab-dev/pvlab/internal/api"
	"github.com/pvlab-dev/pvlab/internal/log"
	"github.com/pvlab-dev/pvlab/internal/stats"
)

var statsFlags struct {
	start   string
	end     string
	device  string
	format  string
	out     string
	details bool
	metric  string
	bins    int
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Statistics summaries and exports",
}

var statsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the dashboard summary",
	RunE:  runStatsSummary,
}

var statsQualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Show process quality metrics",
	RunE:  runStatsQuality,
}

var statsDistributionCmd = &cobra.Command{
	Use:   "distribution",
	Short: "Show the histogram of a measured metric",
	RunE:  runStatsDistribution,
}

var statsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download a statistics export",
	RunE:  runStatsExport,
}

func init() {
	for _, cmd := range []*cobra.Command{statsSummaryCmd, statsQualityCmd, statsDistributionCmd, statsExportCmd} {
		cmd.Flags().StringVar(&statsFlags.start, "start", "", "Start date (YYYY-MM-DD)")
		cmd.Flags().StringVar(&statsFlags.end, "end", "", "End date (YYYY-MM-DD)")
		cmd.Flags().StringVar(&statsFlags.device, "device", "", "Filter by device model")
	}
	statsExportCmd.Flags().StringVar(&statsFlags.format, "format", "", "Export format: json, csv or excel")
	statsExportCmd.Flags().StringVarP(&statsFlags.out, "output", "o", "", "Output file (default derived from format)")
	statsExportCmd.Flags().BoolVar(&statsFlags.details, "details", false, "Include per-record detail rows")
	statsDistributionCmd.Flags().StringVar(&statsFlags.metric, "metric", "voltage", "Measured metric: voltage, current or power")
	statsDistributionCmd.Flags().IntVar(&statsFlags.bins, "bins", 20, "Number of histogram buckets")

	statsCmd.AddCommand(statsSummaryCmd)
	statsCmd.AddCommand(statsQualityCmd)
	statsCmd.AddCommand(statsDistributionCmd)
	statsCmd.AddCommand(statsExportCmd)
}

func statsFilter() api.StatsFilter {
	return api.StatsFilter{
		StartDate:   statsFlags.start,
		EndDate:     statsFlags.end,
		DeviceModel: statsFlags.device,
	}
}

func runStatsSummary(cmd *cobra.Command, args []string) error {
	c, err := newConsole()
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.requireAuth(); err != nil {
		return err
	}

	summary, err := c.stats.Summary(context.Background(), statsFilter())
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(summary)
	}

	fmt.Println("Test Lab Summary")
	fmt.Println()
	fmt.Printf("  Total tests:    %s\n", stats.FormatCount(summary.TotalCount))
	fmt.Printf("  Today:          %s\n", stats.FormatCount(summary.TodayCount))
	fmt.Printf("  This week:      %s\n", stats.FormatCount(summary.WeekCount))
	fmt.Printf("  This month:     %s\n", stats.FormatCount(summary.MonthCount))
	fmt.Printf("  Pass / fail:    %s / %s\n",
		stats.FormatCount(summary.PassCount), stats.FormatCount(summary.FailCount))
	fmt.Printf("  Avg pass rate:  %s\n", stats.FormatPercent(summary.AveragePassRate))

	if len(summary.DeviceDistribution) > 0 {
		fmt.Println()
		fmt.Println("  Tests by device:")
		for model, count := range summary.DeviceDistribution {
			fmt.Printf("    %-20s %s\n", model, stats.FormatCount(count))
		}
	}
	return nil
}

func runStatsQuality(cmd *cobra.Command, args []string) error {
	c, err := newConsole()
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.requireAuth(); err != nil {
		return err
	}

	m, err := c.stats.Quality(context.Background(), statsFilter())
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(m)
	}

	fmt.Println("Process Quality")
	fmt.Println()
	fmt.Printf("  Total tests:       %s\n", stats.FormatCount(m.TotalTests))
	fmt.Printf("  Pass rate:         %s\n", stats.FormatPercent(m.PassRate))
	fmt.Printf("  Cpk:               %s\n", stats.FormatCpk(m.CPK))
	fmt.Printf("  Defects (PPM):     %s\n", stats.FormatPPM(m.PPM))
	fmt.Printf("  First-pass yield:  %s\n", stats.FormatPercent(m.FirstPassYield))
	return nil
}

func runStatsDistribution(cmd *cobra.Command, args []string) error {
	c, err := newConsole()
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.requireAuth(); err != nil {
		return err
	}

	bins, err := c.stats.Distribution(context.Background(), statsFlags.metric, statsFlags.bins, statsFilter())
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(bins)
	}

	if len(bins) == 0 {
		fmt.Println("No measurements in range.")
		return nil
	}

	// Scale the bars to the largest bucket.
	maxCount := 0
	for _, b := range bins {
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}

	fmt.Printf("Distribution of %s\n\n", statsFlags.metric)
	for _, b := range bins {
		width := 0
		if maxCount > 0 {
			width = b.Count * 40 / maxCount
		}
		fmt.Printf("  %-16s %-40s %6s  %s\n",
			b.Range,
			strings.Repeat("█", width),
			stats.FormatCount(b.Count),
			stats.FormatPercent(b.Percentage),
		)
	}
	return nil
}

func runStatsExport(cmd *cobra.Command, args []string) error {
	c, err := newConsole()
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.requireAuth(); err != nil {
		return err
	}

	format := statsFlags.format
	if format == "" {
		format = c.cfg.Export.Format
	}

	out := statsFlags.out
	if out == "" {
		out = fmt.Sprintf("statistics-%s.%s", time.Now().Format("20060102-150405"), exportExt(format))
		if c.cfg.Export.Dir != "" {
			out = filepath.Join(c.cfg.Export.Dir, out)
		}
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	if err := c.stats.Export(context.Background(), format, statsFilter(), statsFlags.details, f); err != nil {
		_ = os.Remove(out)
		return err
	}

	_ = c.logger.Append(log.LogEvent{
		Event:    log.EventStatsExported,
		FileName: out,
		Data:     map[string]any{"format": format},
	})

	fmt.Printf("Exported statistics to %s\n", out)
	return nil
}

func exportExt(format string) string {
	switch format {
	case "excel":
		return "xlsx"
	case "csv":
		return "csv"
	default:
		return "json"
	}
}
