// records.go implements "pvlab records" subcommands for browsing and
// pruning test records.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pvlab-dev/pvlab/internal/api"
	"github.com/pvlab-dev/pvlab/internal/log"
	"github.com/pvlab-dev/pvlab/internal/stats"
)

var recordsFilter struct {
	device   string
	batch    string
	operator string
	status   string
	start    string
	end      string
	limit    int
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Browse and manage test records",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List test records",
	RunE:  runRecordsList,
}

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a test record",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordsDelete,
}

func init() {
	f := recordsListCmd.Flags()
	f.StringVar(&recordsFilter.device, "device", "", "Filter by device model")
	f.StringVar(&recordsFilter.batch, "batch", "", "Filter by batch number")
	f.StringVar(&recordsFilter.operator, "operator", "", "Filter by operator")
	f.StringVar(&recordsFilter.status, "status", "", "Filter by status (pass/fail)")
	f.StringVar(&recordsFilter.start, "start", "", "Start date (YYYY-MM-DD)")
	f.StringVar(&recordsFilter.end, "end", "", "End date (YYYY-MM-DD)")
	f.IntVar(&recordsFilter.limit, "limit", 50, "Maximum rows")

	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsDeleteCmd)
}

func runRecordsList(cmd *cobra.Command, args []string) error {
	c, err := newConsole()
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.requireAuth(); err != nil {
		return err
	}

	filter := api.RecordFilter{
		DeviceModel: recordsFilter.device,
		BatchNumber: recordsFilter.batch,
		Operator:    recordsFilter.operator,
		Status:      recordsFilter.status,
		StartDate:   recordsFilter.start,
		EndDate:     recordsFilter.end,
		Limit:       recordsFilter.limit,
	}

	records, err := c.client.ListRecords(context.Background(), filter)
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No records match.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILE\tDATE\tDEVICE\tBATCH\tSTATUS\tPASS RATE")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.FileName,
			stats.FormatTestTime(r.TestDate),
			r.DeviceModel,
			r.BatchNumber,
			r.Status,
			stats.FormatPassRate(r.PassRate),
		)
	}
	return w.Flush()
}

func runRecordsDelete(cmd *cobra.Command, args []string) error {
	c, err := newConsole()
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.requireAuth(); err != nil {
		return err
	}

	id := args[0]
	if err := c.client.DeleteRecord(context.Background(), id); err != nil {
		return err
	}

	// The record list and every aggregate derived from it are now stale.
	c.cache.InvalidatePrefix("records")
	c.cache.InvalidatePrefix("stats/")

	_ = c.logger.Append(log.LogEvent{
		Event: log.EventRecordDeleted,
		Data:  map[string]any{"record_id": id},
	})

	fmt.Printf("Deleted record %s\n", id)
	return nil
}
