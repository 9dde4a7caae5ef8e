// report.go implements "pvlab report", a digest of the local event log.
package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pvlab-dev/pvlab/internal/log"
)

var reportTail int

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize recent console activity from the event log",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().IntVarP(&reportTail, "tail", "n", 20, "Number of recent events to show")
}

func runReport(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolving home directory: %w", err)
	}

	logger, err := log.NewLogger(home)
	if err != nil {
		return err
	}

	events, err := logger.ReadAll()
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No activity recorded yet.")
		return nil
	}

	counts := map[string]int{}
	for _, e := range events {
		counts[e.Event]++
	}

	fmt.Printf("Console Activity (%d events)\n\n", len(events))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EVENT\tCOUNT")
	for event, n := range counts {
		fmt.Fprintf(w, "%s\t%d\n", event, n)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	tail := events
	if len(tail) > reportTail {
		tail = tail[len(tail)-reportTail:]
	}

	fmt.Printf("\nLast %d events:\n", len(tail))
	for _, e := range tail {
		line := fmt.Sprintf("  %s  %-18s", e.Time.Local().Format("01-02 15:04:05"), e.Event)
		switch {
		case e.FileName != "":
			line += "  " + e.FileName
		case e.User != "":
			line += "  " + e.User
		case e.JobID != "":
			line += "  job " + e.JobID
		case e.Key != "":
			line += "  " + e.Key
		}
		if e.Error != "" {
			line += "  (" + e.Error + ")"
		}
		fmt.Println(line)
	}
	return nil
}
