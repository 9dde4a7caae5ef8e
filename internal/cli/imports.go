// imports.go implements "pvlab imports" subcommands: upload, list,
// retry, and watching a job to its terminal state.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pvlab-dev/pvlab/internal/importer"
	"github.com/pvlab-dev/pvlab/internal/log"
	"github.com/pvlab-dev/pvlab/internal/stats"
	"github.com/pvlab-dev/pvlab/internal/ui"
)

var importWatch bool

var importsCmd = &cobra.Command{
	Use:   "imports",
	Short: "Upload spreadsheets and track import jobs",
}

var importsUploadCmd = &cobra.Command{
	Use:   "upload <file.xlsx>",
	Short: "Upload a spreadsheet for import",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportsUpload,
}

var importsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List import jobs, newest first",
	RunE:  runImportsList,
}

var importsRetryCmd = &cobra.Command{
	Use:   "retry <id>",
	Short: "Restart a failed or partial import job",
	RunE:  runImportsRetry,
	Args:  cobra.ExactArgs(1),
}

var importsWatchCmd = &cobra.Command{
	Use:   "watch <id>",
	Short: "Follow an import job until it finishes",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportsWatch,
}

func init() {
	importsUploadCmd.Flags().BoolVarP(&importWatch, "watch", "w", false, "Follow the job after uploading")

	importsCmd.AddCommand(importsUploadCmd)
	importsCmd.AddCommand(importsListCmd)
	importsCmd.AddCommand(importsRetryCmd)
	importsCmd.AddCommand(importsWatchCmd)
}

func runImportsUpload(cmd *cobra.Command, args []string) error {
	c, err := newConsole()
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.requireAuth(); err != nil {
		return err
	}

	job, err := c.imports.Upload(context.Background(), args[0])
	if err != nil {
		return err
	}

	_ = c.logger.Append(log.LogEvent{
		Event:    log.EventImportUploaded,
		JobID:    job.ID,
		FileName: job.FileName,
	})

	fmt.Printf("Accepted %s (%s), job %s\n",
		job.FileName, stats.FormatBytes(job.FileSize), job.ID)

	if !importWatch {
		fmt.Printf("Track it with: pvlab imports watch %s\n", job.ID)
		return nil
	}
	return watchJob(c, job.ID)
}

func runImportsList(cmd *cobra.Command, args []string) error {
	c, err := newConsole()
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.requireAuth(); err != nil {
		return err
	}

	jobs, err := c.imports.List(context.Background())
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(jobs)
	}

	if len(jobs) == 0 {
		fmt.Println("No import jobs yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILE\tSTATUS\tRECORDS\tFAILED\tUPLOADED")
	for _, j := range jobs {
		status := j.Status
		if importer.CompletedWithFailures(j) {
			status = "completed*" // finished, but some rows were dropped
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%d\t%s\n",
			j.ID,
			j.FileName,
			status,
			j.SuccessRecords, j.TotalRecords,
			j.FailedRecords,
			stats.FormatTestTime(j.CreatedAt),
		)
	}
	return w.Flush()
}

func runImportsRetry(cmd *cobra.Command, args []string) error {
	c, err := newConsole()
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.requireAuth(); err != nil {
		return err
	}

	id := args[0]
	if err := c.imports.Retry(context.Background(), id); err != nil {
		return err
	}

	_ = c.logger.Append(log.LogEvent{
		Event: log.EventImportRetried,
		JobID: id,
	})

	fmt.Printf("Retrying job %s\n", id)
	if importWatch {
		return watchJob(c, id)
	}
	return nil
}

func runImportsWatch(cmd *cobra.Command, args []string) error {
	c, err := newConsole()
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.requireAuth(); err != nil {
		return err
	}
	return watchJob(c, args[0])
}

// watchJob renders job progress until a terminal status arrives.
func watchJob(c *console, id string) error {
	// Resolve the job up front so an unknown id fails immediately
	// instead of polling forever.
	initial, err := c.client.GetImport(context.Background(), id)
	if err != nil {
		return err
	}

	display := ui.NewJobDisplay(os.Stdout)
	display.Render(*initial)
	if importer.IsTerminal(initial.Status) {
		display.Done()
		return nil
	}

	interval := time.Duration(c.cfg.Cache.ImportPollSeconds) * time.Second
	watcher := c.imports.Watch(id, interval)
	defer watcher.Stop()

	for job := range watcher.Updates {
		display.Render(job)
		if importer.IsTerminal(job.Status) {
			_ = c.logger.Append(log.LogEvent{
				Event:   log.EventImportFinished,
				JobID:   job.ID,
				Status:  job.Status,
				Records: job.SuccessRecords,
				Failed:  job.FailedRecords,
			})
		}
	}
	display.Done()
	return nil
}
