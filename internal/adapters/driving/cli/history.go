package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfcut/internal/core/domain"
	"github.com/custodia-labs/pdfcut/internal/core/services"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past split runs",
	Long:  `List, inspect, or delete runs recorded in the history database.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and its parts",
	Long:  `Show a run and its parts. A unique prefix of at least 8 characters is accepted.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a run from history",
	Long:  `Delete a run from history. Parts already written are left on disk.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

// historyLimit is a flag for the list command.
var historyLimit int

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errNotConfigured("history")
	}

	runs, err := historyService.List(cmd.Context(), historyLimit)
	if err != nil {
		return historyError(err)
	}

	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	cmd.Printf("%-8s  %-16s  %-9s  %5s  %5s  %s\n", "ID", "STARTED", "STATUS", "PAGES", "PARTS", "INPUT")
	for i := range runs {
		run := &runs[i]
		parts := strconv.Itoa(len(run.Fragments))
		if run.OversizedCount() > 0 {
			parts += "!"
		}
		status := string(run.Status)
		if run.DryRun {
			status += "*"
		}
		cmd.Printf("%-8s  %-16s  %-9s  %5d  %5s  %s\n",
			shortID(run.ID),
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			status,
			run.PageCount,
			parts,
			filepath.Base(run.Input))
	}
	cmd.Println()
	cmd.Println("! has oversized parts, * dry run")
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errNotConfigured("history")
	}

	run, err := historyService.Get(cmd.Context(), args[0])
	if err != nil {
		return historyError(err)
	}

	cmd.Printf("Run:      %s\n", run.ID)
	cmd.Printf("Input:    %s\n", run.Input)
	cmd.Printf("Limit:    %s (%d bytes)\n", services.FormatSizeLimit(run.Limit), int64(run.Limit))
	cmd.Printf("Pages:    %d\n", run.PageCount)
	cmd.Printf("Status:   %s\n", run.Status)
	if run.DryRun {
		cmd.Println("Dry run:  yes")
	}
	if run.Error != "" {
		cmd.Printf("Error:    %s\n", run.Error)
	}
	cmd.Printf("Started:  %s\n", run.StartedAt.Local().Format(time.RFC3339))
	if !run.FinishedAt.IsZero() {
		cmd.Printf("Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}

	if len(run.Fragments) == 0 {
		return nil
	}
	cmd.Printf("\nParts (%d, %s total):\n", len(run.Fragments), humanize.IBytes(uint64(run.TotalSize())))
	p := newProgressPrinter(cmd.OutOrStdout())
	for _, f := range run.Fragments {
		cmd.Println(p.fragmentLine(f))
		if f.Digest != "" {
			cmd.Printf("            blake3 %s\n", f.Digest)
		}
	}
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errNotConfigured("history")
	}

	if err := historyService.Delete(cmd.Context(), args[0]); err != nil {
		return historyError(err)
	}
	cmd.Printf("Deleted run %s\n", args[0])
	return nil
}

// historyError adds a hint when history is switched off.
func historyError(err error) error {
	if errors.Is(err, domain.ErrHistoryDisabled) {
		return fmt.Errorf("%w (enable with 'pdfcut config set history.enabled true')", err)
	}
	return err
}

// shortID returns the first 8 characters of a run ID.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
