package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfcut/internal/core/domain"
	"github.com/custodia-labs/pdfcut/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Split every PDF that lands in a directory",
	Long: `Watch a directory and split each PDF once it has stopped changing for the
settle interval. Hidden files and pdfcut's own parts are ignored.

A failed split is reported and watching continues. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchFlags  splitFlags
	watchSettle time.Duration
)

func init() {
	addSplitFlags(watchCmd, &watchFlags)
	watchCmd.Flags().DurationVar(&watchSettle, "settle", 0, "Quiet period before a file is split (default 2s or watch.settle)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if splitService == nil {
		return errNotConfigured("split")
	}
	if watcherFactory == nil {
		return errNotConfigured("watch")
	}

	opts, err := resolveOptions(cmd, &watchFlags)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("settle") {
		if watchSettle <= 0 {
			return fmt.Errorf("%w: --settle must be positive", domain.ErrInvalidInput)
		}
		opts.WatchSettle = watchSettle
	}

	dir := args[0]
	w := watcherFactory(dir, opts.WatchSettle)
	defer w.Close()

	ctx := cmd.Context()
	paths, err := w.Watch(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("Watching %s (settle %s). Press Ctrl-C to stop.\n", dir, opts.WatchSettle)
	splits, failures := 0, 0
	for path := range paths {
		if err := splitOne(cmd, path, opts, watchFlags.dryRun); err != nil {
			failures++
			logger.Error("%v", err)
			continue
		}
		splits++
	}

	cmd.Printf("Stopped watching %s: %d split, %d failed.\n", dir, splits, failures)
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
