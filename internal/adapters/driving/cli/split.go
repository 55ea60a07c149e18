package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfcut/internal/core/domain"
	"github.com/custodia-labs/pdfcut/internal/core/services"
)

// splitFlags holds the flags shared by root, split and watch.
type splitFlags struct {
	limit     string
	outputDir string
	scratch   string
	dryRun    bool
}

var splitCmd = &cobra.Command{
	Use:   "split <file.pdf>",
	Short: "Split a PDF into parts under a size limit",
	Long: `Split a PDF into consecutive parts, each at most --limit bytes when written.

Parts are named <name>_PART_<n>.pdf next to the input (or in --output-dir).
A single page that exceeds the limit on its own becomes
<name>_PART_<n>_OVERSIZED.pdf and splitting continues.

Sizes accept units: 4.8MiB, 10MB, 750KiB or a plain byte count.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSplit(cmd, args[0], &splitCmdFlags)
	},
}

var splitCmdFlags splitFlags

func init() {
	addSplitFlags(splitCmd, &splitCmdFlags)
	rootCmd.AddCommand(splitCmd)
}

// addSplitFlags registers the split flags on cmd.
func addSplitFlags(cmd *cobra.Command, f *splitFlags) {
	cmd.Flags().StringVarP(&f.limit, "limit", "l", "", "Maximum part size (default 4.8MiB or split.limit)")
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "Directory for parts (default: next to the input)")
	cmd.Flags().StringVar(&f.scratch, "scratch", "", "Measurement buffer: memory or disk")
	cmd.Flags().BoolVarP(&f.dryRun, "dry-run", "n", false, "Compute parts without writing files")
}

// resolveOptions layers flags over the configured settings.
func resolveOptions(cmd *cobra.Command, f *splitFlags) (domain.SplitOptions, error) {
	opts := domain.DefaultSplitOptions()
	if settingsService != nil {
		configured, err := settingsService.Get()
		if err != nil {
			return opts, fmt.Errorf("reading settings: %w", err)
		}
		opts = configured
	}

	flags := cmd.Flags()
	if flags.Changed("limit") {
		limit, err := services.ParseSizeLimit(f.limit)
		if err != nil {
			return opts, err
		}
		opts.Limit = limit
	}
	if flags.Changed("output-dir") {
		opts.OutputDir = f.outputDir
	}
	if flags.Changed("scratch") {
		kind := domain.ScratchKind(f.scratch)
		if !kind.IsValid() {
			return opts, fmt.Errorf("%w: --scratch must be memory or disk", domain.ErrInvalidInput)
		}
		opts.Scratch = kind
	}
	if noHistory {
		opts.History = false
	}
	return opts, nil
}

func runSplit(cmd *cobra.Command, input string, f *splitFlags) error {
	if splitService == nil {
		return errNotConfigured("split")
	}

	opts, err := resolveOptions(cmd, f)
	if err != nil {
		return err
	}

	return splitOne(cmd, input, opts, f.dryRun)
}

// splitOne splits input and prints progress and a summary.
func splitOne(cmd *cobra.Command, input string, opts domain.SplitOptions, dryRun bool) error {
	p := newProgressPrinter(cmd.OutOrStdout())
	p.start(input, opts.Limit, dryRun)

	began := time.Now()
	run, err := splitService.Split(cmd.Context(), domain.SplitRequest{
		Input:    input,
		Options:  opts,
		DryRun:   dryRun,
		Progress: p.fragment,
	})
	if err != nil {
		return fmt.Errorf("split %s: %w", input, err)
	}

	p.summary(run, time.Since(began))
	return nil
}
