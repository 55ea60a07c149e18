// Package cli implements the pdfcut command line.
package cli

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfcut/internal/core/ports/driving"
	"github.com/custodia-labs/pdfcut/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// Global flags.
var (
	verbose   bool
	noHistory bool
	configDir string
)

// Services used by the commands. Set by Wire before any command runs;
// tests assign them directly.
var (
	splitService    driving.SplitService
	historyService  driving.HistoryService
	settingsService driving.SettingsService
	watcherFactory  WatcherFactory
)

// PathWatcher delivers settled input paths until its context ends.
type PathWatcher interface {
	Watch(ctx context.Context) (<-chan string, error)
	Close() error
}

// WatcherFactory creates a watcher for dir.
type WatcherFactory func(dir string, settle time.Duration) PathWatcher

// Options carries the global flags that affect wiring.
type Options struct {
	ConfigDir string
	NoHistory bool
}

// Services is what a Wiring provides.
type Services struct {
	Split    driving.SplitService
	History  driving.HistoryService
	Settings driving.SettingsService
	Watchers WatcherFactory
}

// Wiring builds services once flags are parsed. The returned function
// releases what it opened, such as the history database.
type Wiring func(opts Options) (Services, func() error, error)

var (
	wiring  Wiring
	release func() error
)

var rootCmd = &cobra.Command{
	Use:   "pdfcut [file.pdf]",
	Short: "Split PDFs into parts under a size limit",
	Long: `pdfcut splits a PDF into consecutive parts whose size stays under a limit,
measuring each candidate part exactly as it will be written.

A page that is larger than the limit on its own is written as a separate
part marked _OVERSIZED.

Running pdfcut with a file is the same as 'pdfcut split <file>'.`,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return teardown()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runSplit(cmd, args[0], &rootSplitFlags)
	},
}

// rootSplitFlags backs the split flags on the root command.
var rootSplitFlags splitFlags

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug output to stderr")
	rootCmd.PersistentFlags().BoolVar(&noHistory, "no-history", false, "Do not record runs in the history database")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default ~/.pdfcut)")

	addSplitFlags(rootCmd, &rootSplitFlags)
}

// setup applies global flags and wires services on first use.
func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if cmd == versionCmd || wiring == nil || splitService != nil {
		return nil
	}

	svc, closeFn, err := wiring(Options{ConfigDir: configDir, NoHistory: noHistory})
	if err != nil {
		return err
	}
	splitService = svc.Split
	historyService = svc.History
	settingsService = svc.Settings
	watcherFactory = svc.Watchers
	release = closeFn
	return nil
}

func teardown() error {
	if release == nil {
		return nil
	}
	fn := release
	release = nil
	return fn()
}

// Execute runs the root command with wire providing the services.
func Execute(ctx context.Context, wire Wiring) error {
	wiring = wire
	rootCmd.SetOut(os.Stdout)
	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRunE is skipped when a command fails.
	if cerr := teardown(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// errNotConfigured is returned when a command runs without its service.
func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}
