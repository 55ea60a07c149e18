// Command pdfcut splits PDF documents into parts under a size limit.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/custodia-labs/pdfcut/internal/adapters/driven/config/file"
	"github.com/custodia-labs/pdfcut/internal/adapters/driven/pdf"
	"github.com/custodia-labs/pdfcut/internal/adapters/driven/scratch"
	"github.com/custodia-labs/pdfcut/internal/adapters/driven/sink/filesystem"
	"github.com/custodia-labs/pdfcut/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/pdfcut/internal/adapters/driving/cli"
	fswatch "github.com/custodia-labs/pdfcut/internal/connectors/filesystem"
	"github.com/custodia-labs/pdfcut/internal/core/ports/driven"
	"github.com/custodia-labs/pdfcut/internal/core/services"
	"github.com/custodia-labs/pdfcut/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, wire)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// wire builds the production services.
func wire(opts cli.Options) (cli.Services, func() error, error) {
	configDir := opts.ConfigDir
	if configDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return cli.Services{}, nil, fmt.Errorf("locating config directory: %w", err)
		}
		configDir = dir
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return cli.Services{}, nil, fmt.Errorf("loading config: %w", err)
	}
	settings := services.NewSettingsService(configStore)

	var (
		runStore driven.RunStore
		closeFn  = func() error { return nil }
	)
	if historyEnabled(settings, opts) {
		store, err := sqlite.NewStore(filepath.Join(configDir, "data"))
		if err != nil {
			return cli.Services{}, nil, fmt.Errorf("opening history: %w", err)
		}
		logger.Debug("History database: %s", store.Path())
		runStore = store.RunStore()
		closeFn = store.Close
	}

	return cli.Services{
		Split: services.NewSplitService(
			pdf.NewLoader(),
			filesystem.New(),
			runStore,
			scratch.Select,
		),
		History:  services.NewHistoryService(runStore),
		Settings: settings,
		Watchers: newWatcher,
	}, closeFn, nil
}

// historyEnabled reports whether runs should be recorded. A config file
// that fails to resolve leaves history on; the split reports the error.
func historyEnabled(settings *services.SettingsService, opts cli.Options) bool {
	if opts.NoHistory {
		return false
	}
	resolved, err := settings.Get()
	return err != nil || resolved.History
}

func newWatcher(dir string, settle time.Duration) cli.PathWatcher {
	return fswatch.New(dir,
		fswatch.WithSettle(settle),
		fswatch.WithIgnore(services.IsFragmentName),
	)
}
