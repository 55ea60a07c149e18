// Package filesystem watches a local directory for PDFs to split.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/pdfcut/internal/logger"
)

// DefaultSettle is how long a file must stay unchanged before it is emitted.
const DefaultSettle = 2 * time.Second

// minTick bounds how often pending files are checked.
const minTick = 10 * time.Millisecond

// Watcher reports PDFs created or rewritten in a directory. A path is
// emitted once no event has touched it for the settle interval, so files
// still being copied in are not picked up half-written.
type Watcher struct {
	root   string
	settle time.Duration
	ignore func(path string) bool
	now    func() time.Time

	mu     sync.Mutex
	fsw    *fsnotify.Watcher
	closed bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle sets the quiet period. Non-positive values keep the default.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithIgnore skips paths for which fn returns true, in addition to hidden
// and non-PDF files.
func WithIgnore(fn func(path string) bool) Option {
	return func(w *Watcher) { w.ignore = fn }
}

// New creates a watcher for root. Watching starts with Watch.
func New(root string, opts ...Option) *Watcher {
	w := &Watcher{
		root:   root,
		settle: DefaultSettle,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Settle returns the quiet period.
func (w *Watcher) Settle() time.Duration {
	return w.settle
}

// Watch starts watching and returns a channel of settled PDF paths. The
// channel is closed when ctx is cancelled or the watcher is closed.
// Subdirectories are not watched.
func (w *Watcher) Watch(ctx context.Context) (<-chan string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, errors.New("watcher closed")
	}
	if w.fsw != nil {
		return nil, errors.New("watcher already started")
	}

	info, err := os.Stat(w.root)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", w.root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(w.root); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", w.root, err)
	}
	w.fsw = fsw

	out := make(chan string, 16)
	go w.run(ctx, fsw, out)
	return out, nil
}

// Close stops watching. Calling Close more than once is safe.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, out chan<- string) {
	defer close(out)

	tick := w.settle / 4
	if tick < minTick {
		tick = minTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	pending := make(map[string]time.Time)
	logger.Debug("Watching %s (settle %s)", w.root, w.settle)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			change := w.handleFsEvent(event)
			if change == nil {
				continue
			}
			if change.removed {
				delete(pending, change.path)
			} else {
				pending[change.path] = w.now()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watching %s: %v", w.root, err)

		case <-ticker.C:
			for _, path := range w.due(pending) {
				select {
				case out <- path:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// pendingChange is the effect of one fsnotify event on the pending set.
type pendingChange struct {
	path    string
	removed bool
}

// handleFsEvent maps an event to a pending-set update, or nil when the
// event is irrelevant.
func (w *Watcher) handleFsEvent(event fsnotify.Event) *pendingChange {
	if w.skip(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &pendingChange{path: event.Name, removed: true}

	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		return &pendingChange{path: event.Name}
	}
	return nil
}

// due removes and returns, in path order, the pending files that have been
// quiet for the settle interval and still exist.
func (w *Watcher) due(pending map[string]time.Time) []string {
	now := w.now()
	var ready []string
	for path, last := range pending {
		if now.Sub(last) < w.settle {
			continue
		}
		delete(pending, path)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		ready = append(ready, path)
	}
	sort.Strings(ready)
	return ready
}

// skip reports whether path is never a split candidate.
func (w *Watcher) skip(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	if isHidden(rel) || !isPDF(path) {
		return true
	}
	return w.ignore != nil && w.ignore(path)
}

// isPDF reports whether path has a .pdf extension, in any case.
func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
