package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridpage/pkg/page"
	"github.com/matzehuels/gridpage/pkg/pipeline"
)

// watchDebounce is how long a file must be quiet before it is repaired.
// Editors often write a file in several steps.
const watchDebounce = 300 * time.Millisecond

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [page.json...]",
		Short: "Repair page files whenever they change",
		Long: `Watch page files and repair each one when it is written: legacy pages
are migrated, unplaced blocks get a slot and overlapping blocks are moved.

A file is rewritten only if the repair changed it, so the watcher's own
writes settle after one round. Runs until interrupted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, cfg)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			w, err := newPageWatcher(runner, loggerFromContext(ctx), args)
			if err != nil {
				return err
			}
			printInfo("Watching %d page files (ctrl+c to stop)", len(args))
			return w.Run(ctx)
		},
	}
	return cmd
}

// pageWatcher repairs page files on change.
type pageWatcher struct {
	runner *pipeline.Runner
	logger *log.Logger
	paths  map[string]bool // absolute paths of watched files
	dirs   map[string]bool

	mu      sync.Mutex
	timers  map[string]*time.Timer
	repairs chan string // receives each repaired path; used by tests
}

func newPageWatcher(runner *pipeline.Runner, logger *log.Logger, files []string) (*pageWatcher, error) {
	w := &pageWatcher{
		runner: runner,
		logger: logger,
		paths:  make(map[string]bool),
		dirs:   make(map[string]bool),
		timers: make(map[string]*time.Timer),
	}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("bad path %q: %w", f, err)
		}
		w.paths[abs] = true
		w.dirs[filepath.Dir(abs)] = true
	}
	return w, nil
}

// Run repairs every file once, then watches until ctx is done.
//
// Directories are watched rather than files so that editors which replace
// a file by renaming a temporary one over it keep being followed.
func (w *pageWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	for dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	for path := range w.paths {
		w.repair(ctx, path)
	}

	defer w.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, _ := filepath.Abs(event.Name)
			if w.paths[abs] {
				w.schedule(ctx, abs)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// schedule repairs path once it has been quiet for watchDebounce.
func (w *pageWatcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(watchDebounce, func() {
		if ctx.Err() == nil {
			w.repair(ctx, path)
		}
	})
}

func (w *pageWatcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range w.timers {
		t.Stop()
	}
}

// repair rewrites the page at path if importing it changes anything.
// Unreadable files are logged and left alone; they are retried on the next
// write.
func (w *pageWatcher) repair(ctx context.Context, path string) {
	changed, err := repairPageFile(ctx, w.runner, path)
	switch {
	case err != nil:
		w.logger.Warn("cannot repair page", "file", path, "error", err)
	case changed:
		w.logger.Info("repaired page", "file", path)
	default:
		w.logger.Debug("page is clean", "file", path)
	}
	if w.repairs != nil && err == nil {
		w.repairs <- path
	}
}

// repairPageFile migrates, normalizes and resolves the page at path and
// writes it back when the layout or version changed.
func repairPageFile(ctx context.Context, runner *pipeline.Runner, path string) (bool, error) {
	doc, err := page.ImportJSON(path)
	if err != nil {
		return false, err
	}
	res, err := runner.Apply(ctx, doc, pipeline.Import{})
	if err != nil {
		return false, err
	}
	if !layoutChanged(doc, res.Document) {
		return false, nil
	}
	res.Document.Touch()
	if err := page.ExportJSON(res.Document, path); err != nil {
		return false, err
	}
	return true, nil
}

// layoutChanged reports whether the grid version or any block geometry
// differs between a and b.
func layoutChanged(a, b *page.Document) bool {
	if a.GridVersion != b.GridVersion || len(a.Blocks) != len(b.Blocks) {
		return true
	}
	for i := range a.Blocks {
		x, y := a.Blocks[i], b.Blocks[i]
		if x.ID != y.ID || x.Position() != y.Position() || x.ColSpan != y.ColSpan || x.RowSpan != y.RowSpan {
			return true
		}
	}
	return false
}
