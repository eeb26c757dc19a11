package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"deployable-sql/internal/layout"
	"deployable-sql/internal/schema"
)

// Watcher re-syncs object files as they are written.
type Watcher struct {
	deployer *Deployer
	debounce time.Duration
	logger   *slog.Logger

	// OnReady is called once every folder is being watched.
	OnReady func()
	// OnSync is called after each sync triggered by a change.
	OnSync func(schema.SyncResult, error)
}

// NewWatcher batches changes arriving within debounce of each other.
func NewWatcher(d *Deployer, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{deployer: d, debounce: debounce, logger: logger}
}

// Run watches every object folder under the deployer's root until ctx is done.
// Sync failures are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	watched := 0
	for _, folder := range layout.Folders {
		for _, alias := range kindFolders(folder) {
			dir := filepath.Join(w.deployer.Root(), alias)
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				continue
			}
			if err := fw.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			w.logger.Debug("watching", "folder", dir)
			watched++
		}
	}
	if watched == 0 {
		return fmt.Errorf("no object folders found under %s", w.deployer.Root())
	}
	if w.OnReady != nil {
		w.OnReady()
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if path, ok := w.relevant(event); ok {
				pending[path] = struct{}{}
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)

			for _, p := range paths {
				res, err := w.deployer.SyncFile(ctx, p)
				if w.OnSync != nil {
					w.OnSync(res, err)
				}
			}
		}
	}
}

// relevant keeps writes and creates of files the folder's kind accepts and
// returns them relative to the deployer's root.
func (w *Watcher) relevant(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return "", false
	}
	kind, ok := schema.KindForFolder(filepath.Base(filepath.Dir(event.Name)))
	if !ok || !layout.Accepts(kind, filepath.Base(event.Name)) {
		return "", false
	}
	// events carry the root prefix; the classifier wants folder/file
	rel, err := filepath.Rel(w.deployer.Root(), event.Name)
	if err != nil {
		return event.Name, true
	}
	return filepath.ToSlash(rel), true
}

// kindFolders expands a canonical folder to every folder name of its kind.
func kindFolders(folder string) []string {
	kind, ok := schema.KindForFolder(folder)
	if !ok {
		return nil
	}
	return kind.Folders()
}
