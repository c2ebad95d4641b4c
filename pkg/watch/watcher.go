package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/panbanda/fitpaper/pkg/config"
	"github.com/panbanda/fitpaper/pkg/dataset"
)

// DefaultDebounce is how long a file must stay unchanged before it is refitted.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors dataset files for changes and triggers a refit.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	debounce  time.Duration
	path      string
	// file is set when a single dataset file is watched.
	file     string
	callback func(path string)
	mu       sync.Mutex
	pending  map[string]time.Time
}

// NewWatcher creates a watcher for a directory tree or a single dataset file.
func NewWatcher(path string, cfg *config.Config, debounce time.Duration) (*Watcher, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		debounce:  debounce,
		path:      path,
		pending:   make(map[string]time.Time),
	}
	if !info.IsDir() {
		w.file = filepath.Clean(path)
		w.path = filepath.Dir(path)
	}
	return w, nil
}

// SetCallback sets the function to call when a dataset file changes.
func (w *Watcher) SetCallback(cb func(path string)) {
	w.callback = cb
}

// addDirs registers root and every non-excluded directory below it.
func (w *Watcher) addDirs(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && slices.Contains(w.config.Exclude.Dirs, d.Name()) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// Start begins watching for file changes and blocks until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if w.file != "" {
		if err := w.fsWatcher.Add(w.path); err != nil {
			return err
		}
	} else if err := w.addDirs(w.path); err != nil {
		return err
	}

	target := w.path
	if w.file != "" {
		target = w.file
	}
	fmt.Fprintln(color.Error, color.CyanString("Watching for changes in %s...", target))
	fmt.Fprintln(color.Error, color.CyanString("Press Ctrl+C to stop"))
	fmt.Fprintln(color.Error)

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(color.Error, color.RedString("Watch error: %v", err))
		}
	}
}

// handleEvent processes a filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	path := event.Name

	// New subdirectories are watched too.
	if w.file == "" && event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !slices.Contains(w.config.Exclude.Dirs, info.Name()) {
				_ = w.addDirs(path)
			}
			return
		}
	}

	if !w.accepts(path) {
		return
	}

	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// accepts reports whether a changed path should trigger a refit.
func (w *Watcher) accepts(path string) bool {
	if w.file != "" {
		return filepath.Clean(path) == w.file
	}
	if w.config.ShouldExclude(path) {
		return false
	}
	return dataset.IsDatasetFile(path)
}

// processDebounced processes pending changes after debounce period.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

// processPending processes files that have been stable for the debounce period.
func (w *Watcher) processPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	var ready []string

	for path, lastMod := range w.pending {
		if now.Sub(lastMod) >= w.debounce {
			ready = append(ready, path)
		}
	}

	for _, path := range ready {
		delete(w.pending, path)
		if w.callback != nil {
			go w.runCallback(path)
		}
	}
}

// runCallback executes the callback for a changed file.
func (w *Watcher) runCallback(path string) {
	relPath, err := filepath.Rel(w.path, path)
	if err != nil {
		relPath = path
	}

	fmt.Fprintln(color.Error, color.YellowString("\nDataset changed: %s", relPath))
	fmt.Fprintln(color.Error, strings.Repeat("-", 40))

	w.callback(path)

	fmt.Println()
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedFiles returns the list of watched directories.
func (w *Watcher) WatchedFiles() []string {
	return w.fsWatcher.WatchList()
}
