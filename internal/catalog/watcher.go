package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/logsift/logsift/internal/config"
	"github.com/logsift/logsift/internal/logging"
)

// ReloadCallback receives the freshly loaded registry when the watched
// catalog file changes. The callback typically swaps the registry into the
// consuming matcher. A callback error is logged and the watcher keeps
// watching with the previous catalog.
type ReloadCallback func(reg *Registry) error

// WatcherConfig holds configuration for a catalog file watcher.
type WatcherConfig struct {
	// Path is the catalog file to watch. Format is chosen by extension:
	// .json loads the readable form, anything else the binary form.
	Path string

	// Matcher is the engine configuration each reloaded registry is built
	// with.
	Matcher config.MatcherConfig

	// Debounce coalesces bursts of file change events (editor save
	// sequences, atomic-rename pairs) into a single reload. Default 500ms.
	Debounce time.Duration
}

// Watcher watches a catalog file and rebuilds a registry when it changes.
// Reload failures never tear down the watcher: the previous registry stays
// current until a load succeeds.
type Watcher struct {
	cfg      WatcherConfig
	callback ReloadCallback
	cancel   context.CancelFunc
	stopped  chan struct{}
	logger   *logging.Logger

	mu            sync.Mutex
	debounceTimer *time.Timer
}

// NewWatcher creates a watcher for the given catalog file.
func NewWatcher(cfg WatcherConfig, callback ReloadCallback) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("watcher path cannot be empty")
	}
	if callback == nil {
		return nil, fmt.Errorf("watcher callback cannot be nil")
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	return &Watcher{
		cfg:      cfg,
		callback: callback,
		stopped:  make(chan struct{}),
		logger:   logging.GetLogger("catalog.watcher"),
	}, nil
}

// LoadCatalogFile loads a catalog with the format chosen by file
// extension: .json is the readable form, anything else binary.
func LoadCatalogFile(path string, cfg config.MatcherConfig) (*Registry, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadReadable(path, cfg)
	}
	return LoadBinary(path, cfg)
}

// Start loads the catalog once, hands it to the callback, and begins
// watching for changes. Returns an error if the initial load or callback
// fails; after that, reload failures only log.
func (w *Watcher) Start(ctx context.Context) error {
	initial, err := LoadCatalogFile(w.cfg.Path, w.cfg.Matcher)
	if err != nil {
		return fmt.Errorf("failed to load initial catalog: %w", err)
	}
	if err := w.callback(initial); err != nil {
		return fmt.Errorf("initial catalog callback failed: %w", err)
	}

	w.logger.InfoWithFields("watching catalog",
		logging.Field("path", w.cfg.Path),
		logging.Field("templates", initial.Snapshot().Len()),
	)

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	go w.watchLoop(watchCtx)
	return nil
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.ErrorWithErr("failed to create file watcher", err)
		return
	}
	defer watcher.Close()

	// Watch the directory rather than the file: atomic saves replace the
	// inode, and a watch on the old inode goes quiet after the first
	// rename.
	dir := filepath.Dir(w.cfg.Path)
	if err := watcher.Add(dir); err != nil {
		w.logger.ErrorWithErr("failed to watch catalog directory", err)
		return
	}

	base := filepath.Base(w.cfg.Path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.scheduleReload()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.ErrorWithErr("watcher error", err)
		}
	}
}

// scheduleReload resets the debounce timer so a burst of change events
// triggers a single reload.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.cfg.Debounce, w.reload)
}

func (w *Watcher) reload() {
	reg, err := LoadCatalogFile(w.cfg.Path, w.cfg.Matcher)
	if err != nil {
		w.logger.ErrorWithErr("failed to reload catalog (keeping previous)", err)
		return
	}
	if err := w.callback(reg); err != nil {
		w.logger.ErrorWithErr("catalog reload callback error", err)
		return
	}
	w.logger.InfoWithFields("catalog reloaded",
		logging.Field("path", w.cfg.Path),
		logging.Field("templates", reg.Snapshot().Len()),
	)
}

// Stop cancels the watch loop and waits for it to exit.
func (w *Watcher) Stop() error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	select {
	case <-w.stopped:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for watcher to stop")
	}
}
