package transform

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher evicts compiled scripts from a [Loader] as soon as their files
// change, so edits take effect without waiting for a modification time check.
type Watcher struct {
	watcher *fsnotify.Watcher
	loader  *Loader
	logger  *slog.Logger
}

// NewWatcher watches the directories containing the given script paths.
func NewWatcher(loader *Loader, logger *slog.Logger, scripts ...string) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create script watcher: %w", err)
	}
	seen := map[string]bool{}
	for _, script := range scripts {
		dir, err := filepath.Abs(filepath.Dir(script))
		if err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("failed to resolve script directory: %w", err)
		}
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err = watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return &Watcher{watcher: watcher, loader: loader, logger: logger}, nil
}

// Run processes file events until ctx is done, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if w.loader.Evict(event.Name) {
				w.logger.DebugContext(ctx, "script changed, evicted from cache",
					slog.String("path", event.Name),
					slog.String("op", event.Op.String()),
				)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnContext(ctx, "script watcher error", slog.Any("error", err))
		}
	}
}
