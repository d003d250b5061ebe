package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kjgarza/chickadee/internal/logfields"
)

// contentWatcher rebuilds the site when the recipe content tree changes.
// Rapid bursts of file events (editor saves, git checkouts) collapse into a
// single rebuild via debouncing.
type contentWatcher struct {
	contentDir   string
	onChange     func()
	watcher      *fsnotify.Watcher
	debounceTime time.Duration
	stop         chan struct{}
}

func newContentWatcher(contentDir string, onChange func()) (*contentWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	cw := &contentWatcher{
		contentDir:   contentDir,
		onChange:     onChange,
		watcher:      watcher,
		debounceTime: 2 * time.Second,
		stop:         make(chan struct{}),
	}
	if err := cw.addRecursive(contentDir); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return cw, nil
}

// addRecursive watches the content directory and every subdirectory;
// fsnotify does not recurse on its own.
func (cw *contentWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := cw.watcher.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
		return nil
	})
}

// Start begins watching. The loop exits when ctx is canceled or Stop is
// called.
func (cw *contentWatcher) Start(ctx context.Context) {
	slog.Info("Watching recipe content", logfields.Path(cw.contentDir))
	go cw.loop(ctx)
}

func (cw *contentWatcher) loop(ctx context.Context) {
	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stop:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			// New directories need to join the watch set.
			if event.Op.Has(fsnotify.Create) {
				_ = cw.addRecursive(event.Name)
			}
			slog.Debug("Content changed", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			if debounce == nil {
				debounce = time.NewTimer(cw.debounceTime)
			} else {
				debounce.Reset(cw.debounceTime)
			}
			fire = debounce.C
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Content watcher error", logfields.Error(err))
		case <-fire:
			fire = nil
			slog.Info("Rebuilding after content change")
			cw.onChange()
		}
	}
}

// Stop halts the watcher. Safe to call more than once.
func (cw *contentWatcher) Stop() {
	select {
	case <-cw.stop:
	default:
		close(cw.stop)
	}
	_ = cw.watcher.Close()
}
