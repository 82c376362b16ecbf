package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher invalidates the Store when holiday files in a directory change
type Watcher struct {
	dir      string
	store    *Store
	debounce time.Duration
	logger   *zap.Logger
}

// NewWatcher creates a new Watcher for dir
func NewWatcher(dir string, store *Store, debounce time.Duration, logger *zap.Logger) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	return &Watcher{
		dir:      dir,
		store:    store,
		debounce: debounce,
		logger:   logger,
	}
}

// Start begins watching. The watch is registered before Start returns;
// events are handled in the background until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := fw.Add(w.dir); err != nil {
		fw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.logger.Info("Watching holiday data directory", zap.String("dir", w.dir))

	go w.loop(ctx, fw)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer fw.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Info("Holiday data watcher stopped")
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !isDataChange(event) {
				continue
			}

			w.logger.Debug("Holiday data file changed",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()))

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			w.store.InvalidateCache()
		}
	}
}

func isDataChange(event fsnotify.Event) bool {
	if !strings.HasSuffix(event.Name, ".json") {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
