package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces bursts of filesystem events (an upload writes
// many chunks) into a single reload.
const debounceWindow = 300 * time.Millisecond

// Watch reloads the catalog whenever the library directory changes, until
// ctx is cancelled. The upload service and the acquisition pipeline both
// publish files into the directory; watching keeps the index current
// without either of them calling into the catalog directly.
func (c *Catalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(c.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch library directory: %w", err)
	}

	go c.watchLoop(ctx, watcher)
	return nil
}

func (c *Catalog) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				timer.Reset(debounceWindow)
			}
			pending = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("library watch error", "error", err)
		case <-pending:
			pending = nil
			if _, err := c.Reload(); err != nil {
				c.logger.Error("library reload failed", "error", err)
			}
		}
	}
}
