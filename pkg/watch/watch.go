// Package watch re-validates a skill directory whenever one of its files
// changes, so authors get review feedback on every save. Events are
// debounced: editors commonly emit several write events per save, and
// only the last one should trigger a run.
package watch

import (
	"context"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillcheck/pkg/logger"
)

// DefaultDebounce is the delay between the last file event and the
// re-validation it triggers.
const DefaultDebounce = 500 * time.Millisecond

// Callback is invoked after each debounced change burst.
type Callback func(ctx context.Context)

// Watch blocks until ctx is cancelled, invoking callback once at start
// and again after every debounced change under dir.
func Watch(ctx context.Context, dir string, debounce time.Duration, callback Callback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return errors.Wrapf(err, "failed to watch %s", dir)
	}

	callback(ctx)

	log := logger.G(ctx)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// Editor swap files churn constantly; skip hidden files.
			if strings.HasPrefix(baseName(event.Name), ".") {
				continue
			}
			log.WithField("file", event.Name).WithField("op", event.Op.String()).Debug("change detected")
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			callback(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Error("file watcher error")

		case <-ctx.Done():
			return nil
		}
	}
}

func baseName(path string) string {
	if idx := strings.LastIndexAny(path, `/\`); idx != -1 {
		return path[idx+1:]
	}
	return path
}
