// Package watch drives repeated runs from inbox filesystem activity: after
// new entries settle for a quiet period, the supplied run function fires.
package watch

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
)

type Watcher struct {
	fsw    *fsnotify.Watcher
	dir    string
	settle time.Duration
}

func New(dir string, settle time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	if settle <= 0 {
		settle = 5 * time.Second
	}
	return &Watcher{fsw: fsw, dir: dir, settle: settle}, nil
}

// Run blocks, invoking fn after each burst of inbox events goes quiet for
// the settle window. It returns when the context is cancelled or the
// underlying watcher fails.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.settle)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.settle)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			return err
		case <-fire:
			timer = nil
			fire = nil
			if err := fn(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}
