package library

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const rescanQuiet = 500 * time.Millisecond

// Watch rescans the library whenever files under the root change, and
// signals each completed rescan on the returned channel. Bursts of
// filesystem events are coalesced into one rescan after a quiet period.
// The watcher stops when ctx is cancelled.
func (l *Library) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := addRecursive(watcher, l.root); err != nil {
		watcher.Close()
		return nil, err
	}

	changed := make(chan struct{}, 1)

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		var fire <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				// New directories need their own watches.
				if ev.Op.Has(fsnotify.Create) {
					_ = addRecursive(watcher, ev.Name)
				}
				if timer == nil {
					timer = time.NewTimer(rescanQuiet)
				} else {
					timer.Reset(rescanQuiet)
				}
				fire = timer.C
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.log.Debug().Err(err).Msg("library watch error")
			case <-fire:
				fire = nil
				if err := l.Rescan(); err != nil {
					l.log.Warn().Err(err).Msg("library rescan failed")
					continue
				}
				select {
				case changed <- struct{}{}:
				default:
				}
			}
		}
	}()

	return changed, nil
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}
