package localcache

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports when the cache file is rewritten by another process,
// so a running sync client can pick up externally edited state as a
// pending payload. The parent directory is watched rather than the
// file because atomic saves replace the file via rename.
type Watcher struct {
	inner  *fsnotify.Watcher
	events chan struct{}
	done   chan struct{}
}

func WatchFile(path string) (*Watcher, error) {
	path = filepath.Clean(path)
	if path == "" || path == "." {
		return nil, ErrInvalidInput
	}
	inner, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := inner.Add(filepath.Dir(path)); err != nil {
		_ = inner.Close()
		return nil, err
	}
	w := &Watcher{
		inner:  inner,
		events: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go w.run(filepath.Base(path))
	return w, nil
}

// Events delivers at most one notification per pending change; bursts
// of writes coalesce into a single event.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.inner.Close()
}

func (w *Watcher) run(base string) {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.inner.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			select {
			case w.events <- struct{}{}:
			default:
			}
		case _, ok := <-w.inner.Errors:
			if !ok {
				return
			}
		}
	}
}
