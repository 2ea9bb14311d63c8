package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the configuration when its file changes on disk and
// delivers each successfully loaded Config to a callback. Parse errors
// are reported to the error callback and the previous config stays
// active.
type Watcher struct {
	path string
	fsw  *fsnotify.Watcher
	done chan struct{}
}

// Watch starts watching path. onChange receives every valid reload;
// onError (optional) receives load failures.
func Watch(path string, onChange func(Config), onError func(error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Editors replace files by rename; watch the directory so the watch
	// survives the swap.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{path: path, fsw: fsw, done: make(chan struct{})}
	go w.loop(onChange, onError)
	return w, nil
}

func (w *Watcher) loop(onChange func(Config), onError func(error)) {
	base := filepath.Base(w.path)
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			onChange(cfg)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
