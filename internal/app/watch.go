package app

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/gdamore/tcell/v2"
)

// fileChanged is posted to the screen as interrupt data when the open
// file changes on disk.
type fileChanged struct{ path string }

// Watcher reports changes to a single file. The parent directory is
// watched so that editors which save by renaming are noticed too.
type Watcher struct {
	fw   *fsnotify.Watcher
	done chan struct{}
}

func Watch(filename string, notify func(path string), logf func(format string, args ...any)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(filename)); err != nil {
		fw.Close()
		return nil, err
	}
	w := &Watcher{fw: fw, done: make(chan struct{})}
	go w.loop(filename, notify, logf)
	return w, nil
}

func (w *Watcher) loop(filename string, notify func(string), logf func(string, ...any)) {
	defer close(w.done)
	target := filepath.Clean(filename)
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				notify(filename)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logf("watch %s: %v", filename, err)
		}
	}
}

// Close stops watching and waits for the event goroutine to exit.
func (w *Watcher) Close() error {
	err := w.fw.Close()
	<-w.done
	return err
}

func (a *App) restartWatcher() {
	a.closeWatcher()
	if !a.Watch || a.screen == nil || a.FileName == "" {
		return
	}
	s := a.screen
	w, err := Watch(a.FileName, func(path string) {
		_ = s.PostEvent(tcell.NewEventInterrupt(fileChanged{path: path}))
	}, a.Log.Printf)
	if err != nil {
		a.Log.Printf("cannot watch %s: %v", a.FileName, err)
		return
	}
	a.watcher = w
}

func (a *App) closeWatcher() {
	if a.watcher == nil {
		return
	}
	if err := a.watcher.Close(); err != nil {
		a.Log.Printf("closing watcher: %v", err)
	}
	a.watcher = nil
}
