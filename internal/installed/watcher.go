package installed

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

// LocalDB is pacman's local package database directory.
const LocalDB = "/var/lib/pacman/local"

// Debounce is how long the local database must stay quiet before a change
// is reported.
const Debounce = 500 * time.Millisecond

// Watcher reports changes to the pacman local database, including
// transactions run outside pacsea.
type Watcher struct {
	Dir     string
	Changes <-chan struct{} // one value per settled burst of events

	changes chan struct{}
	done    chan struct{}
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for dir (usually LocalDB).
func NewWatcher(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ch := make(chan struct{}, 1)
	return &Watcher{
		Dir:     dir,
		Changes: ch,
		changes: ch,
		done:    make(chan struct{}),
		watcher: fw,
	}, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.Dir); err != nil {
		return err
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	var last time.Time
	ticker := time.NewTicker(Debounce / 5)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) {
				last = time.Now()
			}

		case <-ticker.C:
			if !last.IsZero() && time.Since(last) >= Debounce {
				last = time.Time{}
				w.emit()
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the periodic refresh still runs.
		}
	}
}

// emit coalesces with an undelivered notification.
func (w *Watcher) emit() {
	select {
	case w.changes <- struct{}{}:
	default:
	}
}
