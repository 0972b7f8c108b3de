package playlist

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"player-control/internal/log"
)

// DefaultSettle is how long a directory must be quiet before a rescan.
const DefaultSettle = 300 * time.Millisecond

// OnChangeFunc receives the new sorted file list after the watched
// directory changed.
type OnChangeFunc func(files []string)

// Watcher keeps the media list of one directory current.
type Watcher struct {
	fs       afero.Fs
	dir      string
	onChange OnChangeFunc
	settle   time.Duration
	fw       *fsnotify.Watcher
	log      *logrus.Entry

	mu    sync.RWMutex
	files []string
}

// NewWatcher scans dir once and prepares to watch it. Nothing is reported
// until Run.
func NewWatcher(fs afero.Fs, dir string, onChange OnChangeFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:       fs,
		dir:      dir,
		onChange: onChange,
		settle:   DefaultSettle,
		fw:       fw,
		log:      log.For("watcher").WithField("dir", dir),
	}
	w.rescan()
	return w, nil
}

// SetSettle changes the quiet period. Call before Run.
func (w *Watcher) SetSettle(d time.Duration) {
	if d > 0 {
		w.settle = d
	}
}

// Files returns the current list.
func (w *Watcher) Files() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.files)
}

// rescan reads the directory and reports whether the list changed.
func (w *Watcher) rescan() bool {
	files, err := Scan(w.fs, w.dir)
	if err != nil {
		w.log.WithError(err).Warn("scan failed")
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if slices.Equal(files, w.files) {
		return false
	}
	w.files = files
	w.log.WithField("files", len(files)).Debug("scanned")
	return true
}

// Run watches until ctx is done. A burst of events becomes one rescan
// once the directory has been quiet for the settle period, and onChange
// fires only if the list actually changed.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()
	if err := w.fw.Add(w.dir); err != nil {
		return err
	}
	w.log.Info("monitoring")

	settle := time.NewTimer(w.settle)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("stopped")
			return nil

		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			w.log.WithFields(logrus.Fields{"op": ev.Op.String(), "name": ev.Name}).Trace("event")
			settle.Reset(w.settle)

		case <-settle.C:
			if w.rescan() && w.onChange != nil {
				w.onChange(w.Files())
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("watch error")
		}
	}
}

// relevant keeps the events that can change which files are listed.
func relevant(e fsnotify.Event) bool {
	return e.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
