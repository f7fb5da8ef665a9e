// Package watch reloads the dataset when its file changes on disk.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"crashboard/internal/logging"
)

// Monitor watches one dataset file through its parent directory, since
// editors and download tools replace files rather than write in place.
type Monitor struct {
	path    string
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	lastMod time.Time
}

func New(path string) (*Monitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}
	return &Monitor{path: path, watcher: watcher}, nil
}

// Run blocks, invoking onChange whenever the file is rewritten with a newer
// mod time. Repeated events for the same write collapse into one call.
func (m *Monitor) Run(onChange func()) error {
	log := logging.With("watch")
	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(m.path) {
				continue
			}
			info, err := os.Stat(m.path)
			if err != nil {
				continue
			}
			m.mu.Lock()
			fresh := info.ModTime().After(m.lastMod)
			if fresh {
				m.lastMod = info.ModTime()
			}
			m.mu.Unlock()
			if fresh {
				log.Info().Str("path", m.path).Msg("dataset changed, reloading")
				go onChange()
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func (m *Monitor) Close() error {
	return m.watcher.Close()
}
