// Package artifactwatcher monitors the index artifact directory so a
// serving process can pick up rebuilt indexes without restarting.
// Adapter implementing ports.ArtifactWatcher.
package artifactwatcher

import (
	"context"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FSNotifyWatcher implements ports.ArtifactWatcher using fsnotify.
// The build pipeline writes artifacts via temp-file-then-rename, so a
// Create or Rename event on a watched name means a complete new artifact.
type FSNotifyWatcher struct {
	watcher *fsnotify.Watcher
	names   map[string]bool // artifact base names to react to
}

// NewFSNotifyWatcher creates a watcher for the given artifact file names.
func NewFSNotifyWatcher(artifactNames ...string) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	names := make(map[string]bool, len(artifactNames))
	for _, n := range artifactNames {
		names[filepath.Base(n)] = true
	}

	return &FSNotifyWatcher{watcher: w, names: names}, nil
}

// Watch starts monitoring the directory and emits the paths of replaced
// artifacts.
func (w *FSNotifyWatcher) Watch(ctx context.Context, dir string) (<-chan string, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	changed := make(chan string, 16)

	go func() {
		defer close(changed)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.names[filepath.Base(event.Name)] {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case changed <- event.Name:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[WARN] artifact watcher: %v", err)
			}
		}
	}()

	return changed, nil
}

// Stop stops the watcher.
func (w *FSNotifyWatcher) Stop() error {
	return w.watcher.Close()
}
