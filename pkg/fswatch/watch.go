// Package fswatch notifies the sync loop when the source tree changes, so
// that changes are mirrored without waiting for the next interval.
package fswatch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/foldersync/pkg/errors"
	"github.com/sidkik/foldersync/pkg/sync"
)

var fs = afero.NewOsFs()

// Watcher watches a directory tree for changes.
type Watcher struct {
	root    string
	exclude []string

	watcher *fsnotify.Watcher
	changes chan struct{}
}

// Watch starts watching every directory under root, except the excluded
// ones. Directories created later are watched as they appear.
func Watch(root string, exclude []string) (*Watcher, error) {
	pathsToWatch, err := getPathsToWatch(root, exclude)
	if err != nil {
		return nil, errors.WithContext(err, "get paths")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithContext(err, "create watcher")
	}

	for _, path := range pathsToWatch {
		if err := watcher.Add(path); err != nil {
			// Close the watcher so that we release the file handlers for the
			// previously added paths.
			if err := watcher.Close(); err != nil {
				log.WithError(err).Warn("Failed to close file watcher")
			}

			return nil, errors.WithContext(err, fmt.Sprintf("watch %q", path))
		}
	}

	w := &Watcher{root: root, exclude: exclude, watcher: watcher}
	events := make(chan fsnotify.Event)
	go w.forward(events)
	w.changes = combineUpdates(events)
	return w, nil
}

// Changes returns a channel that receives a value after the tree changes.
// Bursts of changes are collapsed into a single value.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// forward passes on the events for paths that aren't excluded, and starts
// watching new directories. It returns once the watcher is closed.
func (w *Watcher) forward(out chan<- fsnotify.Event) {
	defer close(out)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			relativePath, err := filepath.Rel(w.root, event.Name)
			if err == nil && sync.Excluded(relativePath, w.exclude) {
				continue
			}

			if event.Has(fsnotify.Create) {
				w.watchIfDir(event.Name)
			}
			out <- event
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("File watcher error")
		}
	}
}

func (w *Watcher) watchIfDir(path string) {
	fi, err := fs.Stat(path)
	if err != nil || !fi.IsDir() {
		return
	}

	// fsnotify isn't recursive, and the directory may already have contents
	// by the time we get here.
	paths, err := getPathsToWatch(path, nil)
	if err != nil {
		log.WithError(err).WithField("path", path).Debug("Failed to list new directory")
		return
	}

	for _, p := range paths {
		if relativePath, err := filepath.Rel(w.root, p); err == nil && sync.Excluded(relativePath, w.exclude) {
			continue
		}

		if err := w.watcher.Add(p); err != nil {
			log.WithError(err).WithField("path", p).Warn("Failed to watch new directory")
		}
	}
}

func combineUpdates(updates <-chan fsnotify.Event) chan struct{} {
	combined := make(chan struct{}, 1)
	go func() {
		for range updates {
			select {
			case combined <- struct{}{}:
			default:
			}
		}
	}()
	return combined
}

// getPathsToWatch returns root and every directory under it that isn't
// excluded. Watching a directory reports changes to the files directly
// inside it.
func getPathsToWatch(root string, exclude []string) (paths []string, err error) {
	fi, err := fs.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound{Path: root}
		}
		return nil, errors.WithContext(err, "stat")
	}

	if !fi.IsDir() {
		return nil, errors.Errorf("%q is not a directory", root)
	}

	err = afero.Walk(fs, root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return errors.WithContext(err, "walk error")
		}

		if !fi.IsDir() {
			return nil
		}

		relativePath, err := filepath.Rel(root, path)
		if err != nil {
			return errors.WithContext(err, "normalize path")
		}

		if relativePath != "." && sync.Excluded(relativePath, exclude) {
			return filepath.SkipDir
		}

		paths = append(paths, path)
		return nil
	})
	return paths, err
}
