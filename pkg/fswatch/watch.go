package fswatch

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/kelda-inc/fsnotify"

	"github.com/cratedrop/seratosync/pkg/errors"
)

var fs = afero.NewOsFs()

// Watch watches the Serato metadata under seratoDir. It sends an event on
// the returned channel whenever the database, a crate, or a preference file
// changes, so callers can re-run the sync while a library is being edited.
func Watch(seratoDir string) (chan struct{}, error) {
	pathsToWatch, err := getPathsToWatch(seratoDir)
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
	return combineUpdates(watcher.Events), nil
}

// combineUpdates coalesces bursts of filesystem events into at most one
// pending notification, since saving a crate in Serato touches several
// files at once.
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

// getPathsToWatch returns the Serato directory and every directory under
// it. fsnotify doesn't watch directories recursively, so each one is added
// individually; watching a directory already covers the files inside it,
// including ones created after the watch starts.
func getPathsToWatch(seratoDir string) (paths []string, err error) {
	fi, err := fs.Stat(seratoDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound{Path: seratoDir}
		}
		return nil, errors.WithContext(err, "stat")
	}
	if !fi.Mode().IsDir() {
		return nil, errors.New("not a directory")
	}

	err = afero.Walk(fs, seratoDir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return errors.WithContext(err, "walk error")
		}
		if fi.Mode().IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}
