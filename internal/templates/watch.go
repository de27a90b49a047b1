package templates

import (
	"path/filepath"
	"strings"

	"prdflow/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Watch invalidates the store's cache when markdown files in the storage
// directory change, so edits show up without restarting the server. The
// returned stop function releases the watcher.
//
// Watching is best-effort: if the directory cannot be watched the store
// still works, it just serves cached content until restart.
func Watch(store *Store, logger *logging.AppLogger) (func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(store.Dir()); err != nil {
		w.Close()
		return nil, err
	}
	logger.Debug("Watching template directory", "dir", store.Dir())

	done := make(chan struct{})

	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				name := filepath.Base(event.Name)
				if !strings.HasSuffix(name, ".md") {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				store.Invalidate(strings.TrimSuffix(name, ".md"))
				logger.Debug("Template changed on disk", "file", name, "op", event.Op.String())
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("Template watcher error", "error", err)
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		w.Close()
	}, nil
}
