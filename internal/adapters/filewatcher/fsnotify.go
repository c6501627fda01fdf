// Package filewatcher watches an intake directory for measurement drafts.
// It implements ports.FileWatcher on top of fsnotify.
package filewatcher

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/fsnotify/fsnotify"

	"github.com/0xcro3dile/permlab/internal/domain/ports"
)

// DefaultExtensions are the draft formats the loader understands.
var DefaultExtensions = []string{".yaml", ".yml", ".json"}

// DraftWatcher implements ports.FileWatcher using fsnotify.
type DraftWatcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
	logger     log.Interface
}

// NewDraftWatcher creates a watcher for files with the given extensions.
func NewDraftWatcher(extensions []string, logger log.Interface) (*DraftWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	if logger == nil {
		logger = log.Log
	}
	return &DraftWatcher{
		watcher:    w,
		extensions: extensions,
		logger:     logger,
	}, nil
}

// Watch starts monitoring dir and emits draft file events until ctx is done.
func (w *DraftWatcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}
	w.logger.WithField("dir", dir).Info("watching for measurement drafts")

	events := make(chan ports.FileEvent, 100)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.isDraft(event.Name) {
					continue
				}

				var op ports.FileOperation
				switch {
				case event.Has(fsnotify.Create):
					op = ports.FileCreated
				case event.Has(fsnotify.Write):
					op = ports.FileModified
				case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
					op = ports.FileDeleted
				default:
					continue
				}

				select {
				case events <- ports.FileEvent{Path: event.Name, Operation: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.WithError(err).Warn("watcher error")
			}
		}
	}()

	return events, nil
}

// Stop stops the watcher.
func (w *DraftWatcher) Stop() error {
	return w.watcher.Close()
}

// isDraft checks the extension and skips editor temp files.
func (w *DraftWatcher) isDraft(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
