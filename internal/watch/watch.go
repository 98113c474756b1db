// Package watch reports edits to a single notebook file.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/nbflow/internal/ctxlog"
)

const DefaultDebounce = 100 * time.Millisecond

// Watcher emits the file path on Changes once writes to it settle.
// Editors often replace files by rename, so the parent directory is
// watched rather than the file itself.
type Watcher struct {
	Path     string
	Debounce time.Duration
	Changes  <-chan string

	changes chan string
	watcher *fsnotify.Watcher
}

// New creates a watcher for path. Call Run to start it.
func New(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	ch := make(chan string, 1)
	return &Watcher{
		Path:     abs,
		Debounce: DefaultDebounce,
		Changes:  ch,
		changes:  ch,
		watcher:  fw,
	}, nil
}

// Run delivers changes until ctx is done, then closes Changes and the
// underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("path", w.Path)
	defer close(w.changes)
	defer w.watcher.Close()

	ticker := time.NewTicker(w.Debounce)
	defer ticker.Stop()

	var pending time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.Path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				logger.Debug("File event", "op", event.Op.String())
				pending = time.Now()
			}

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < w.Debounce {
				continue
			}
			pending = time.Time{}
			select {
			case w.changes <- w.Path:
			default:
				// A change is already queued; the reader will reload anyway.
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error", "error", err)
		}
	}
}
