package resolve

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/resume/edits"
)

// FileWatcher waits for the edits file to be rewritten on disk instead of waiting for a keypress.
type FileWatcher struct {
	Out io.Writer
	Log *telemetry.Logger
}

// AwaitRepair watches the edits file's directory and returns the first rewrite of the file that decodes.
func (w *FileWatcher) AwaitRepair(ctx context.Context, store Store, findings []string) (edits.Set, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return edits.Set{}, fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(store.Path())
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return edits.Set{}, fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	if w.Out != nil {
		fmt.Fprintf(w.Out, "Validation errors found. Edit %s; it will be re-validated on save:\n", target)
		for _, f := range findings {
			fmt.Fprintf(w.Out, "   %s\n", f)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return edits.Set{}, ctx.Err()
		case err, ok := <-watcher.Errors:
			if !ok {
				return edits.Set{}, fmt.Errorf("watcher closed")
			}
			return edits.Set{}, fmt.Errorf("watch edits: %w", err)
		case ev, ok := <-watcher.Events:
			if !ok {
				return edits.Set{}, fmt.Errorf("watcher closed")
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			set, err := store.Load()
			if err != nil {
				w.Log.Debug("resolve.manual.parse_error", map[string]any{"path": target, "error": err})
				continue
			}
			return set, nil
		}
	}
}

var _ Repairer = (*FileWatcher)(nil)
