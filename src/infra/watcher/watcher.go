// Package watcher adapts fsnotify to the renaming feature: it registers watch
// targets (files, directories, or whole subtrees) and emits creation events.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/contre95/snapshotd/src/features/renaming"
)

// Target is a path registered for creation notifications. Recursive only
// matters for directories; it is meaningless for files.
type Target struct {
	Path      string
	Recursive bool
}

// Watcher monitors registered targets and emits creation events.
type Watcher struct {
	watcher        *fsnotify.Watcher
	eventChan      chan<- renaming.Event
	recursiveRoots []string
	running        bool
	stopChan       chan struct{}
}

// NewWatcher creates a new file system watcher.
func NewWatcher(eventChan chan<- renaming.Event) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:   watcher,
		eventChan: eventChan,
		stopChan:  make(chan struct{}),
	}, nil
}

// Add registers a target. Directories with Recursive set have their whole
// subtree registered; files are watched directly. A path that is neither a
// file nor a directory is an error, the caller decides whether other targets
// proceed.
func (w *Watcher) Add(target Target) error {
	info, err := os.Stat(target.Path)
	if err != nil {
		return fmt.Errorf("not a watchable path %s: %w", target.Path, err)
	}

	if !info.IsDir() {
		slog.Info("Scheduling file for watch", "path", target.Path)
		return w.watcher.Add(target.Path)
	}

	if !target.Recursive {
		slog.Info("Scheduling directory for watch", "path", target.Path)
		return w.watcher.Add(target.Path)
	}

	slog.Info("Scheduling directory tree for watch", "path", target.Path)
	w.recursiveRoots = append(w.recursiveRoots, filepath.Clean(target.Path))
	return filepath.WalkDir(target.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

// Start begins delivering events. Stop or ctx cancellation ends the loop.
func (w *Watcher) Start(ctx context.Context) {
	w.running = true
	go w.watchLoop(ctx)
	slog.Info("File watcher started")
}

// Stop stops the file watcher.
func (w *Watcher) Stop() {
	if !w.running {
		return
	}

	slog.Info("Stopping file watcher")
	w.running = false
	close(w.stopChan)
	w.watcher.Close()
}

// watchLoop processes file system events.
func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)

		case <-w.stopChan:
			return

		case <-ctx.Done():
			return
		}
	}
}

// handleEvent forwards creation events and extends the watch when a new
// directory appears under a recursive root.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&fsnotify.Create != fsnotify.Create {
		return
	}

	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}

	if isDir && w.underRecursiveRoot(event.Name) {
		if err := w.watcher.Add(event.Name); err != nil {
			slog.Warn("Failed to watch new directory", "path", event.Name, "error", err)
		} else {
			slog.Debug("Watching new directory", "path", event.Name)
		}
	}

	// The consumer handles one event at a time, grace wait included, so a
	// burst can outrun the channel buffer. Block until the consumer catches
	// up; only a stop or interrupt releases the event.
	select {
	case w.eventChan <- renaming.Event{Path: event.Name, IsDir: isDir, Timestamp: time.Now()}:
	case <-w.stopChan:
	case <-ctx.Done():
	}
}

// underRecursiveRoot reports whether path sits inside a recursively watched
// tree.
func (w *Watcher) underRecursiveRoot(path string) bool {
	path = filepath.Clean(path)
	for _, root := range w.recursiveRoots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
