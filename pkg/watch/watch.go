// Package watch produces filesystem events for the rule engine. It wraps an
// fsnotify watcher rooted at a project directory, watches the whole tree
// recursively, and translates raw notifications into [event.Event] values
// with project-relative paths.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nudgedev/nudge/pkg/event"
	"github.com/nudgedev/nudge/pkg/log"
)

// Watcher converts fsnotify notifications into rule-engine events.
// Newly created directories join the watch set automatically; hidden
// directories (leading dot) are skipped. If a rules file path is configured,
// changes to it are reported on a separate reload channel instead of the
// event channel.
type Watcher struct {
	fsw     *fsnotify.Watcher
	tracer  trace.Tracer
	events  chan event.Event
	reloads chan struct{}

	// Track watched directories, so directory removals can be classified
	// after the path is already gone.
	watchedDirs map[string]struct{}

	root      string
	rulesPath string
	mu        sync.Mutex
}

// New creates a [Watcher] rooted at the given directory and watches the
// existing tree.
func New(root string, opts ...WatcherOpt) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsw:         fsw,
		tracer:      otel.Tracer("watcher"),
		events:      make(chan event.Event),
		reloads:     make(chan struct{}, 1),
		watchedDirs: make(map[string]struct{}),
		root:        absRoot,
	}
	for _, opt := range opts {
		opt(w)
	}

	err = w.addTree(absRoot)
	if err != nil {
		_ = fsw.Close()
		return nil, err
	}

	if w.rulesPath != "" {
		// Watch the containing directory; editors often replace the file,
		// which would drop a watch on the file itself.
		err = fsw.Add(filepath.Dir(w.rulesPath))
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch rules file %q: %w", w.rulesPath, err)
		}
	}

	return w, nil
}

// WatcherOpt is a functional option for configuring a [Watcher].
type WatcherOpt func(*Watcher)

// WithRulesPath watches the given rules file and signals reloads on change.
func WithRulesPath(path string) WatcherOpt {
	return func(w *Watcher) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}

		w.rulesPath = abs
	}
}

// Events returns the channel of translated filesystem events.
func (w *Watcher) Events() <-chan event.Event {
	return w.events
}

// Reloads returns the channel signaling rules-file changes.
func (w *Watcher) Reloads() <-chan struct{} {
	return w.reloads
}

// Run consumes fsnotify notifications until the context is canceled or the
// watcher is closed. It owns the events channel and closes it on return.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.events)

	logger := log.WithContext(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			w.handle(ctx, evt)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}

			logger.ErrorContext(ctx, "watcher error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, evt fsnotify.Event) {
	// Chmod carries no content change.
	if evt.Has(fsnotify.Chmod) {
		return
	}

	if w.rulesPath != "" && evt.Name == w.rulesPath {
		select {
		case w.reloads <- struct{}{}:
		default: // A reload is already pending.
		}

		return
	}

	ctx, span := w.tracer.Start(ctx, "handle", trace.WithAttributes(
		attribute.String("op", evt.Op.String()),
		attribute.String("name", evt.Name),
	))
	defer span.End()

	isDir := w.classify(evt)

	e, ok := event.FromFsnotify(evt, isDir)
	if !ok {
		return
	}

	if e.Kind == event.DirectoryCreate {
		err := w.addTree(evt.Name)
		if err != nil {
			log.WithContext(ctx).WarnContext(ctx, "watch new directory",
				slog.String("path", evt.Name),
				slog.Any("error", err),
			)
		}
	}

	rel, err := filepath.Rel(w.root, e.Path)
	if err != nil || strings.HasPrefix(rel, "..") {
		// Outside the root (e.g. the rules directory); not a project event.
		return
	}

	select {
	case w.events <- event.New(filepath.ToSlash(rel), e.Kind):
	case <-ctx.Done():
	}
}

// classify reports whether the event's path is a directory. For removals and
// renames the path no longer exists, so the watched-directory set decides.
func (w *Watcher) classify(evt fsnotify.Event) bool {
	w.mu.Lock()
	_, wasDir := w.watchedDirs[evt.Name]
	w.mu.Unlock()

	if evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename) {
		if wasDir {
			w.forgetTree(evt.Name)
		}

		return wasDir
	}

	info, err := os.Stat(evt.Name)
	if err != nil {
		return wasDir
	}

	return info.IsDir()
}

// addTree watches dir and every non-hidden subdirectory beneath it.
func (w *Watcher) addTree(dir string) error {
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); strings.HasPrefix(name, ".") && path != dir {
			return filepath.SkipDir
		}

		err = w.fsw.Add(path)
		if err != nil {
			return fmt.Errorf("add path to watcher: %w", err)
		}

		w.mu.Lock()
		w.watchedDirs[path] = struct{}{}
		w.mu.Unlock()

		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %q: %w", dir, err)
	}

	return nil
}

// forgetTree drops dir and its descendants from the watched-directory set.
// The kernel watches are already gone once the directory is removed.
func (w *Watcher) forgetTree(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	prefix := dir + string(filepath.Separator)
	for watched := range w.watchedDirs {
		if watched == dir || strings.HasPrefix(watched, prefix) {
			delete(w.watchedDirs, watched)
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	if err != nil && !errors.Is(err, fsnotify.ErrClosed) {
		return fmt.Errorf("close watcher: %w", err)
	}

	return nil
}
