package watch_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nudgedev/nudge/pkg/event"
	"github.com/nudgedev/nudge/pkg/watch"
)

const eventTimeout = 5 * time.Second

// waitFor drains the event channel until an event satisfies the predicate,
// failing the test on timeout. Filesystem notification order and coalescing
// vary by platform, so tests match on the event they care about.
func waitFor(t *testing.T, ch <-chan event.Event, match func(event.Event) bool) event.Event {
	t.Helper()

	deadline := time.After(eventTimeout)

	for {
		select {
		case evt, ok := <-ch:
			require.True(t, ok, "event channel closed")

			if match(evt) {
				return evt
			}

		case <-deadline:
			t.Fatal("timed out waiting for event")

			return event.Event{}
		}
	}
}

func TestWatcherFileCreate(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "Controller"), 0o755))

	w, err := watch.New(root)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	go w.Run(t.Context())

	path := filepath.Join(root, "src", "Controller", "UserController.php")
	require.NoError(t, os.WriteFile(path, []byte("<?php"), 0o600))

	evt := waitFor(t, w.Events(), func(e event.Event) bool {
		return e.Kind == event.FileCreate
	})

	// Paths are relative to the watched root, slash-separated.
	assert.Equal(t, "src/Controller/UserController.php", evt.Path)
}

func TestWatcherFileUpdate(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o600))

	w, err := watch.New(root)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	go w.Run(t.Context())

	require.NoError(t, os.WriteFile(path, []byte("ab"), 0o600))

	evt := waitFor(t, w.Events(), func(e event.Event) bool {
		return e.Kind == event.FileUpdate
	})
	assert.Equal(t, "notes.txt", evt.Path)
}

func TestWatcherNewDirectoryIsWatched(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	w, err := watch.New(root)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	go w.Run(t.Context())

	dir := filepath.Join(root, "templates")
	require.NoError(t, os.Mkdir(dir, 0o755))

	waitFor(t, w.Events(), func(e event.Event) bool {
		return e.Kind == event.DirectoryCreate && e.Path == "templates"
	})

	// Files created inside the new directory are observed too.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.twig"), []byte("{}"), 0o600))

	evt := waitFor(t, w.Events(), func(e event.Event) bool {
		return e.Kind == event.FileCreate
	})
	assert.Equal(t, "templates/base.twig", evt.Path)
}

func TestWatcherFileDelete(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, "old.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	w, err := watch.New(root)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	go w.Run(t.Context())

	require.NoError(t, os.Remove(path))

	evt := waitFor(t, w.Events(), func(e event.Event) bool {
		return e.Kind == event.FileDelete
	})
	assert.Equal(t, "old.txt", evt.Path)
}

func TestWatcherRulesReload(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	rulesDir := t.TempDir()
	rulesPath := filepath.Join(rulesDir, "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte("name: a\n"), 0o600))

	w, err := watch.New(root, watch.WithRulesPath(rulesPath))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	go w.Run(t.Context())

	require.NoError(t, os.WriteFile(rulesPath, []byte("name: b\n"), 0o600))

	select {
	case <-w.Reloads():
	case <-time.After(eventTimeout):
		t.Fatal("timed out waiting for reload signal")
	}
}

func TestWatcherIgnoresHiddenDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))

	w, err := watch.New(root)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	go w.Run(t.Context())

	// A change inside a hidden directory produces no event; make a visible
	// change afterwards and assert it is the first thing observed.
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("ref"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "visible.txt"), []byte("x"), 0o600))

	evt := waitFor(t, w.Events(), func(e event.Event) bool {
		return e.Kind == event.FileCreate
	})
	assert.Equal(t, "visible.txt", evt.Path)
}

func TestWatcherMissingRoot(t *testing.T) {
	t.Parallel()

	_, err := watch.New(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
