// Package event defines the filesystem change events that rules are
// evaluated against. Events are immutable value objects produced by a
// watcher; the engine never mutates or retains them.
package event

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Kind identifies the type of filesystem change.
type Kind string

const (
	FileCreate      Kind = "file_create"
	FileUpdate      Kind = "file_update"
	FileDelete      Kind = "file_delete"
	FileRename      Kind = "file_rename"
	DirectoryCreate Kind = "directory_create"
	DirectoryDelete Kind = "directory_delete"
)

// AllKinds contains every kind emitted by the watcher, in a stable order.
var AllKinds = []Kind{
	FileCreate,
	FileUpdate,
	FileDelete,
	FileRename,
	DirectoryCreate,
	DirectoryDelete,
}

// ValidKind reports whether k is one of the known event kinds.
func ValidKind(k Kind) bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}

	return false
}

// Event represents a single filesystem change.
type Event struct {
	// Path is the file or directory path, relative to the watched root.
	Path string `json:"path"`
	// Kind is the type of change.
	Kind Kind `json:"kind"`
}

func New(path string, kind Kind) Event {
	return Event{Path: path, Kind: kind}
}

func (e Event) String() string {
	return fmt.Sprintf("%s %q", e.Kind, e.Path)
}

// FromFsnotify translates an fsnotify operation into an [Event].
// isDir reports whether the path refers to a directory, which fsnotify does
// not track itself. Chmod-only operations carry no content change and return
// ok=false.
func FromFsnotify(evt fsnotify.Event, isDir bool) (Event, bool) {
	switch {
	case evt.Has(fsnotify.Create) && isDir:
		return New(evt.Name, DirectoryCreate), true
	case evt.Has(fsnotify.Create):
		return New(evt.Name, FileCreate), true
	case evt.Has(fsnotify.Write):
		return New(evt.Name, FileUpdate), true
	case evt.Has(fsnotify.Remove) && isDir:
		return New(evt.Name, DirectoryDelete), true
	case evt.Has(fsnotify.Remove):
		return New(evt.Name, FileDelete), true
	case evt.Has(fsnotify.Rename):
		return New(evt.Name, FileRename), true
	}

	return Event{}, false
}
