package engine

import "github.com/nudgedev/nudge/pkg/event"

// Event represents an engine lifecycle event, delivered to subscribers.
type Event any

type (
	// EventLoad indicates that a new rule snapshot was swapped in.
	EventLoad struct {
		Rules int
	}

	// EventMatch indicates that a rule matched a filesystem event.
	EventMatch struct {
		Rule  string
		Event event.Event
	}

	// EventDispatchError indicates that a matched rule's action failed to
	// deliver. Evaluation of other rules continues.
	EventDispatchError struct {
		Err  error
		Rule string
	}
)
