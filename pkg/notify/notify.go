// Package notify delivers rule suggestions to the developer. Each notifier
// implements [engine.Notifier]; [Multi] fans a suggestion out to several
// sinks at once.
package notify

import (
	"context"

	"github.com/nudgedev/nudge/pkg/engine"
)

// Multi dispatches each suggestion to every wrapped notifier in order. A
// failing notifier does not prevent delivery to the rest; the first error is
// returned after all notifiers have run.
type Multi struct {
	notifiers []engine.Notifier
}

// NewMulti creates a [Multi] over the given notifiers.
func NewMulti(notifiers ...engine.Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

// Notify implements [engine.Notifier].
func (m *Multi) Notify(ctx context.Context, ruleName, message string) error {
	var firstErr error

	for _, n := range m.notifiers {
		err := n.Notify(ctx, ruleName, message)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
