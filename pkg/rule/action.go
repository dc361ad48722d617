package rule

import (
	"errors"
	"fmt"
)

// ActionType identifies the effect an action triggers.
type ActionType string

// TypeSuggest delivers the action's static message to the notification
// surface. It is currently the only action type.
const TypeSuggest ActionType = "suggest"

// ErrNoMessage is returned when a suggest action carries no message.
var ErrNoMessage = errors.New("suggest action has no message")

// Action is the effect triggered when a rule matches. The message is opaque,
// immutable text; it may contain structured sub-examples, which are passed
// through unchanged and never interpreted.
type Action struct {
	// Type selects the effect. Only "suggest" is currently supported.
	Type ActionType `json:"type" jsonschema:"title=Type,enum=suggest"`
	// Message is the static payload delivered on match.
	Message string `json:"message" jsonschema:"title=Message"`
}

// NewAction creates a validated action.
func NewAction(at ActionType, message string) (*Action, error) {
	a := &Action{Type: at, Message: message}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	return a, nil
}

// MustNewAction creates a validated action and panics on error.
func MustNewAction(at ActionType, message string) *Action {
	a, err := NewAction(at, message)
	if err != nil {
		panic(err)
	}

	return a
}

// Suggest creates a suggest action.
func Suggest(message string) *Action {
	return MustNewAction(TypeSuggest, message)
}

// Validate checks the action type and payload.
func (a *Action) Validate() error {
	switch a.Type {
	case TypeSuggest:
		if a.Message == "" {
			return ErrNoMessage
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownActionType, a.Type)
	}

	return nil
}
