package rule

import (
	"errors"
	"fmt"

	"github.com/nudgedev/nudge/pkg/event"
)

var (
	// ErrInvalidPattern is returned when a filter's pattern fails to compile.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrUnknownFilterType is returned for filter types the engine does not know.
	ErrUnknownFilterType = errors.New("unknown filter type")

	// ErrUnknownActionType is returned for action types the engine does not know.
	ErrUnknownActionType = errors.New("unknown action type")

	// ErrNoName is returned when a rule has no name.
	ErrNoName = errors.New("rule has no name")
)

// Rule pairs a conjunction of filters with an ordered list of actions.
// An incoming event matches the rule only if every filter matches it; a rule
// with zero filters matches every event. Filters are compiled once, when the
// rule is loaded.
type Rule struct {
	// Name uniquely identifies the rule, stable across reloads.
	Name string `json:"name" jsonschema:"title=Name"`
	// Description is a human-readable summary of the rule. Informational only.
	Description string `json:"description,omitempty" jsonschema:"title=Description"`
	// Filters are ANDed together. An empty list matches every event.
	Filters []*Filter `json:"filters,omitempty" jsonschema:"title=Filters"`
	// Actions are executed in order when the rule matches.
	Actions []*Action `json:"actions" jsonschema:"title=Actions"`
	// Tags are inert labels, loaded but never interpreted.
	Tags []string `json:"tags,omitempty" jsonschema:"title=Tags" yaml:"tags,flow,omitempty"`
	// Metadata is inert payload, loaded but never interpreted.
	Metadata *Metadata `json:"metadata,omitempty" jsonschema:"title=Metadata"`
	// Examples are inert payload, loaded but never interpreted.
	Examples []Example `json:"examples,omitempty" jsonschema:"title=Examples"`
}

// Metadata carries inert rule annotations. The engine loads and exposes
// these but never branches on them.
type Metadata struct {
	// Priority is an advisory label (e.g. "high"). Not an evaluation order.
	Priority string `json:"priority,omitempty" jsonschema:"title=Priority"`
	// Version is the rule document version.
	Version string `json:"version,omitempty" jsonschema:"title=Version"`
	// Changelog lists human-readable change entries.
	Changelog []string `json:"changelog,omitempty" jsonschema:"title=Changelog"`
}

// Example is an inert illustration attached to a rule document.
type Example struct {
	Description string `json:"description,omitempty" jsonschema:"title=Description"`
	Content     string `json:"content,omitempty" jsonschema:"title=Content"`
}

// New creates a rule with the given name and options, and compiles it.
func New(name string, opts ...RuleOpt) (*Rule, error) {
	r := &Rule{Name: name}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.Compile(); err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}

	return r, nil
}

// MustNew creates a rule and panics if it does not compile.
func MustNew(name string, opts ...RuleOpt) *Rule {
	r, err := New(name, opts...)
	if err != nil {
		panic(err)
	}

	return r
}

// RuleOpt is a functional option for configuring a [Rule].
type RuleOpt func(*Rule)

// WithDescription sets the rule description.
func WithDescription(desc string) RuleOpt {
	return func(r *Rule) {
		r.Description = desc
	}
}

// WithFilters appends filters to the rule.
func WithFilters(filters ...*Filter) RuleOpt {
	return func(r *Rule) {
		r.Filters = append(r.Filters, filters...)
	}
}

// WithActions appends actions to the rule.
func WithActions(actions ...*Action) RuleOpt {
	return func(r *Rule) {
		r.Actions = append(r.Actions, actions...)
	}
}

// WithTags sets the rule tags.
func WithTags(tags ...string) RuleOpt {
	return func(r *Rule) {
		r.Tags = tags
	}
}

// Compile validates the rule and compiles every filter pattern. It fails on
// the first invalid filter or action, so a rule is either fully compiled or
// not loaded at all. Compiling an already-compiled rule is a no-op.
func (r *Rule) Compile() error {
	if r.Name == "" {
		return ErrNoName
	}

	for i, f := range r.Filters {
		if err := f.Compile(); err != nil {
			return fmt.Errorf("filter %d: %w", i, err)
		}
	}

	for i, a := range r.Actions {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}

	return nil
}

// Matches reports whether the event satisfies every filter of the rule.
// Event-kind filters are checked first since they test short tokens; path
// filters run afterwards in declared order. Evaluation short-circuits on the
// first non-matching filter.
func (r *Rule) Matches(evt event.Event) bool {
	for _, f := range r.Filters {
		if f.Type == TypeEvent && !f.Matches(evt) {
			return false
		}
	}

	for _, f := range r.Filters {
		if f.Type != TypeEvent && !f.Matches(evt) {
			return false
		}
	}

	return true
}

func (r *Rule) String() string {
	return fmt.Sprintf("%s: %d filters, %d actions", r.Name, len(r.Filters), len(r.Actions))
}
