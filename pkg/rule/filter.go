package rule

import (
	"fmt"
	"regexp"

	"github.com/google/cel-go/cel"

	"github.com/nudgedev/nudge/pkg/event"
	"github.com/nudgedev/nudge/pkg/expr"
)

// FilterType identifies which part of an event a filter tests, and how.
type FilterType string

const (
	// TypeFileExtension matches the filter's regex against the event path.
	// Conventionally the pattern anchors on the extension (e.g. `\.php$`).
	TypeFileExtension FilterType = "file_extension"
	// TypeDirectory matches the filter's regex against the event path.
	// Conventionally the pattern names a directory segment (e.g. `src/`).
	TypeDirectory FilterType = "directory"
	// TypeEvent matches the filter's regex against the event kind token.
	TypeEvent FilterType = "event"
	// TypeExpression evaluates the pattern as a CEL expression with `path`
	// and `kind` variables. The expression must return a boolean.
	TypeExpression FilterType = "expression"
)

// Filter is a typed predicate over an event's path or kind. The pattern is a
// regular expression (or, for [TypeExpression], a CEL expression) compiled
// once at load time and cached for the rule's lifetime. Matching is
// case-sensitive; paths and event kinds are exact tokens.
type Filter struct {
	regex   *regexp.Regexp
	program cel.Program

	// Type selects the filter predicate.
	Type FilterType `json:"type" jsonschema:"title=Type,enum=file_extension,enum=directory,enum=event,enum=expression"`
	// Pattern is the regular expression (or CEL expression) to match.
	Pattern string `json:"pattern" jsonschema:"title=Pattern"`
}

// NewFilter creates a compiled filter.
func NewFilter(ft FilterType, pattern string) (*Filter, error) {
	f := &Filter{Type: ft, Pattern: pattern}
	if err := f.Compile(); err != nil {
		return nil, err
	}

	return f, nil
}

// MustNewFilter creates a compiled filter and panics on error.
func MustNewFilter(ft FilterType, pattern string) *Filter {
	f, err := NewFilter(ft, pattern)
	if err != nil {
		panic(err)
	}

	return f
}

// Compile compiles the filter's pattern. Compiling twice is a no-op.
func (f *Filter) Compile() error {
	switch f.Type {
	case TypeFileExtension, TypeDirectory, TypeEvent:
		if f.regex != nil {
			return nil
		}

		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidPattern, f.Pattern, err)
		}

		f.regex = re

	case TypeExpression:
		if f.program != nil {
			return nil
		}

		env, err := expr.CreateEnvironment()
		if err != nil {
			return fmt.Errorf("create CEL environment: %w", err)
		}

		program, err := env.Compile(f.Pattern)
		if err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidPattern, f.Pattern, err)
		}

		f.program = program

	default:
		return fmt.Errorf("%w: %q", ErrUnknownFilterType, f.Type)
	}

	return nil
}

// Matches reports whether the event satisfies the filter.
// The filter must have been compiled first.
func (f *Filter) Matches(evt event.Event) bool {
	switch f.Type {
	case TypeFileExtension, TypeDirectory:
		return f.regex.MatchString(evt.Path)

	case TypeEvent:
		return f.regex.MatchString(string(evt.Kind))

	case TypeExpression:
		result, _, err := f.program.Eval(map[string]any{
			"path": evt.Path,
			"kind": string(evt.Kind),
		})
		if err != nil {
			// Evaluation failure is a non-match, not an error.
			return false
		}

		if boolVal, ok := result.Value().(bool); ok {
			return boolVal
		}

		// Non-boolean results are treated as a non-match.
		return false
	}

	return false
}

func (f *Filter) String() string {
	return fmt.Sprintf("%s: %s", f.Type, f.Pattern)
}
