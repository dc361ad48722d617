package engine

import (
	"fmt"
	"time"

	"github.com/nudgedev/nudge/pkg/rule"
)

// LoadError reports a single rule that failed to load. The offending rule is
// excluded from the resulting snapshot; other rules are unaffected.
type LoadError struct {
	Err  error
	Name string
	Idx  int
}

func (e LoadError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("rule %q: %v", e.Name, e.Err)
	}

	return fmt.Sprintf("rule %d: %v", e.Idx, e.Err)
}

func (e LoadError) Unwrap() error {
	return e.Err
}

// RuleSet is an immutable snapshot of compiled rules, in load order.
// Snapshots are safe for concurrent use and are swapped atomically on
// reload; they are never mutated after construction.
type RuleSet struct {
	loadedAt time.Time
	rules    []*rule.Rule
}

// Load compiles the given rules into a [RuleSet]. Rules that fail to compile
// are excluded and reported as [LoadError]s; every remaining rule is active.
// The returned snapshot is usable even when errs is non-empty.
func Load(rules []*rule.Rule) (*RuleSet, []LoadError) {
	rs := &RuleSet{
		loadedAt: time.Now(),
		rules:    make([]*rule.Rule, 0, len(rules)),
	}

	var errs []LoadError

	for i, r := range rules {
		if err := r.Compile(); err != nil {
			errs = append(errs, LoadError{Idx: i, Name: r.Name, Err: err})
			continue
		}

		rs.rules = append(rs.rules, r)
	}

	return rs, errs
}

// MustLoad compiles the given rules and panics if any fail.
func MustLoad(rules []*rule.Rule) *RuleSet {
	rs, errs := Load(rules)
	if len(errs) > 0 {
		panic(fmt.Sprintf("load rules: %v", errs[0]))
	}

	return rs
}

// Rules returns the active rules in load order. Callers must not modify the
// returned slice.
func (rs *RuleSet) Rules() []*rule.Rule {
	if rs == nil {
		return nil
	}

	return rs.rules
}

// Len returns the number of active rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}

	return len(rs.rules)
}

// LoadedAt returns the time the snapshot was constructed.
func (rs *RuleSet) LoadedAt() time.Time {
	if rs == nil {
		return time.Time{}
	}

	return rs.loadedAt
}
