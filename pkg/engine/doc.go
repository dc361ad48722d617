// Package engine evaluates filesystem events against compiled trigger rules
// and dispatches the actions of every matching rule.
//
// The active rules live in an immutable snapshot behind an atomic pointer,
// so concurrent evaluations never contend and reloads are a single swap.
package engine
