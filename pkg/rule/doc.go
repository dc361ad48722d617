// Package rule defines trigger rules: named conjunctions of filters over
// filesystem events, paired with the actions to dispatch on match.
//
// Filter patterns are compiled once when a rule is loaded, so a rule is
// either fully compiled and active, or rejected at load time.
package rule
