package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nudgedev/nudge/pkg/event"
	"github.com/nudgedev/nudge/pkg/log"
	"github.com/nudgedev/nudge/pkg/rule"
)

// Notifier delivers a matched rule's message to the host's notification
// surface. The engine calls Notify once per matched rule per event and uses
// the returned error only for isolation and logging; delivery is not retried.
type Notifier interface {
	Notify(ctx context.Context, ruleName, message string) error
}

// NotifierFunc adapts a function to the [Notifier] interface.
type NotifierFunc func(ctx context.Context, ruleName, message string) error

func (f NotifierFunc) Notify(ctx context.Context, ruleName, message string) error {
	return f(ctx, ruleName, message)
}

// Dispatch records one action fired for one matched rule.
type Dispatch struct {
	Err     error
	Rule    string
	Message string
}

// Engine evaluates filesystem events against an immutable rule snapshot and
// dispatches the actions of every matching rule. The snapshot is held behind
// an atomic pointer: reloads swap the whole snapshot at once, and in-flight
// evaluations continue against the snapshot they started with. The read path
// takes no locks.
type Engine struct {
	notifier  Notifier
	tracer    trace.Tracer
	rules     atomic.Pointer[RuleSet]
	listeners []chan<- Event
	mu        sync.Mutex
}

// New creates an [Engine] dispatching to the given notifier, with an empty
// rule snapshot.
func New(notifier Notifier, opts ...EngineOpt) *Engine {
	e := &Engine{
		notifier: notifier,
		tracer:   otel.Tracer("rule-engine"),
	}
	e.rules.Store(&RuleSet{})

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// EngineOpt is a functional option for configuring an [Engine].
type EngineOpt func(*Engine)

// WithRuleSet sets the initial rule snapshot.
func WithRuleSet(rs *RuleSet) EngineOpt {
	return func(e *Engine) {
		e.rules.Store(rs)
	}
}

// RuleSet returns the active snapshot.
func (e *Engine) RuleSet() *RuleSet {
	return e.rules.Load()
}

// SetRuleSet atomically swaps the active snapshot. In-flight evaluations
// keep the snapshot they started with.
func (e *Engine) SetRuleSet(rs *RuleSet) {
	e.rules.Store(rs)
	e.broadcast(EventLoad{Rules: rs.Len()})
}

// Reload compiles the given rules into a new snapshot and swaps it in.
// Rules that fail to compile are excluded and returned as [LoadError]s; the
// swap happens regardless, so the engine degrades to fewer active rules
// rather than refusing the reload.
func (e *Engine) Reload(ctx context.Context, rules []*rule.Rule) []LoadError {
	rs, errs := Load(rules)

	logger := log.WithContext(ctx)
	for _, loadErr := range errs {
		logger.WarnContext(ctx, "rule excluded from snapshot",
			slog.String("rule", loadErr.Name),
			slog.Any("error", loadErr.Err),
		)
	}

	e.SetRuleSet(rs)
	logger.DebugContext(ctx, "loaded rule snapshot",
		slog.Int("active", rs.Len()),
		slog.Int("excluded", len(errs)),
	)

	return errs
}

// Evaluate runs one event through every rule of the active snapshot, in load
// order, and dispatches the actions of each matching rule exactly once. A
// failing dispatch is recorded on its [Dispatch] and never prevents the
// evaluation of subsequent actions or rules. Evaluate is a pure function of
// (snapshot, event); it retains no state between calls.
func (e *Engine) Evaluate(ctx context.Context, evt event.Event) []Dispatch {
	ctx, span := e.tracer.Start(ctx, "evaluate", trace.WithAttributes(
		attribute.String("path", evt.Path),
		attribute.String("kind", string(evt.Kind)),
	))
	defer span.End()

	logger := log.WithContext(ctx)
	snapshot := e.rules.Load()

	var dispatches []Dispatch

	for _, r := range snapshot.Rules() {
		if !r.Matches(evt) {
			continue
		}

		e.broadcast(EventMatch{Rule: r.Name, Event: evt})

		for _, a := range r.Actions {
			d := Dispatch{Rule: r.Name, Message: a.Message}

			err := e.notifier.Notify(ctx, r.Name, a.Message)
			if err != nil {
				d.Err = fmt.Errorf("dispatch %q: %w", r.Name, err)
				logger.ErrorContext(ctx, "action dispatch failed",
					slog.String("rule", r.Name),
					slog.Any("error", err),
				)
				e.broadcast(EventDispatchError{Rule: r.Name, Err: err})
			}

			dispatches = append(dispatches, d)
		}
	}

	span.SetAttributes(attribute.Int("dispatches", len(dispatches)))
	logger.DebugContext(ctx, "evaluated event",
		slog.String("event", evt.String()),
		slog.Int("rules", snapshot.Len()),
		slog.Int("dispatches", len(dispatches)),
	)

	return dispatches
}

// Subscribe registers a channel to receive engine events. Subscribers must
// drain their channel; broadcast blocks on slow listeners.
func (e *Engine) Subscribe(ch chan<- Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.listeners = append(e.listeners, ch)
}

func (e *Engine) broadcast(evt Event) {
	e.mu.Lock()
	listeners := e.listeners
	e.mu.Unlock()

	for _, ch := range listeners {
		ch <- evt
	}
}
