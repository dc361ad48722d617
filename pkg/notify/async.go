package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nudgedev/nudge/pkg/engine"
	"github.com/nudgedev/nudge/pkg/log"
)

const defaultQueueSize = 64

// ErrQueueFull is returned when an [Async] notifier cannot accept another
// delivery without blocking.
var ErrQueueFull = errors.New("notification queue full")

type delivery struct {
	ctx     context.Context //nolint:containedctx // Carries trace context across the queue.
	rule    string
	message string
}

// Async decouples delivery from evaluation. Notify enqueues and returns
// immediately; a background worker drains the queue so a slow downstream
// notifier cannot stall the caller. Delivery failures are logged, not
// returned.
type Async struct {
	next      engine.Notifier
	queue     chan delivery
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// AsyncOpt configures an [Async] notifier.
type AsyncOpt func(*Async)

// WithQueueSize sets the delivery queue capacity.
func WithQueueSize(size int) AsyncOpt {
	return func(a *Async) {
		if size > 0 {
			a.queue = make(chan delivery, size)
		}
	}
}

// NewAsync creates an [Async] notifier delivering to next.
func NewAsync(next engine.Notifier, opts ...AsyncOpt) *Async {
	a := &Async{
		next:  next,
		queue: make(chan delivery, defaultQueueSize),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.wg.Add(1)

	go a.deliver()

	return a
}

func (a *Async) deliver() {
	defer a.wg.Done()

	for d := range a.queue {
		err := a.next.Notify(d.ctx, d.rule, d.message)
		if err != nil {
			log.WithContext(d.ctx).ErrorContext(d.ctx, "notification delivery failed",
				slog.String("rule", d.rule),
				slog.Any("err", err),
			)
		}
	}
}

// Notify implements [engine.Notifier]. The delivery context is detached from
// cancellation so an in-flight delivery survives the caller returning.
func (a *Async) Notify(ctx context.Context, ruleName, message string) error {
	select {
	case a.queue <- delivery{ctx: context.WithoutCancel(ctx), rule: ruleName, message: message}:
		return nil
	default:
		return fmt.Errorf("%w: dropping suggestion for rule %q", ErrQueueFull, ruleName)
	}
}

// Close drains pending deliveries and stops the worker. Notify must not be
// called after Close.
func (a *Async) Close() {
	a.closeOnce.Do(func() {
		close(a.queue)
	})

	a.wg.Wait()
}
