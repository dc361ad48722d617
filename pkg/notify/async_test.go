package notify_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nudgedev/nudge/pkg/engine"
	"github.com/nudgedev/nudge/pkg/notify"
)

func TestAsyncDeliversInOrder(t *testing.T) {
	t.Parallel()

	var (
		mu  sync.Mutex
		got []string
	)

	inner := engine.NotifierFunc(func(_ context.Context, ruleName, message string) error {
		mu.Lock()
		defer mu.Unlock()

		got = append(got, ruleName+": "+message)

		return nil
	})

	a := notify.NewAsync(inner)

	require.NoError(t, a.Notify(t.Context(), "symfony-controller", "Register the route"))
	require.NoError(t, a.Notify(t.Context(), "twig-template", "Clear the template cache"))

	a.Close()

	assert.Equal(t, []string{
		"symfony-controller: Register the route",
		"twig-template: Clear the template cache",
	}, got)
}

func TestAsyncQueueFull(t *testing.T) {
	t.Parallel()

	started := make(chan struct{}, 2)
	release := make(chan struct{})

	inner := engine.NotifierFunc(func(_ context.Context, _, _ string) error {
		started <- struct{}{}
		<-release

		return nil
	})

	a := notify.NewAsync(inner, notify.WithQueueSize(1))

	// First delivery occupies the worker, second fills the queue.
	require.NoError(t, a.Notify(t.Context(), "a", "m"))
	<-started
	require.NoError(t, a.Notify(t.Context(), "b", "m"))

	err := a.Notify(t.Context(), "c", "m")
	require.ErrorIs(t, err, notify.ErrQueueFull)

	close(release)
	a.Close()
}

func TestAsyncSurvivesCallerCancellation(t *testing.T) {
	t.Parallel()

	delivered := make(chan struct{})

	inner := engine.NotifierFunc(func(ctx context.Context, _, _ string) error {
		assert.NoError(t, ctx.Err())
		close(delivered)

		return nil
	})

	a := notify.NewAsync(inner)

	ctx, cancel := context.WithCancel(t.Context())
	require.NoError(t, a.Notify(ctx, "rule", "message"))
	cancel()

	<-delivered
	a.Close()
}
