package petty_test

import (
	"context"
	"testing"
	"time"

	"github.com/jarlopez/petty"
	"github.com/jarlopez/petty/selector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTwiceReturnsErrLoopAlreadyRunning(t *testing.T) {
	loop, err := petty.New(petty.WithTimeoutMS(20))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- loop.Run(ctx) }()

	require.Eventually(t, func() bool {
		return loop.Run(context.Background()) == petty.ErrLoopAlreadyRunning
	}, time.Second, 5*time.Millisecond, "Run must report ErrLoopAlreadyRunning once the background Run has started")

	cancel()
	select {
	case <-runErr:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestShutdownStopsRunAndFurtherSubmitFails(t *testing.T) {
	loop, err := petty.New(petty.WithTimeoutMS(20))
	require.NoError(t, err)

	runErr := make(chan error, 1)
	go func() { runErr <- loop.Run(context.Background()) }()

	// Give Run a moment to flip from idle to running before Shutdown races it.
	time.Sleep(20 * time.Millisecond)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, loop.Shutdown(shutdownCtx))

	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Shutdown")
	}

	assert.Equal(t, petty.ErrLoopTerminated, loop.Submit(func(*selector.Selector, chan<- petty.Trigger) {}))
}

func TestSubmitDeliversWorkInFIFOOrder(t *testing.T) {
	loop, err := petty.New(petty.WithTimeoutMS(20))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	var order []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, loop.Submit(func(sel *selector.Selector, out chan<- petty.Trigger) {
			order = append(order, i)
			if i == 4 {
				close(done)
			}
		}))
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("submitted work was not drained")
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)

	shutdownCtx, scancel := context.WithTimeout(context.Background(), time.Second)
	defer scancel()
	require.NoError(t, loop.Shutdown(shutdownCtx))
}

func TestPanickingWorkDoesNotKillTheLoop(t *testing.T) {
	loop, err := petty.New(petty.WithTimeoutMS(20))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	require.NoError(t, loop.Submit(func(*selector.Selector, chan<- petty.Trigger) {
		panic("boom")
	}))

	ran := make(chan struct{})
	require.NoError(t, loop.Submit(func(*selector.Selector, chan<- petty.Trigger) {
		close(ran)
	}))

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("loop goroutine did not survive a panicking Work closure")
	}

	shutdownCtx, scancel := context.WithTimeout(context.Background(), time.Second)
	defer scancel()
	require.NoError(t, loop.Shutdown(shutdownCtx))
}
