package petty

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jarlopez/petty/channel"
	"github.com/jarlopez/petty/internal/queue"
	"github.com/jarlopez/petty/logging"
	"github.com/jarlopez/petty/metrics"
	"github.com/jarlopez/petty/nativeudt"
	"github.com/jarlopez/petty/selector"
)

type loopState int32

const (
	stateIdle loopState = iota
	stateRunning
	stateTerminating
	stateTerminated
)

// Loop is the selector event loop: the thread (goroutine) that owns the
// Selector, runs the select -> process -> drain-tasks cycle until its
// context is cancelled or Shutdown is called, fans out Triggers on its
// outbound event channel, and drains Work closures submitted on its inbound
// task queue.
type Loop struct {
	sel *selector.Selector

	inbound  *queue.Queue
	outbound chan Trigger

	state     atomic.Int32
	stopOnce  sync.Once
	done      chan struct{}
	timeoutMs int

	// scratch is the loop's reusable RWEvent buffer: cleared, not
	// reallocated, at the top of every processSelected cycle.
	scratch []channel.RWEvent

	log     logging.Logger
	metrics *metrics.Metrics
}

// Option configures a Loop constructed by New.
type Option func(*Loop)

// WithTimeoutMS overrides the native poller wait timeout, in milliseconds.
func WithTimeoutMS(ms int) Option {
	return func(l *Loop) { l.timeoutMs = ms }
}

// WithOutboundBuffer sets the outbound Trigger channel's buffer size.
// Defaults to a large bounded buffer (see DESIGN.md open question
// decisions); exposed for callers who want a different slow-consumer
// policy. Triggers are never dropped: when the channel is full, the loop
// goroutine blocks on the send until the consumer receives, so a stalled
// consumer stalls the loop.
func WithOutboundBuffer(n int) Option {
	return func(l *Loop) { l.outbound = make(chan Trigger, n) }
}

// WithMetrics attaches a Prometheus metrics bundle that the loop updates as
// it processes readiness and Work. Callers are responsible for registering
// m with a prometheus.Registerer beforehand.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loop) { l.metrics = m }
}

// New creates a Loop with its own Selector and native poller. It performs
// the process-wide native UDT library initialization (idempotent, safe to
// call from multiple Loops).
func New(opts ...Option) (*Loop, error) {
	if err := nativeudt.Init(); err != nil {
		return nil, err
	}
	sel, err := selector.New()
	if err != nil {
		return nil, err
	}

	l := &Loop{
		sel:       sel,
		inbound:   queue.New(),
		outbound:  make(chan Trigger, 4096),
		timeoutMs: DefaultTimeoutMS,
		done:      make(chan struct{}),
		log:       logging.Global(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Events returns the outbound Trigger channel. Callers should range over it
// on their own goroutine.
func (l *Loop) Events() <-chan Trigger { return l.outbound }

// RegistrySize reports how many handles are currently registered with the
// selector, suitable as the poll function behind a metrics.Metrics
// RegistrySize gauge.
func (l *Loop) RegistrySize() int { return l.sel.Size() }

// Submit enqueues a Work closure for execution on the loop goroutine. Safe
// to call from any goroutine; delivered in FIFO order per producer.
func (l *Loop) Submit(w Work) error {
	if loopState(l.state.Load()) == stateTerminated {
		return ErrLoopTerminated
	}
	l.inbound.Push(func() { w(l.sel, l.outbound) })
	return nil
}

// Run drives the main cycle until ctx is cancelled or Shutdown is called.
// It blocks the calling goroutine; run it with `go loop.Run(ctx)` to drive
// it in the background.
func (l *Loop) Run(ctx context.Context) error {
	if !l.state.CompareAndSwap(int32(stateIdle), int32(stateRunning)) {
		if loopState(l.state.Load()) == stateTerminated {
			return ErrLoopTerminated
		}
		return ErrLoopAlreadyRunning
	}
	defer close(l.done)
	defer l.sel.Close()

	for {
		select {
		case <-ctx.Done():
			l.state.Store(int32(stateTerminated))
			l.drainInbound()
			return ctx.Err()
		default:
		}

		if loopState(l.state.Load()) == stateTerminating {
			l.state.Store(int32(stateTerminated))
			l.drainInbound()
			return nil
		}

		cycleStart := time.Now()

		if err := l.sel.Select(l.timeoutMs); err != nil {
			l.log.Error("petty: selector wait failed", logging.Err(err))
			l.state.Store(int32(stateTerminated))
			return err
		}

		l.processSelected()
		l.runInboundTasks()

		if l.metrics != nil {
			l.metrics.SelectCycleDuration.Observe(time.Since(cycleStart).Seconds())
		}
	}
}

// Shutdown requests the loop stop after its current cycle and waits for it
// to finish, or for ctx to expire first.
func (l *Loop) Shutdown(ctx context.Context) error {
	l.stopOnce.Do(func() {
		l.state.CompareAndSwap(int32(stateRunning), int32(stateTerminating))
	})
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runInboundTasks pops from the inbound queue non-blockingly, invoking each
// Work closure in submission order. It runs at most budget closures per
// cycle; any that remain are run on the next cycle.
func (l *Loop) runInboundTasks() {
	const budget = 4096
	for i := 0; i < budget; i++ {
		task, ok := l.inbound.Pop()
		if !ok {
			return
		}
		l.safeExecute(task)
	}
}

func (l *Loop) drainInbound() {
	for {
		task, ok := l.inbound.Pop()
		if !ok {
			return
		}
		l.safeExecute(task)
	}
}

func (l *Loop) safeExecute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("petty: work closure panicked", logging.Str("panic", toString(r)))
		}
	}()
	task()
}

func toString(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "non-error panic value"
}
