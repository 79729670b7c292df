package loop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/signalscope/internal/goid"
)

var (
	// ErrLoopTerminated is returned when work is submitted after Shutdown.
	ErrLoopTerminated = errors.New("loop: loop has been terminated")

	// ErrLoopRunning is returned by Run and Turn while Run is active on
	// another goroutine.
	ErrLoopRunning = errors.New("loop: loop is already running")

	// ErrReentrantRun is returned when Run or Turn is called from inside a
	// task.
	ErrReentrantRun = errors.New("loop: cannot start a turn from within the loop")
)

// microtaskWarnThreshold flags runaway microtask chains.
const microtaskWarnThreshold = 10000

const (
	stateIdle int32 = iota
	stateRunning
	stateTerminated
)

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used to report recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loop is a cooperative scheduler. Only one task runs at a time.
type Loop struct {
	// ingress holds submitted macrotasks. Guarded by mu.
	ingress []func()
	mu      sync.Mutex

	// wake is signalled when ingress becomes non-empty.
	wake chan struct{}

	// turnMu is held for the whole of every turn, whether it is run by Run,
	// Turn or RunPending. At most one task executes at a time.
	turnMu sync.Mutex

	// microtasks is only touched while holding turnMu.
	microtasks []func()

	state atomic.Int32

	// turnGoroutine is the goroutine executing a turn, or 0.
	turnGoroutine atomic.Uint64

	tasksRun atomic.Uint64

	done     chan struct{}
	stopOnce sync.Once

	logger *slog.Logger
}

// New creates an idle loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		wake:       make(chan struct{}, 1),
		microtasks: make([]func(), 0, 16),
		done:       make(chan struct{}),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Submit enqueues fn as a macrotask. Safe from any goroutine.
func (l *Loop) Submit(fn func()) error {
	if fn == nil {
		return nil
	}
	if l.state.Load() == stateTerminated {
		return ErrLoopTerminated
	}

	l.mu.Lock()
	l.ingress = append(l.ingress, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// QueueMicrotask schedules fn to run after the current task returns and
// before the next macrotask. It must be called from inside a turn; called
// elsewhere it is run as a macrotask instead.
func (l *Loop) QueueMicrotask(fn func()) {
	if fn == nil {
		return
	}
	if !l.InTurn() {
		_ = l.Submit(fn)
		return
	}
	l.microtasks = append(l.microtasks, fn)
}

// InTurn reports whether the calling goroutine is executing a loop task.
func (l *Loop) InTurn() bool {
	gid := l.turnGoroutine.Load()
	return gid != 0 && gid == goid.ID()
}

// Turn runs fn as one macrotask on the calling goroutine and drains the
// microtasks it queued. It fails while Run is active elsewhere. A Turn
// that overlaps another Turn waits for it to finish.
func (l *Loop) Turn(fn func()) error {
	if l.InTurn() {
		return ErrReentrantRun
	}
	if err := l.checkIdle(); err != nil {
		return err
	}

	l.turnMu.Lock()
	defer l.turnMu.Unlock()

	// Run may have started while we waited for the previous turn.
	if err := l.checkIdle(); err != nil {
		return err
	}
	l.turn(fn)
	return nil
}

func (l *Loop) checkIdle() error {
	switch l.state.Load() {
	case stateRunning:
		return ErrLoopRunning
	case stateTerminated:
		return ErrLoopTerminated
	}
	return nil
}

// RunPending runs every queued macrotask on the calling goroutine,
// including tasks submitted while draining, and returns how many ran.
func (l *Loop) RunPending() (int, error) {
	n := 0
	for {
		fn, ok := l.next()
		if !ok {
			return n, nil
		}
		if err := l.Turn(fn); err != nil {
			l.requeue(fn)
			return n, err
		}
		n++
	}
}

// Do runs fn on the loop and waits for it. Inside a turn fn runs inline;
// while Run is active fn is submitted and awaited; otherwise it runs as a
// synchronous turn.
func (l *Loop) Do(fn func()) error {
	if l.InTurn() {
		fn()
		return nil
	}
	if l.state.Load() != stateRunning {
		err := l.Turn(fn)
		if !errors.Is(err, ErrLoopRunning) {
			return err
		}
	}

	finished := make(chan struct{})
	if err := l.Submit(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopTerminated
	}
}

// Run processes macrotasks until ctx is done or Shutdown is called. A Turn
// in progress on another goroutine finishes before Run executes its first
// task.
func (l *Loop) Run(ctx context.Context) error {
	if l.InTurn() {
		return ErrReentrantRun
	}
	if !l.state.CompareAndSwap(stateIdle, stateRunning) {
		if l.state.Load() == stateTerminated {
			return ErrLoopTerminated
		}
		return ErrLoopRunning
	}
	defer l.state.CompareAndSwap(stateRunning, stateIdle)

	for {
		if fn, ok := l.next(); ok {
			l.turnMu.Lock()
			l.turn(fn)
			l.turnMu.Unlock()
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case <-l.wake:
		}
	}
}

// Shutdown terminates the loop. Queued tasks are dropped.
func (l *Loop) Shutdown() {
	l.stopOnce.Do(func() {
		l.state.Store(stateTerminated)
		close(l.done)

		l.mu.Lock()
		l.ingress = nil
		l.mu.Unlock()
	})
}

// Pending returns the number of queued macrotasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ingress)
}

// TasksRun returns how many macrotasks have completed.
func (l *Loop) TasksRun() uint64 {
	return l.tasksRun.Load()
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.ingress) == 0 {
		return nil, false
	}
	fn := l.ingress[0]
	l.ingress[0] = nil
	l.ingress = l.ingress[1:]
	return fn, true
}

// requeue puts fn back at the head of the queue after a refused turn.
func (l *Loop) requeue(fn func()) {
	if l.state.Load() == stateTerminated {
		return
	}
	l.mu.Lock()
	l.ingress = append([]func(){fn}, l.ingress...)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// turn executes one macrotask followed by the microtask barrier. The
// caller holds turnMu.
func (l *Loop) turn(fn func()) {
	l.turnGoroutine.Store(goid.ID())
	defer l.turnGoroutine.Store(0)

	l.safeExecute(fn)
	l.drainMicrotasks()
	l.tasksRun.Add(1)
}

func (l *Loop) drainMicrotasks() {
	if len(l.microtasks) == 0 {
		return
	}
	if len(l.microtasks) > microtaskWarnThreshold {
		l.logger.Warn("microtask queue is very long", "length", len(l.microtasks))
	}

	for len(l.microtasks) > 0 {
		fn := l.microtasks[0]
		l.microtasks[0] = nil
		l.microtasks = l.microtasks[1:]
		l.safeExecute(fn)
	}
	l.microtasks = l.microtasks[:0]
}

// safeExecute isolates panics so one task cannot stop the loop.
func (l *Loop) safeExecute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop: task panicked", "panic", r)
		}
	}()
	fn()
}
