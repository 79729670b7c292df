package reactive

import (
	"sync"
	"sync/atomic"
)

// Effect is a tracking computation. Between Start and the returned stop
// function it records every source read on its goroutine; afterwards any
// change to a recorded source invokes its callback, once per batch.
type Effect struct {
	id uint64

	callback func()

	sources   []*source
	sourcesMu sync.Mutex

	disposed atomic.Bool
}

// NewEffect creates an effect that calls callback whenever a recorded
// source changes. callback may be nil.
func NewEffect(callback func()) *Effect {
	return &Effect{
		id:       NextID(),
		callback: callback,
	}
}

// ID implements Listener.
func (e *Effect) ID() uint64 {
	return e.id
}

// MarkDirty implements Listener by invoking the callback synchronously.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() || e.callback == nil {
		return
	}
	e.callback()
}

// Start begins recording. Sources recorded by a previous run are dropped.
// The returned function stops recording and reinstates the listener that
// was current before Start; calling it more than once has no effect.
func (e *Effect) Start() (stop func()) {
	if e.disposed.Load() {
		return func() {}
	}

	e.clearSources()
	prev := setCurrentListener(e)

	var stopped bool
	return func() {
		if stopped {
			return
		}
		stopped = true

		// Only unwind if nothing else took over in the meantime.
		ctx := getTrackingContext()
		if ctx.currentListener == Listener(e) {
			ctx.currentListener = prev
		}
	}
}

// Sources returns the number of sources recorded by the last run.
func (e *Effect) Sources() int {
	e.sourcesMu.Lock()
	defer e.sourcesMu.Unlock()
	return len(e.sources)
}

// Disposed reports whether Dispose has been called.
func (e *Effect) Disposed() bool {
	return e.disposed.Load()
}

// Dispose unsubscribes from every source. A disposed effect never calls
// back and cannot record again.
func (e *Effect) Dispose() {
	if e.disposed.Swap(true) {
		return
	}
	e.clearSources()
}

func (e *Effect) addSource(src *source) {
	e.sourcesMu.Lock()
	defer e.sourcesMu.Unlock()

	for _, s := range e.sources {
		if s == src {
			return
		}
	}
	e.sources = append(e.sources, src)
}

func (e *Effect) clearSources() {
	e.sourcesMu.Lock()
	sources := e.sources
	e.sources = nil
	e.sourcesMu.Unlock()

	for _, src := range sources {
		src.unsubscribe(e)
	}
}
