package scope

import (
	"sync"
	"sync/atomic"

	"github.com/vango-dev/signalscope/pkg/reactive"
)

// Scope attributes signal reads made between Start and Finish to one
// render or hook invocation, and reports later changes to the host via
// Subscribe and Snapshot.
//
// A Scope is created once per component or hook instance and reused
// across re-invocations until the host tears the instance down.
type Scope struct {
	id      uint64
	mode    UsageMode
	tracker *Tracker

	// effect is owned exclusively by the scope.
	effect *reactive.Effect

	// version is the host-visible snapshot. It wraps at 32 bits.
	version atomic.Int32

	mu       sync.Mutex
	onChange func()
	subID    uint64

	// Populated by Start, consumed by Finish. Only touched on the render
	// goroutine.
	endTracking func()
	restore     bool
	saved       *Scope
}

func newScope(t *Tracker, mode UsageMode) *Scope {
	s := &Scope{
		id:      reactive.NextID(),
		mode:    mode,
		tracker: t,
	}
	s.effect = reactive.NewEffect(s.notify)
	return s
}

// ID returns the scope's unique identifier.
func (s *Scope) ID() uint64 { return s.id }

// Mode returns the scope's usage mode.
func (s *Scope) Mode() UsageMode { return s.mode }

// Tracking reports whether the scope is currently recording reads.
func (s *Scope) Tracking() bool { return s.endTracking != nil }

// Dependencies returns the number of sources recorded by the last run.
func (s *Scope) Dependencies() int { return s.effect.Sources() }

// Start begins attributing reads to this scope, or to the active managed
// scope when this one is unmanaged and nested inside it. Every Start must
// be paired with Finish on the same synchronous path.
func (s *Scope) Start() {
	s.tracker.start(s)
}

// Finish stops attribution and reinstates the scope displaced by Start,
// if any. It is a no-op when the scope is not tracking, so calling it
// twice or without Start is safe.
func (s *Scope) Finish() {
	s.tracker.finish(s)
}

// Close calls Finish. It lets a scope be released with defer through
// io.Closer.
func (s *Scope) Close() error {
	s.Finish()
	return nil
}

// Subscribe registers the host's change callback and returns the function
// that removes it. Removing a subscription always bumps the version so a
// host that re-subscribes without re-rendering sees a new snapshot.
func (s *Scope) Subscribe(onChange func()) (unsubscribe func()) {
	s.mu.Lock()
	s.subID++
	sub := s.subID
	s.onChange = onChange
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v := s.version.Add(1)

			s.mu.Lock()
			if s.subID == sub {
				s.onChange = nil
			}
			s.mu.Unlock()

			s.tracker.observe(Event{Kind: EventUnsubscribed, ScopeID: s.id, Mode: s.mode, Version: v})
		})
	}
}

// Snapshot returns the current version. It has no side effects.
func (s *Scope) Snapshot() int32 {
	return s.version.Load()
}

// Subscribed reports whether a host callback is registered.
func (s *Scope) Subscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onChange != nil
}

// Dispose permanently tears the scope down: it finishes any recording,
// drops the host callback and disposes the owned effect.
func (s *Scope) Dispose() {
	if s.effect.Disposed() {
		return
	}
	s.Finish()

	s.mu.Lock()
	s.onChange = nil
	s.mu.Unlock()

	s.effect.Dispose()
	s.tracker.observe(Event{Kind: EventDisposed, ScopeID: s.id, Mode: s.mode, Version: s.Snapshot()})
}

// notify is the effect callback: the only path from a source change to
// the host.
func (s *Scope) notify() {
	v := s.version.Add(1)

	s.mu.Lock()
	onChange := s.onChange
	s.mu.Unlock()

	s.tracker.observe(Event{Kind: EventNotified, ScopeID: s.id, Mode: s.mode, Version: v})
	if onChange != nil {
		onChange()
	}
}
