package scope

import (
	"log/slog"
	"sync/atomic"
)

// Scheduler queues a function to run once the current synchronous turn has
// finished, before the host yields to other work. *loop.Loop satisfies it.
type Scheduler interface {
	QueueMicrotask(fn func())
}

// maxSweep bounds a single sweep in case a restore chain is corrupted by
// out-of-order finishes.
const maxSweep = 1024

// Option configures a Tracker.
type Option func(*Tracker)

// WithScheduler enables the reaper on s. Without a scheduler, dangling
// unmanaged scopes are only closed by the next start or by Sweep.
func WithScheduler(s Scheduler) Option {
	return func(t *Tracker) {
		t.scheduler = s
	}
}

// WithObserver sets the observer receiving scope events.
func WithObserver(o Observer) Option {
	return func(t *Tracker) {
		if o != nil {
			t.observer = o
		}
	}
}

// WithLogger sets the tracker's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Tracker is the scope stack register of one render goroutine. It holds
// the single active scope and decides on every Start whether the active
// scope is finished, folded into, or suspended and later restored.
//
// A Tracker is not safe for concurrent use: Start, Finish and the reaper
// must all run on the goroutine that renders. Only scope notifications may
// arrive from other goroutines.
type Tracker struct {
	active *Scope

	scheduler   Scheduler
	reaperArmed bool

	observer Observer
	logger   *slog.Logger

	reaped atomic.Uint64
}

// NewTracker creates a tracker with no active scope.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		observer: nopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewScope creates a scope bound to t.
func (t *Tracker) NewScope(mode UsageMode) *Scope {
	return newScope(t, mode)
}

// Active returns the scope reads are currently attributed to, or nil.
func (t *Tracker) Active() *Scope {
	return t.active
}

// ReaperArmed reports whether a reaper run is queued.
func (t *Tracker) ReaperArmed() bool {
	return t.reaperArmed
}

// Reaped returns how many scopes the reaper or Sweep force-finished.
func (t *Tracker) Reaped() uint64 {
	return t.reaped.Load()
}

// Sweep force-finishes every active scope and returns how many it closed.
// The reaper calls it; hosts without a scheduler may call it at the end of
// each turn.
func (t *Tracker) Sweep() int {
	n := 0
	for s := t.active; s != nil && n < maxSweep; s = t.active {
		t.logger.Debug("reaping dangling scope", "scope_id", s.id, "mode", s.mode)
		t.observe(Event{Kind: EventReaped, ScopeID: s.id, Mode: s.mode, Version: s.Snapshot()})
		t.reaped.Add(1)

		s.Finish()
		if t.active == s {
			t.active = nil
		}
		n++
	}
	return n
}

func (t *Tracker) start(s *Scope) {
	if s.mode == Unmanaged {
		t.armReaper()
	}

	prev := t.active

	// Re-entrant start of the same scope restarts its recording.
	if prev == s {
		if s.endTracking != nil {
			s.endTracking()
		}
		s.endTracking = s.effect.Start()
		return
	}

	var act Action
	if prev != nil {
		act = Transition(true, prev.mode, s.mode)
	}

	if act.Fold {
		t.logger.Debug("scope folded into active scope", "scope_id", s.id, "active_id", prev.id)
		t.observe(Event{Kind: EventFolded, ScopeID: s.id, Mode: s.mode, Version: s.Snapshot(), Action: act})
		return
	}

	if act.FinishPrevious {
		prev.Finish()
	}
	if act.SaveForRestore {
		s.saved, s.restore = prev, true
	} else {
		s.saved, s.restore = nil, false
	}

	s.endTracking = s.effect.Start()
	t.active = s

	t.logger.Debug("scope started", "scope_id", s.id, "mode", s.mode, "action", act.String())
	t.observe(Event{Kind: EventStarted, ScopeID: s.id, Mode: s.mode, Version: s.Snapshot(), Action: act})
}

func (t *Tracker) finish(s *Scope) {
	end := s.endTracking
	if end == nil {
		return
	}
	s.endTracking = nil
	end()

	saved, restore := s.saved, s.restore
	s.saved, s.restore = nil, false

	var restored uint64
	if t.active == s {
		t.active = nil
		// A saved scope that was finished meanwhile is not reinstated.
		if restore && saved != nil && saved.endTracking != nil {
			t.active = saved
			restored = saved.id
		}
	}

	t.observe(Event{Kind: EventFinished, ScopeID: s.id, Mode: s.mode, Version: s.Snapshot(), Restored: restored})
}

// armReaper queues one sweep for the end of the current turn.
func (t *Tracker) armReaper() {
	if t.reaperArmed || t.scheduler == nil {
		return
	}
	t.reaperArmed = true
	t.scheduler.QueueMicrotask(t.reap)
}

func (t *Tracker) reap() {
	t.reaperArmed = false
	if n := t.Sweep(); n > 0 {
		t.logger.Debug("reaper closed dangling scopes", "count", n)
	}
}

func (t *Tracker) observe(ev Event) {
	t.observer.Observe(ev)
}
