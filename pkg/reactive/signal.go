package reactive

import (
	"reflect"
	"sync"
)

// source provides type-erased subscriber management. It is embedded in
// Signal and Computed.
type source struct {
	id uint64

	subs  []Listener
	subMu sync.RWMutex
}

// subscribe adds l, deduplicating by listener ID.
func (s *source) subscribe(l Listener) {
	if l == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for _, existing := range s.subs {
		if existing.ID() == lid {
			return
		}
	}
	s.subs = append(s.subs, l)
}

func (s *source) unsubscribe(l Listener) {
	if l == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for i, existing := range s.subs {
		if existing.ID() == lid {
			s.subs[i] = s.subs[len(s.subs)-1]
			s.subs[len(s.subs)-1] = nil
			s.subs = s.subs[:len(s.subs)-1]
			return
		}
	}
}

// subscriberCount reports how many listeners depend on this source.
func (s *source) subscriberCount() int {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	return len(s.subs)
}

// track attributes a read of s to the current listener, if any.
func (s *source) track() {
	l := CurrentListener()
	if l == nil {
		return
	}
	s.subscribe(l)
	if r, ok := l.(sourceRecorder); ok {
		r.addSource(s)
	}
}

// notify tells every subscriber that s changed. Inside a batch the
// notification is queued until the outermost batch completes.
func (s *source) notify() {
	s.subMu.RLock()
	subs := make([]Listener, len(s.subs))
	copy(subs, s.subs)
	s.subMu.RUnlock()

	ctx := getTrackingContext()
	if ctx.batchDepth > 0 {
		ctx.pendingUpdates = append(ctx.pendingUpdates, subs...)
		return
	}
	for _, sub := range subs {
		sub.MarkDirty()
	}
}

// Signal is a reactive value container. Reading it with Get while a
// listener is current subscribes that listener to later changes.
type Signal[T any] struct {
	base source

	value T
	mu    sync.RWMutex

	// equal decides whether a write changes the value. nil uses
	// defaultEquals.
	equal func(T, T) bool
}

// NewSignal creates a signal holding initial.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{
		base:  source{id: NextID()},
		value: initial,
	}
}

// Get returns the current value and records the read on the current
// listener.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	value := s.value
	s.mu.RUnlock()

	// Track after releasing the value lock.
	s.base.track()
	return value
}

// Peek returns the current value without recording a dependency.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set stores value and notifies dependents if it differs from the
// current one.
func (s *Signal[T]) Set(value T) {
	s.mu.Lock()
	changed := !s.equals(s.value, value)
	if changed {
		s.value = value
	}
	s.mu.Unlock()

	if changed {
		s.base.notify()
	}
}

// Update replaces the value with fn(current).
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	old := s.value
	next := fn(old)
	changed := !s.equals(old, next)
	if changed {
		s.value = next
	}
	s.mu.Unlock()

	if changed {
		s.base.notify()
	}
}

// WithEquals sets a custom equality function and returns s.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// ID returns the signal's unique identifier.
func (s *Signal[T]) ID() uint64 {
	return s.base.id
}

// Subscribers returns the number of listeners currently depending on s.
func (s *Signal[T]) Subscribers() int {
	return s.base.subscriberCount()
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for common scalar types and reflect.DeepEqual for
// everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	case int:
		return av == any(b).(int)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint64:
		return av == any(b).(uint64)
	case float64:
		return av == any(b).(float64)
	default:
		return reflect.DeepEqual(a, b)
	}
}
