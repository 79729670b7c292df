package host

import "sync/atomic"

// storeSub is the per-slot state of UseSyncExternalStore.
type storeSub struct {
	inst *Instance

	subscribe   func(onChange func()) (unsubscribe func())
	getSnapshot func() int32

	// last is the snapshot seen by the latest render.
	last atomic.Int32

	unsubscribe func()
}

// UseSyncExternalStore reads an external store during render. It returns
// the store's current snapshot and, once the render is committed,
// subscribes to the store. When the store reports a change whose snapshot
// differs from the one last rendered, the instance is re-rendered.
func UseSyncExternalStore(inst *Instance, subscribe func(onChange func()) (unsubscribe func()), getSnapshot func() int32) int32 {
	sub := UseSlot(inst, func() *storeSub {
		s := &storeSub{inst: inst}
		inst.stores = append(inst.stores, s)
		return s
	})
	sub.subscribe = subscribe
	sub.getSnapshot = getSnapshot

	v := getSnapshot()
	sub.last.Store(v)
	return v
}

// subscribeNow subscribes if not already subscribed. It reports whether the
// snapshot moved since the last render.
func (s *storeSub) subscribeNow() bool {
	if s.unsubscribe != nil || s.subscribe == nil {
		return false
	}

	snapshot := s.getSnapshot
	inst := s.inst
	s.unsubscribe = s.subscribe(func() {
		if snapshot() != s.last.Load() {
			inst.invalidate()
		}
	})
	return snapshot() != s.last.Load()
}

func (s *storeSub) unsubscribeNow() {
	if s.unsubscribe == nil {
		return
	}
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	unsubscribe()
}
