// Package signals binds the scope runtime to the host: render functions
// and custom hooks that read signals re-render when those signals change.
//
// Instrumented components acquire a managed scope and always finish it:
//
//	func Greeting(inst *host.Instance) string {
//	    s := signals.UseSignals(inst, scope.ManagedComponent)
//	    defer s.Finish()
//	    return "Hello " + name.Get()
//	}
//
// Component and Hook wrap bodies that way. A bare, unfinished
// UseSignals(inst, scope.Unmanaged) is closed by the reaper once the
// render turn ends.
package signals

import (
	"github.com/vango-dev/signalscope/pkg/host"
	"github.com/vango-dev/signalscope/pkg/scope"
)

// binding is the per-slot state created by the first UseSignals call of an
// instance slot. Later calls reuse it without allocating.
type binding struct {
	scope     *scope.Scope
	subscribe func(onChange func()) (unsubscribe func())
	snapshot  func() int32
}

// UseSignals obtains the instance's persistent scope for this hook slot,
// creating it in mode on first use, subscribes it to the host and starts
// it. The caller must Finish the returned scope unless mode is Unmanaged.
// The scope is disposed when the instance unmounts.
func UseSignals(inst *host.Instance, mode scope.UsageMode) *scope.Scope {
	b := host.UseSlot(inst, func() *binding {
		s := inst.Renderer().Tracker().NewScope(mode)
		inst.OnCleanup(s.Dispose)
		return &binding{
			scope:     s,
			subscribe: s.Subscribe,
			snapshot:  s.Snapshot,
		}
	})

	host.UseSyncExternalStore(inst, b.subscribe, b.snapshot)
	b.scope.Start()
	return b.scope
}

// Component wraps a render function so every signal it reads re-renders
// the instance on change.
func Component(render host.RenderFunc) host.RenderFunc {
	return func(inst *host.Instance) string {
		s := UseSignals(inst, scope.ManagedComponent)
		defer s.Finish()
		return render(inst)
	}
}

// Hook runs a custom hook body in its own managed scope. Reads inside fn
// re-render inst on change; reads made by the caller after Hook returns
// go back to the caller's scope.
func Hook[T any](inst *host.Instance, fn func() T) T {
	s := UseSignals(inst, scope.ManagedHook)
	defer s.Finish()
	return fn()
}
