// Package scope is the nested tracking-scope runtime.
//
// A Scope is opened before a component render or custom hook body runs and
// closed afterwards. Every signal read in between is attributed to the
// innermost active scope of its Tracker. When a recorded signal later
// changes, the scope bumps its 32-bit version and calls the host's change
// callback, which is how the host learns it must re-render.
//
// Injected code acquires scopes in a managed mode and always finishes them:
//
//	s := tracker.NewScope(scope.ManagedComponent)
//	s.Start()
//	defer s.Finish()
//
// Nesting follows a call stack. What a Start does to the already active
// scope depends on both usage modes and is decided by Transition. Unmanaged
// scopes, started by bare calls that never finish explicitly, are closed by
// the next unrelated start or by the reaper, a single microtask queued on
// the Tracker's Scheduler that sweeps whatever is still active once the
// current synchronous turn completes.
//
// Subscribe and Snapshot have the shape of an external-store subscription:
// the host compares snapshots to decide whether to re-render.
package scope
