// Package host is a minimal component host: it owns component instances,
// renders them on a cooperative loop, persists per-instance hook state in
// slots, and offers UseSyncExternalStore, the subscribe/snapshot primitive
// through which external stores trigger re-renders.
//
// Rendering is synchronous and single-threaded: every render, commit and
// store callback that touches instance state runs on the renderer's loop.
// Store change callbacks may fire on any goroutine; they only compare
// snapshots and submit a re-render task.
package host
