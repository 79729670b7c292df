// Package loop provides a single-goroutine cooperative event loop.
//
// Work is split into macrotasks and microtasks. Macrotasks are submitted
// from any goroutine and run one at a time in FIFO order. Microtasks are
// queued from inside a running task and are drained after the task
// returns, before the next macrotask starts. Code that needs to run "once
// the current synchronous work is done" queues a microtask.
//
// A loop can be driven in the background with Run, or synchronously with
// Turn and RunPending, which is what tests do.
package loop
