// Package devtools serves an inspection endpoint for a running tracker.
//
// Routes:
//
//	GET /metrics       Prometheus exposition
//	GET /debug/scopes  JSON summary of the tracker and recent scope events
//	GET /ws            live feed of scope events as JSON text frames,
//	                   optionally filtered with ?filter=<expr>
//
// The Feed implements scope.Observer and never blocks the render loop. A
// client whose buffer is full misses events; the miss is counted in its
// dropped total.
package devtools
