package reactive

import (
	"sync"

	"github.com/vango-dev/signalscope/internal/goid"
)

// trackingContext holds the reactive state of a single goroutine.
type trackingContext struct {
	// currentListener is what signal reads are attributed to.
	// nil means reads are not tracked.
	currentListener Listener

	// batchDepth counts nested Batch calls.
	batchDepth int

	// pendingUpdates accumulates listeners notified while batching.
	pendingUpdates []Listener
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

func getTrackingContext() *trackingContext {
	gid := goid.ID()
	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}
	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// CurrentListener returns the listener reads are currently attributed to
// on this goroutine, or nil.
func CurrentListener() Listener {
	return getTrackingContext().currentListener
}

// setCurrentListener installs l and returns the previous listener.
func setCurrentListener(l Listener) Listener {
	ctx := getTrackingContext()
	old := ctx.currentListener
	ctx.currentListener = l
	return old
}

// WithListener runs fn with l as the current listener.
func WithListener(l Listener, fn func()) {
	old := setCurrentListener(l)
	defer setCurrentListener(old)
	fn()
}

// ReleaseGoroutine drops the tracking context of the calling goroutine.
// Long-lived goroutines that stop touching signals may call it to avoid
// keeping the context alive.
func ReleaseGoroutine() {
	trackingContexts.Delete(goid.ID())
}
