package reactive

// Batch groups signal writes. Listeners notified inside fn are collected,
// deduplicated by ID and notified once when the outermost batch completes.
//
//	reactive.Batch(func() {
//	    first.Set("Jane")
//	    last.Set("Doe")
//	})
//	// each dependent effect calls back once
func Batch(fn func()) {
	ctx := getTrackingContext()
	ctx.batchDepth++

	defer func() {
		ctx.batchDepth--
		if ctx.batchDepth == 0 {
			flushPending(ctx)
		}
	}()

	fn()
}

// flushPending notifies queued listeners. Listeners queued while flushing
// (writes made by callbacks) are flushed in a following round.
func flushPending(ctx *trackingContext) {
	for len(ctx.pendingUpdates) > 0 {
		updates := ctx.pendingUpdates
		ctx.pendingUpdates = nil

		seen := make(map[uint64]struct{}, len(updates))
		for _, l := range updates {
			id := l.ID()
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			l.MarkDirty()
		}
	}
}

// Untracked runs fn without attributing reads to the current listener.
func Untracked(fn func()) {
	old := setCurrentListener(nil)
	defer setCurrentListener(old)
	fn()
}
