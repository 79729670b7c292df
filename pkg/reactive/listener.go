package reactive

// Listener is anything that can be notified when a dependency changes.
// Effects and computed values implement it.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies changed.
	MarkDirty()

	// ID returns a unique identifier, used to deduplicate batched
	// notifications.
	ID() uint64
}

// sourceRecorder is implemented by listeners that remember which sources
// they read so they can unsubscribe later.
type sourceRecorder interface {
	Listener
	addSource(src *source)
}
