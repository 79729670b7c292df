package reactive

import "sync/atomic"

// idCounter is the source of unique IDs for sources and listeners.
var idCounter atomic.Uint64

// NextID returns the next unique ID. IDs are never reused.
func NextID() uint64 {
	return idCounter.Add(1)
}
