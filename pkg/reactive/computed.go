package reactive

import (
	"sync"
	"sync/atomic"
)

// Computed is a lazily evaluated derived value. It records the sources its
// compute function reads and is itself a source for whoever reads it.
type Computed[T any] struct {
	base source

	compute func() T

	value   T
	valueMu sync.RWMutex

	// valid is false until the first evaluation and after invalidation.
	valid atomic.Bool

	sources   []*source
	sourcesMu sync.Mutex

	// computing breaks cycles.
	computing atomic.Bool
}

// NewComputed creates a computed value. compute runs on first read.
func NewComputed[T any](compute func() T) *Computed[T] {
	return &Computed[T]{
		base:    source{id: NextID()},
		compute: compute,
	}
}

// Get returns the value, recomputing it if stale, and records the read on
// the current listener.
func (c *Computed[T]) Get() T {
	c.base.track()
	return c.Peek()
}

// Peek returns the value without recording a dependency.
func (c *Computed[T]) Peek() T {
	if !c.valid.Load() {
		c.recompute()
	}
	c.valueMu.RLock()
	defer c.valueMu.RUnlock()
	return c.value
}

// MarkDirty implements Listener: it invalidates the cached value and
// forwards the notification to dependents.
func (c *Computed[T]) MarkDirty() {
	if c.valid.CompareAndSwap(true, false) {
		c.base.notify()
	}
}

// ID implements Listener.
func (c *Computed[T]) ID() uint64 {
	return c.base.id
}

func (c *Computed[T]) addSource(src *source) {
	c.sourcesMu.Lock()
	defer c.sourcesMu.Unlock()

	for _, s := range c.sources {
		if s == src {
			return
		}
	}
	c.sources = append(c.sources, src)
}

func (c *Computed[T]) recompute() {
	if c.computing.Swap(true) {
		return
	}
	defer c.computing.Store(false)

	c.sourcesMu.Lock()
	for _, src := range c.sources {
		src.unsubscribe(c)
	}
	c.sources = c.sources[:0]
	c.sourcesMu.Unlock()

	old := setCurrentListener(c)
	value := c.compute()
	setCurrentListener(old)

	c.valueMu.Lock()
	c.value = value
	c.valueMu.Unlock()
	c.valid.Store(true)
}
