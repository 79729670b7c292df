package host

import (
	"context"
	"fmt"
	"sync/atomic"
)

// RenderFunc renders an instance to its output.
type RenderFunc func(inst *Instance) string

var instanceIDCounter atomic.Uint64

func nextInstanceID() string {
	return fmt.Sprintf("c%d", instanceIDCounter.Add(1))
}

// Instance is a mounted component. Its hook slots persist across renders
// until it is unmounted.
type Instance struct {
	id       string
	name     string
	render   RenderFunc
	renderer *Renderer

	parent   *Instance
	children []*Instance

	// slots hold hook state in call order.
	slots   []any
	slotIdx int

	stores   []*storeSub
	cleanups []func()

	// static instances render once for string output and never subscribe.
	static bool

	renders   int
	output    string
	rendering bool
	mounted   bool
	dirty     atomic.Bool

	// ctx carries the render span to nested child renders.
	ctx context.Context
}

func newInstance(r *Renderer, parent *Instance, name string, render RenderFunc) *Instance {
	return &Instance{
		id:       nextInstanceID(),
		name:     name,
		render:   render,
		renderer: r,
		parent:   parent,
		mounted:  true,
		ctx:      context.Background(),
	}
}

// ID returns the instance identifier.
func (inst *Instance) ID() string { return inst.id }

// Name returns the component name given at mount.
func (inst *Instance) Name() string { return inst.name }

// Renderer returns the renderer owning the instance.
func (inst *Instance) Renderer() *Renderer { return inst.renderer }

// Parent returns the parent instance, or nil for a root.
func (inst *Instance) Parent() *Instance { return inst.parent }

// Renders returns how many times the instance has rendered.
func (inst *Instance) Renders() int { return inst.renders }

// Output returns the output of the last render.
func (inst *Instance) Output() string { return inst.output }

// Mounted reports whether the instance is still mounted.
func (inst *Instance) Mounted() bool { return inst.mounted }

// Dirty reports whether a re-render is pending.
func (inst *Instance) Dirty() bool { return inst.dirty.Load() }

// Rendering reports whether the instance is inside its render function.
func (inst *Instance) Rendering() bool { return inst.rendering }

// Static reports whether the instance renders once without subscribing,
// as server-side string rendering does.
func (inst *Instance) Static() bool { return inst.static }

// Context returns the context of the current render.
func (inst *Instance) Context() context.Context { return inst.ctx }

// OnCleanup registers fn to run when the instance is unmounted. Cleanups
// run in reverse registration order.
func (inst *Instance) OnCleanup(fn func()) {
	if !inst.mounted {
		fn()
		return
	}
	inst.cleanups = append(inst.cleanups, fn)
}

// UseSlot returns the value stored in the next hook slot, creating it with
// init on first render. Slots must be used in the same order every render.
func UseSlot[T any](inst *Instance, init func() T) T {
	idx := inst.slotIdx
	inst.slotIdx++

	if idx < len(inst.slots) {
		v, ok := inst.slots[idx].(T)
		if !ok {
			panic(fmt.Sprintf("host: hook slot %d of %s changed type", idx, inst.name))
		}
		return v
	}

	v := init()
	inst.slots = append(inst.slots, v)
	return v
}

// Child renders a child component synchronously inside the current render
// and returns its output. The child instance persists in a slot of inst.
func (inst *Instance) Child(name string, render RenderFunc) string {
	child := UseSlot(inst, func() *Instance {
		c := newInstance(inst.renderer, inst, name, render)
		c.static = inst.static
		inst.children = append(inst.children, c)
		return c
	})
	child.render = render
	child.ctx = inst.ctx
	inst.renderer.renderInstance(child)
	return child.output
}

// Children returns the child instances created by Child.
func (inst *Instance) Children() []*Instance {
	return append([]*Instance(nil), inst.children...)
}

// invalidate schedules a re-render on the renderer's loop, at most once
// until the render happens.
func (inst *Instance) invalidate() {
	if !inst.dirty.CompareAndSwap(false, true) {
		return
	}
	if err := inst.renderer.loop.Submit(func() {
		if !inst.mounted || !inst.dirty.Load() {
			return
		}
		inst.renderer.renderInstance(inst)
	}); err != nil {
		inst.renderer.logger.Warn("dropping re-render", "instance_id", inst.id, "error", err)
	}
}

// unmount tears the instance and its children down.
func (inst *Instance) unmount() {
	if !inst.mounted {
		return
	}
	for i := len(inst.children) - 1; i >= 0; i-- {
		inst.children[i].unmount()
	}
	inst.children = nil

	for _, sub := range inst.stores {
		sub.unsubscribeNow()
	}
	inst.stores = nil

	for i := len(inst.cleanups) - 1; i >= 0; i-- {
		inst.cleanups[i]()
	}
	inst.cleanups = nil

	inst.mounted = false
	inst.slots = nil
	inst.dirty.Store(false)
}
