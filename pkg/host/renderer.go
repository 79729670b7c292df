package host

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/signalscope/pkg/loop"
	"github.com/vango-dev/signalscope/pkg/scope"
)

const defaultTracerName = "signalscope/host"

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the renderer's logger. It is also handed to the tracker.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTracer sets the tracer used for render spans. The default resolves
// a tracer from the global OpenTelemetry provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Renderer) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// WithScopeOptions passes extra options to the renderer's tracker.
func WithScopeOptions(opts ...scope.Option) Option {
	return func(r *Renderer) {
		r.scopeOpts = append(r.scopeOpts, opts...)
	}
}

// Renderer mounts component instances and renders them on a loop. It owns
// the scope tracker of that loop.
type Renderer struct {
	loop    *loop.Loop
	tracker *scope.Tracker

	logger    *slog.Logger
	tracer    trace.Tracer
	scopeOpts []scope.Option

	renders atomic.Uint64
}

// NewRenderer creates a renderer driven by l. The tracker's reaper is
// scheduled on l.
func NewRenderer(l *loop.Loop, opts ...Option) *Renderer {
	r := &Renderer{
		loop:   l,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(defaultTracerName)
	}

	scopeOpts := append([]scope.Option{
		scope.WithScheduler(l),
		scope.WithLogger(r.logger),
	}, r.scopeOpts...)
	r.tracker = scope.NewTracker(scopeOpts...)
	return r
}

// Loop returns the loop renders run on.
func (r *Renderer) Loop() *loop.Loop { return r.loop }

// Tracker returns the scope tracker of the render loop.
func (r *Renderer) Tracker() *scope.Tracker { return r.tracker }

// Renders returns the total number of instance renders.
func (r *Renderer) Renders() uint64 { return r.renders.Load() }

// Mount creates a root instance and renders it once on the loop.
func (r *Renderer) Mount(name string, render RenderFunc) (*Instance, error) {
	var inst *Instance
	err := r.loop.Do(func() {
		inst = newInstance(r, nil, name, render)
		r.renderInstance(inst)
	})
	if err != nil {
		return nil, fmt.Errorf("mount %s: %w", name, err)
	}
	return inst, nil
}

// Unmount tears inst and its children down, unsubscribing every store and
// running cleanups.
func (r *Renderer) Unmount(inst *Instance) error {
	return r.loop.Do(inst.unmount)
}

// Resubscribe unsubscribes every store of inst and its children and
// subscribes again without rendering, the way some hosts re-attach an
// instance. A snapshot that moved in between schedules a re-render.
func (r *Renderer) Resubscribe(inst *Instance) error {
	return r.loop.Do(func() { r.resubscribe(inst) })
}

func (r *Renderer) resubscribe(inst *Instance) {
	if !inst.mounted {
		return
	}
	for _, sub := range inst.stores {
		sub.unsubscribeNow()
	}
	changed := false
	for _, sub := range inst.stores {
		if sub.subscribeNow() {
			changed = true
		}
	}
	if changed {
		inst.invalidate()
	}
	for _, child := range inst.children {
		r.resubscribe(child)
	}
}

// RenderToString renders a component once, synchronously, without
// subscribing to any store, and discards the instance. It may be called
// from inside another render.
func (r *Renderer) RenderToString(name string, render RenderFunc) (string, error) {
	var out string
	err := r.loop.Do(func() {
		inst := newInstance(r, nil, name, render)
		inst.static = true
		r.renderInstance(inst)
		out = inst.output
		inst.unmount()
	})
	return out, err
}

// Flush runs queued re-renders on the calling goroutine. It is meant for
// hosts that do not call loop.Run, such as tests and the CLI demo.
func (r *Renderer) Flush() (int, error) {
	return r.loop.RunPending()
}

// renderInstance runs one render of inst and commits it.
func (r *Renderer) renderInstance(inst *Instance) {
	parentCtx := inst.ctx
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, span := r.tracer.Start(parentCtx, "host.render",
		trace.WithAttributes(
			attribute.String("host.instance_id", inst.id),
			attribute.String("host.component", inst.name),
			attribute.Int("host.render_count", inst.renders+1),
			attribute.Bool("host.static", inst.static),
		),
	)
	defer span.End()

	inst.dirty.Store(false)
	inst.slotIdx = 0
	inst.rendering = true
	inst.ctx = ctx

	defer func() {
		inst.rendering = false
		inst.ctx = parentCtx
		if rec := recover(); rec != nil {
			err := fmt.Errorf("render %s panicked: %v", inst.name, rec)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.logger.Error("render failed", "instance_id", inst.id, "component", inst.name, "error", err)
			panic(rec)
		}
	}()

	inst.output = inst.render(inst)
	inst.renders++
	r.renders.Add(1)

	if !inst.static {
		r.commit(inst)
	}
	span.SetStatus(codes.Ok, "")
}

// commit subscribes stores first used by this render. A store that changed
// between render and subscription schedules another render.
func (r *Renderer) commit(inst *Instance) {
	changed := false
	for _, sub := range inst.stores {
		if sub.subscribeNow() {
			changed = true
		}
	}
	if changed {
		inst.invalidate()
	}
}
