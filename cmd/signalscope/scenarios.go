package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/vango-dev/signalscope/pkg/host"
	"github.com/vango-dev/signalscope/pkg/reactive"
	"github.com/vango-dev/signalscope/pkg/scope"
	"github.com/vango-dev/signalscope/pkg/signals"
)

// scenario is a replayable demo of the scope runtime.
type scenario struct {
	name    string
	summary string
	run     func(w io.Writer, r *host.Renderer) error
}

var scenarios = map[string]scenario{
	"greeting": {
		name:    "greeting",
		summary: "a component re-renders when the signal it read changes",
		run:     runGreeting,
	},
	"leak": {
		name:    "leak",
		summary: "a bare unmanaged scope is closed by the reaper at the end of the turn",
		run:     runLeak,
	},
	"nested": {
		name:    "nested",
		summary: "a hook and a child component attribute reads to the right instance",
		run:     runNested,
	},
	"resubscribe": {
		name:    "resubscribe",
		summary: "re-attaching an instance without rendering forces a fresh render",
		run:     runResubscribe,
	},
}

func scenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func flushAndReport(w io.Writer, r *host.Renderer, insts ...*host.Instance) error {
	n, err := r.Flush()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "  flushed %d task(s)\n", n)
	for _, inst := range insts {
		fmt.Fprintf(w, "  %-8s renders=%d output=%q\n", inst.Name(), inst.Renders(), inst.Output())
	}
	return nil
}

func runGreeting(w io.Writer, r *host.Renderer) error {
	name := reactive.NewSignal("John")

	inst, err := r.Mount("greeting", signals.Component(func(*host.Instance) string {
		return "Hello " + name.Get()
	}))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "mounted: %q\n", inst.Output())

	fmt.Fprintln(w, "set name = Jane")
	name.Set("Jane")
	if err := flushAndReport(w, r, inst); err != nil {
		return err
	}

	fmt.Fprintln(w, "set name = Jane again (unchanged)")
	name.Set("Jane")
	return flushAndReport(w, r, inst)
}

func runLeak(w io.Writer, r *host.Renderer) error {
	count := reactive.NewSignal(0)
	other := reactive.NewSignal("x")

	inst, err := r.Mount("leaky", func(inst *host.Instance) string {
		signals.UseSignals(inst, scope.Unmanaged)
		return fmt.Sprintf("count=%d", count.Get())
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "mounted: %q, reaped so far: %d\n", inst.Output(), r.Tracker().Reaped())

	// Reads outside any render must not be attributed to the leaked scope.
	_ = other.Get()
	fmt.Fprintln(w, "set other = y (read after the turn)")
	other.Set("y")
	if err := flushAndReport(w, r, inst); err != nil {
		return err
	}

	fmt.Fprintln(w, "set count = 1")
	count.Set(1)
	return flushAndReport(w, r, inst)
}

func runNested(w io.Writer, r *host.Renderer) error {
	user := reactive.NewSignal("ada")
	theme := reactive.NewSignal("light")
	badge := reactive.NewSignal(3)

	var child *host.Instance
	parent, err := r.Mount("parent", signals.Component(func(inst *host.Instance) string {
		upper := signals.Hook(inst, func() string {
			return "[" + user.Get() + "]"
		})
		out := upper + " theme=" + theme.Get() + " "
		out += inst.Child("badge", signals.Component(func(c *host.Instance) string {
			child = c
			return fmt.Sprintf("badge=%d", badge.Get())
		}))
		return out
	}))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "mounted: %q\n", parent.Output())

	fmt.Fprintln(w, "set badge = 4 (read only by the child)")
	badge.Set(4)
	if err := flushAndReport(w, r, parent, child); err != nil {
		return err
	}

	fmt.Fprintln(w, "set user = grace (read by the hook)")
	user.Set("grace")
	return flushAndReport(w, r, parent, child)
}

func runResubscribe(w io.Writer, r *host.Renderer) error {
	label := reactive.NewSignal("draft")

	inst, err := r.Mount("editor", signals.Component(func(*host.Instance) string {
		return label.Get()
	}))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "mounted: %q\n", inst.Output())

	fmt.Fprintln(w, "resubscribe without rendering")
	if err := r.Resubscribe(inst); err != nil {
		return err
	}
	return flushAndReport(w, r, inst)
}
