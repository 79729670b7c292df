package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/signalscope/internal/errors"
	"github.com/vango-dev/signalscope/pkg/host"
	"github.com/vango-dev/signalscope/pkg/loop"
	"github.com/vango-dev/signalscope/pkg/scope"
)

func demoCmd(a *app) *cobra.Command {
	var (
		list   bool
		events bool
	)

	cmd := &cobra.Command{
		Use:   "demo [scenario...]",
		Short: "Replay scope runtime scenarios",
		Long: `Replay one or more scenarios against a fresh renderer and print the
renders they cause. With no arguments every scenario runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list {
				for _, name := range scenarioNames() {
					fmt.Fprintf(out, "%-12s %s\n", name, scenarios[name].summary)
				}
				return nil
			}

			if len(args) == 0 {
				args = scenarioNames()
			}
			for _, name := range args {
				if _, ok := scenarios[name]; !ok {
					return errors.New("S030").WithDetailf("no scenario named %q", name)
				}
			}
			for _, name := range args {
				if err := a.runScenario(out, scenarios[name], events); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List available scenarios")
	cmd.Flags().BoolVarP(&events, "events", "e", false, "Print every scope event")

	return cmd
}

// runScenario replays sc on a fresh loop and renderer.
func (a *app) runScenario(w io.Writer, sc scenario, events bool) error {
	fmt.Fprintf(w, "== %s: %s\n", sc.name, sc.summary)

	scopeOpts := []scope.Option{}
	if events {
		scopeOpts = append(scopeOpts, scope.WithObserver(scope.ObserverFunc(func(ev scope.Event) {
			fmt.Fprintf(w, "    %s\n", formatEvent(ev))
		})))
	}
	if !a.cfg.Reaper.Enabled {
		scopeOpts = append(scopeOpts, scope.WithScheduler(nil))
	}

	l := loop.New(loop.WithLogger(a.logger))
	defer l.Shutdown()

	r := host.NewRenderer(l,
		host.WithLogger(a.logger),
		host.WithScopeOptions(scopeOpts...),
	)
	if err := sc.run(w, r); err != nil {
		return errors.FromError(err, "S011").WithDetailf("scenario %s", sc.name)
	}
	fmt.Fprintln(w)
	return nil
}

func formatEvent(ev scope.Event) string {
	s := fmt.Sprintf("scope %d %-12s %-17s v=%d", ev.ScopeID, ev.Kind, ev.Mode, ev.Version)
	switch ev.Kind {
	case scope.EventStarted, scope.EventFolded:
		s += " (" + ev.Action.String() + ")"
	case scope.EventFinished:
		if ev.Restored != 0 {
			s += fmt.Sprintf(" (restored scope %d)", ev.Restored)
		}
	}
	return s
}
