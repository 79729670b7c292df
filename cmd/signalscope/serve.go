package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/signalscope/internal/errors"
	"github.com/vango-dev/signalscope/pkg/devtools"
	"github.com/vango-dev/signalscope/pkg/host"
	"github.com/vango-dev/signalscope/pkg/loop"
	"github.com/vango-dev/signalscope/pkg/metrics"
	"github.com/vango-dev/signalscope/pkg/reactive"
	"github.com/vango-dev/signalscope/pkg/scope"
	"github.com/vango-dev/signalscope/pkg/signals"
)

func serveCmd(a *app) *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a live renderer with the devtools server",
		Long: `Mount a ticking component on a running loop and serve its scope
metrics, tracker state and live event feed.

Routes:
  /metrics       Prometheus metrics
  /debug/scopes  tracker state and recent events
  /ws            websocket event feed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Devtools.Addr
			}
			return a.serve(addr, interval)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from devtools.addr)")
	cmd.Flags().DurationVarP(&interval, "interval", "i", time.Second, "Tick interval of the demo component")

	return cmd
}

func (a *app) serve(addr string, interval time.Duration) error {
	if interval <= 0 {
		return errors.Newf(errors.CategoryCLI, "--interval must be positive, got %s", interval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Println()
			info("Shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	collector := metrics.New(
		metrics.WithNamespace(a.cfg.Metrics.Namespace),
		metrics.WithSubsystem(a.cfg.Metrics.Subsystem),
		metrics.WithRegistry(prometheus.DefaultRegisterer),
	)
	feed := devtools.NewFeed(a.cfg.Devtools.FeedBuffer, a.logger)

	scopeOpts := []scope.Option{scope.WithObserver(scope.Observers(collector, feed))}
	if !a.cfg.Reaper.Enabled {
		scopeOpts = append(scopeOpts, scope.WithScheduler(nil))
	}

	l := loop.New(loop.WithLogger(a.logger))
	r := host.NewRenderer(l,
		host.WithLogger(a.logger),
		host.WithScopeOptions(scopeOpts...),
	)

	// Mount synchronously before Run owns the loop.
	ticks := reactive.NewSignal(0)
	if _, err := r.Mount("clock", signals.Component(func(*host.Instance) string {
		return fmt.Sprintf("tick %d", ticks.Get())
	})); err != nil {
		return errors.New("S010").Wrap(err)
	}

	loopErr := make(chan error, 1)
	go func() { loopErr <- l.Run(ctx) }()

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				ticks.Update(func(n int) int { return n + 1 })
			}
		}
	}()

	srv := devtools.NewServer(feed,
		devtools.WithLogger(a.logger),
		devtools.WithGatherer(prometheus.DefaultGatherer),
		devtools.WithInspector(devtools.TrackerInspector(r.Tracker(), l.Do)),
	)

	success("Devtools on http://%s", addr)
	info("Press Ctrl+C to stop")

	serveErr := srv.ListenAndServe(ctx, addr)
	cancel()
	l.Shutdown()

	if err := <-loopErr; err != nil && err != context.Canceled {
		a.logger.Debug("loop stopped", "error", err)
	}
	return serveErr
}
