// Package metrics exports scope lifecycle events as Prometheus metrics.
//
// A Collector implements scope.Observer. Attach it to a tracker:
//
//	c := metrics.New(metrics.WithNamespace("myapp"))
//	tr := scope.NewTracker(scope.WithObserver(c))
//
// Metrics collected:
//   - signalscope_scope_events_total: events by kind and usage mode
//   - signalscope_scope_reaped_total: scopes force-finished by the reaper
//   - signalscope_scope_tracking: scopes currently recording
//   - signalscope_scope_tracking_duration_seconds: time from start to finish
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/signalscope/pkg/scope"
)

// Config configures the collector.
type Config struct {
	// Namespace is the metrics namespace (default: "signalscope").
	Namespace string

	// Subsystem is the metrics subsystem (default: "scope").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for tracking duration.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "signalscope",
		Subsystem: "scope",
		// Renders are short; 50µs to 1s.
		Buckets:  []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .05, .25, 1},
		Registry: prometheus.DefaultRegisterer,
	}
}

// Collector records scope events. It is safe for concurrent use.
type Collector struct {
	events   *prometheus.CounterVec
	reaped   prometheus.Counter
	tracking prometheus.Gauge
	duration *prometheus.HistogramVec

	mu      sync.Mutex
	started map[uint64]time.Time
	now     func() time.Time
}

// New creates a Collector and registers its metrics.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Collector{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Total number of scope lifecycle events",
			ConstLabels: config.ConstLabels,
		}, []string{"event", "mode"}),

		reaped: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reaped_total",
			Help:        "Total number of scopes force-finished by the reaper",
			ConstLabels: config.ConstLabels,
		}),

		tracking: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tracking",
			Help:        "Number of scopes currently recording dependencies",
			ConstLabels: config.ConstLabels,
		}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tracking_duration_seconds",
			Help:        "Time a scope spent recording dependencies",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"mode"}),

		started: make(map[uint64]time.Time),
		now:     time.Now,
	}
}

// Observe implements scope.Observer.
func (c *Collector) Observe(ev scope.Event) {
	c.events.WithLabelValues(ev.Kind.String(), ev.Mode.String()).Inc()

	switch ev.Kind {
	case scope.EventStarted:
		c.mu.Lock()
		c.started[ev.ScopeID] = c.now()
		c.tracking.Set(float64(len(c.started)))
		c.mu.Unlock()

	case scope.EventFinished, scope.EventDisposed:
		c.mu.Lock()
		if t, ok := c.started[ev.ScopeID]; ok {
			delete(c.started, ev.ScopeID)
			c.duration.WithLabelValues(ev.Mode.String()).Observe(c.now().Sub(t).Seconds())
		}
		c.tracking.Set(float64(len(c.started)))
		c.mu.Unlock()

	case scope.EventReaped:
		c.reaped.Inc()
	}
}

// Tracking returns the number of scopes currently recording.
func (c *Collector) Tracking() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.started)
}
