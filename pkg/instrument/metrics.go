// Package instrument provides Prometheus metrics and OpenTelemetry tracing
// for the runtime. The core packages each declare a tiny metrics interface;
// the Collector here satisfies all of them, so one instance can be handed
// to every subsystem.
package instrument

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sigil-ui/sigil/pkg/hooks"
	"github.com/sigil-ui/sigil/pkg/lifecycle"
	"github.com/sigil-ui/sigil/pkg/observer"
	"github.com/sigil-ui/sigil/pkg/reactive"
)

// Config configures metric registration.
type Config struct {
	// Namespace is the metrics namespace (default: "sigil").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for reconcile pass duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures metric registration.
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

// WithBuckets sets the pass-duration histogram buckets.
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
		Namespace: "sigil",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector exposes runtime activity as Prometheus metrics. It satisfies
// reactive.Metrics, hooks.Metrics, and lifecycle.Metrics.
type Collector struct {
	signalWrites     prometheus.Counter
	recomputes       prometheus.Counter
	notifications    prometheus.Counter
	effectRuns       prometheus.Counter
	effectFailures   prometheus.Counter
	teardownFailures prometheus.Counter
	trackedEntities  prometheus.Gauge
	passEntities     *prometheus.CounterVec
	passDuration     prometheus.Histogram
}

// NewCollector registers the runtime metrics with the configured registry
// and returns the collector. Registering twice against the same registry
// panics, as promauto does.
func NewCollector(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Collector{
		signalWrites: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "signal_writes_total",
			Help:        "Total number of value-changing signal writes",
			ConstLabels: config.ConstLabels,
		}),

		recomputes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "recomputes_total",
			Help:        "Total number of derived cell recomputations",
			ConstLabels: config.ConstLabels,
		}),

		notifications: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Total number of deferred notification tasks flushed",
			ConstLabels: config.ConstLabels,
		}),

		effectRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_runs_total",
			Help:        "Total number of effect setup executions",
			ConstLabels: config.ConstLabels,
		}),

		effectFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_failures_total",
			Help:        "Total number of recovered effect panics",
			ConstLabels: config.ConstLabels,
		}),

		teardownFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "teardown_failures_total",
			Help:        "Total number of recovered teardown panics",
			ConstLabels: config.ConstLabels,
		}),

		trackedEntities: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tracked_entities",
			Help:        "Entities currently tracked by the observer",
			ConstLabels: config.ConstLabels,
		}),

		passEntities: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reconcile_entities_total",
			Help:        "Entities processed by reconciliation passes, by direction",
			ConstLabels: config.ConstLabels,
		}, []string{"direction"}),

		passDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reconcile_pass_duration_seconds",
			Help:        "Reconciliation pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

// SignalWrite implements reactive.Metrics.
func (c *Collector) SignalWrite() { c.signalWrites.Inc() }

// Recompute implements reactive.Metrics.
func (c *Collector) Recompute() { c.recomputes.Inc() }

// Notification implements reactive.Metrics.
func (c *Collector) Notification() { c.notifications.Inc() }

// EffectRun implements hooks.Metrics.
func (c *Collector) EffectRun() { c.effectRuns.Inc() }

// EffectFailure implements hooks.Metrics.
func (c *Collector) EffectFailure() { c.effectFailures.Inc() }

// TeardownFailure implements lifecycle.Metrics.
func (c *Collector) TeardownFailure() { c.teardownFailures.Inc() }

// ReconcilePass records one observer pass. Wire it through
// observer.WithOnPass.
func (c *Collector) ReconcilePass(stats observer.PassStats) {
	c.passEntities.WithLabelValues("added").Add(float64(stats.Added))
	c.passEntities.WithLabelValues("removed").Add(float64(stats.Removed))
	c.trackedEntities.Set(float64(stats.Tracked))
	c.passDuration.Observe(stats.Duration.Seconds())
}

var (
	_ reactive.Metrics  = (*Collector)(nil)
	_ hooks.Metrics     = (*Collector)(nil)
	_ lifecycle.Metrics = (*Collector)(nil)
)
