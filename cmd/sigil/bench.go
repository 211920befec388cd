package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/sigil-ui/sigil/internal/config"
	"github.com/sigil-ui/sigil/internal/devtools"
	"github.com/sigil-ui/sigil/internal/errors"
	"github.com/sigil-ui/sigil/pkg/hooks"
	"github.com/sigil-ui/sigil/pkg/instrument"
	"github.com/sigil-ui/sigil/pkg/lifecycle"
	"github.com/sigil-ui/sigil/pkg/observer"
	"github.com/sigil-ui/sigil/pkg/reactive"
)

// widget is one synthetic entity in the benchmark tree. Each widget owns a
// counter signal, a derived doubling of it, and one effect bound to the
// derived value.
type widget struct {
	id      int
	counter *reactive.Signal[int]
	doubled *reactive.Computed[int]
}

// benchTree is the mutable entity population the observer reconciles.
type benchTree struct {
	widgets []*widget
}

func benchCmd() *cobra.Command {
	var (
		entities int
		passes   int
		churn    float64
		seed     int64
		serve    bool
		addr     string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a synthetic reactive workload",
		Long: `Run a synthetic workload against the runtime: a churning entity
population with one signal, one derived value, and one effect per entity,
reconciled by an observer each pass.

Defaults come from sigil.json when present; flags override.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadBenchConfig()
			if cmd.Flags().Changed("entities") {
				cfg.Bench.Entities = entities
			}
			if cmd.Flags().Changed("passes") {
				cfg.Bench.Passes = passes
			}
			if cmd.Flags().Changed("churn") {
				cfg.Bench.Churn = churn
			}
			if cmd.Flags().Changed("seed") {
				cfg.Bench.Seed = seed
			}
			if cmd.Flags().Changed("addr") {
				cfg.Inspector.Host, cfg.Inspector.Port = splitHostPort(addr, cfg.Inspector.Port)
			}
			if err := cfg.Validate(); err != nil {
				return errors.FromError(err, "E120")
			}
			if cfg.Bench.Entities == 0 || cfg.Bench.Passes == 0 {
				return errors.New("E120").
					WithDetail("Both entities and passes must be positive")
			}

			return runBench(cfg, serve)
		},
	}

	cmd.Flags().IntVarP(&entities, "entities", "n", 1000, "Number of synthetic entities")
	cmd.Flags().IntVarP(&passes, "passes", "p", 100, "Number of reconciliation passes")
	cmd.Flags().Float64Var(&churn, "churn", 0.1, "Fraction of entities replaced per pass")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Workload RNG seed (0 = time-based)")
	cmd.Flags().BoolVar(&serve, "serve", false, "Keep the inspector serving after the run")
	cmd.Flags().StringVar(&addr, "addr", "", "Inspector listen address (host:port)")

	return cmd
}

// loadBenchConfig reads sigil.json from the working directory, falling back
// to defaults when there is none.
func loadBenchConfig() *config.Config {
	dir, err := os.Getwd()
	if err != nil {
		return config.New()
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return config.New()
	}
	return cfg
}

func runBench(cfg *config.Config, serve bool) error {
	sd := cfg.Bench.Seed
	if sd == 0 {
		sd = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(sd))

	registry := prometheus.NewRegistry()
	collector := instrument.NewCollector(
		instrument.WithRegistry(registry),
		instrument.WithNamespace(cfg.Metrics.Namespace),
		instrument.WithSubsystem(cfg.Metrics.Subsystem),
	)
	tracer := instrument.NewPassTracer(instrument.WithTracerName(cfg.Runtime.TraceName))
	broadcaster := devtools.NewBroadcaster()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	rt := reactive.NewRuntime(
		reactive.WithLogger(logger),
		reactive.WithMetrics(collector),
	)
	scheduler := hooks.NewScheduler(rt,
		hooks.WithLogger(logger),
		hooks.WithMetrics(collector),
		hooks.WithSlotCheck(cfg.Runtime.SlotCheck),
	)
	teardowns := lifecycle.NewRegistry(
		lifecycle.WithLogger(logger),
		lifecycle.WithMetrics(collector),
	)

	tree := &benchTree{}
	nextID := 0
	effectRuns := 0

	mount := func(w *widget) {
		w.counter = reactive.NewSignal(rt, 0)
		w.doubled = reactive.NewComputed(rt, func() int {
			return w.counter.Get() * 2
		})
		scheduler.WithHookContext(w, func() {
			scheduler.UseEffect(func() hooks.Cleanup {
				_ = w.doubled.Get()
				effectRuns++
				return nil
			}, []any{w.doubled})
		})
		teardowns.SetPrimary(w, func() {
			w.counter.Destroy()
			w.doubled.Destroy()
		})
		teardowns.MarkInitialized(w)
	}

	matcher := func(root any) []any {
		t := root.(*benchTree)
		out := make([]any, len(t.widgets))
		for i, w := range t.widgets {
			out[i] = w
		}
		return out
	}

	obs := observer.New(tree, matcher,
		observer.WithLogger(logger),
		observer.WithOnAdd(func(e any) { mount(e.(*widget)) }),
		observer.WithOnRemove(func(e any) {
			scheduler.Cleanup(e)
			teardowns.Execute(e)
		}),
		observer.WithOnPass(func(stats observer.PassStats) {
			collector.ReconcilePass(stats)
			tracer.OnPass(stats)
			broadcaster.PublishPass(stats)
		}),
	)

	// Initial population.
	for i := 0; i < cfg.Bench.Entities; i++ {
		tree.widgets = append(tree.widgets, &widget{id: nextID})
		nextID++
	}
	start := time.Now()
	obs.Start()
	rt.Flush()

	replace := int(float64(cfg.Bench.Entities) * cfg.Bench.Churn)
	for pass := 0; pass < cfg.Bench.Passes; pass++ {
		// Write through a slice of surviving widgets, then churn.
		for i := 0; i < len(tree.widgets); i += 10 {
			w := tree.widgets[i]
			w.counter.Update(func(v int) int { return v + 1 })
		}
		rt.Flush()

		for i := 0; i < replace; i++ {
			victim := rng.Intn(len(tree.widgets))
			tree.widgets[victim] = &widget{id: nextID}
			nextID++
		}
		obs.Refresh()
		rt.Flush()
	}
	elapsed := time.Since(start)

	success("Benchmark complete")
	info("Entities:    %d (churn %.0f%%)", cfg.Bench.Entities, cfg.Bench.Churn*100)
	info("Passes:      %d in %s (%.1f passes/sec)", cfg.Bench.Passes, elapsed.Round(time.Millisecond), float64(cfg.Bench.Passes)/elapsed.Seconds())
	info("Effect runs: %d", effectRuns)
	info("Tracked:     %d", len(obs.Tracked()))
	info("Seed:        %d", sd)

	if serve {
		server := devtools.NewServer(broadcaster, registry, obs)
		addr := cfg.InspectorAddress()
		fmt.Println()
		info("Inspector: http://%s", addr)
		info("Metrics:   http://%s/metrics", addr)
		if err := http.ListenAndServe(addr, server.Handler()); err != nil {
			return errors.New("E121").Wrap(err)
		}
	}

	return nil
}

// splitHostPort parses host:port, tolerating a bare host.
func splitHostPort(addr string, defaultPort int) (string, int) {
	host := addr
	port := defaultPort
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			host = addr[:i]
			if p, err := parsePort(addr[i+1:]); err == nil {
				port = p
			}
			break
		}
	}
	return host, port
}

func parsePort(s string) (int, error) {
	var p int
	_, err := fmt.Sscanf(s, "%d", &p)
	return p, err
}
