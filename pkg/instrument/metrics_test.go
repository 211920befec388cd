package instrument

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/sigil-ui/sigil/pkg/observer"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if m.Gauge == nil {
		t.Fatal("expected gauge metric to have Gauge field")
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(WithRegistry(reg))

	c.SignalWrite()
	c.SignalWrite()
	c.Recompute()
	c.Notification()
	c.EffectRun()
	c.EffectFailure()
	c.TeardownFailure()

	if got := metricCounterValue(t, c.signalWrites); got != 2 {
		t.Errorf("signal_writes_total=%v, want 2", got)
	}
	if got := metricCounterValue(t, c.recomputes); got != 1 {
		t.Errorf("recomputes_total=%v, want 1", got)
	}
	if got := metricCounterValue(t, c.notifications); got != 1 {
		t.Errorf("notifications_total=%v, want 1", got)
	}
	if got := metricCounterValue(t, c.effectRuns); got != 1 {
		t.Errorf("effect_runs_total=%v, want 1", got)
	}
	if got := metricCounterValue(t, c.effectFailures); got != 1 {
		t.Errorf("effect_failures_total=%v, want 1", got)
	}
	if got := metricCounterValue(t, c.teardownFailures); got != 1 {
		t.Errorf("teardown_failures_total=%v, want 1", got)
	}
}

func TestCollectorReconcilePass(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(WithRegistry(reg))

	c.ReconcilePass(observer.PassStats{
		Added:    3,
		Removed:  1,
		Tracked:  7,
		Duration: 2 * time.Millisecond,
	})

	if got := metricCounterValue(t, c.passEntities.WithLabelValues("added")); got != 3 {
		t.Errorf("reconcile_entities_total(added)=%v, want 3", got)
	}
	if got := metricCounterValue(t, c.passEntities.WithLabelValues("removed")); got != 1 {
		t.Errorf("reconcile_entities_total(removed)=%v, want 1", got)
	}
	if got := metricGaugeValue(t, c.trackedEntities); got != 7 {
		t.Errorf("tracked_entities=%v, want 7", got)
	}
	if got := metricHistogramCount(t, c.passDuration); got != 1 {
		t.Errorf("pass duration samples=%v, want 1", got)
	}
}

func TestCollectorNamespaceApplied(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(WithRegistry(reg), WithNamespace("custom"), WithSubsystem("core"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	// Counters with no observations still register; gather after one exists.
	found := false
	for _, f := range families {
		if f.GetName() == "custom_core_tracked_entities" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected custom_core_tracked_entities to be registered, got %d families", len(families))
	}
}
