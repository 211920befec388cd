package hooks

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sigil-ui/sigil/pkg/reactive"
)

type element struct{ name string }

func TestEffectsDrainInCallOrder(t *testing.T) {
	rt := reactive.NewRuntime()
	sch := NewScheduler(rt)
	el := &element{"a"}

	var order []string
	sch.WithHookContext(el, func() {
		sch.UseEffect(func() Cleanup {
			order = append(order, "first")
			return nil
		}, []any{})
		sch.UseEffect(func() Cleanup {
			order = append(order, "second")
			return nil
		}, []any{})
	})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("expected [first second], got %v", order)
	}
}

func TestSlotCleanupRunsBeforeNextInvocation(t *testing.T) {
	rt := reactive.NewRuntime()
	sch := NewScheduler(rt)
	el := &element{"a"}

	const slots = 3
	var events []string
	setup := func() {
		for i := 0; i < slots; i++ {
			i := i
			sch.UseEffect(func() Cleanup {
				events = append(events, fmt.Sprintf("run %d", i))
				return func() { events = append(events, fmt.Sprintf("cleanup %d", i)) }
			}, []any{})
		}
	}

	sch.WithHookContext(el, setup)
	sch.WithHookContext(el, setup)

	want := []string{
		"run 0", "run 1", "run 2",
		"cleanup 0", "run 0", "cleanup 1", "run 1", "cleanup 2", "run 2",
	}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], events[i])
		}
	}
}

func TestUseEffectWithoutDepsPanics(t *testing.T) {
	rt := reactive.NewRuntime()
	sch := NewScheduler(rt)

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrMissingDeps) {
			t.Errorf("expected ErrMissingDeps, got %v", r)
		}
	}()
	sch.WithHookContext(&element{"a"}, func() {
		sch.UseEffect(func() Cleanup { return nil }, nil)
	})
}

func TestUseEffectOutsideContextIsSkipped(t *testing.T) {
	rt := reactive.NewRuntime()
	sch := NewScheduler(rt)

	ran := false
	// Must not panic and must not run.
	sch.UseEffect(func() Cleanup {
		ran = true
		return nil
	}, []any{})

	if ran {
		t.Error("effect outside a hook context must be skipped")
	}
	if len(sch.entities) != 0 {
		t.Error("no entity state should exist after a skipped registration")
	}
}

func TestReactiveDependencyRerunsExactlyOneSlot(t *testing.T) {
	rt := reactive.NewRuntime()
	sch := NewScheduler(rt)
	el := &element{"a"}
	other := &element{"b"}

	sig := reactive.NewSignal(rt, 0)

	var events []string
	sch.WithHookContext(el, func() {
		sch.UseEffect(func() Cleanup {
			events = append(events, "reactive run")
			return func() { events = append(events, "reactive cleanup") }
		}, []any{sig})
		sch.UseEffect(func() Cleanup {
			events = append(events, "static run")
			return func() { events = append(events, "static cleanup") }
		}, []any{})
	})
	sch.WithHookContext(other, func() {
		sch.UseEffect(func() Cleanup {
			events = append(events, "other run")
			return nil
		}, []any{})
	})
	events = nil

	sig.Set(1)

	want := []string{"reactive cleanup", "reactive run"}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], events[i])
		}
	}
}

func TestEmptyDepsRunOnce(t *testing.T) {
	rt := reactive.NewRuntime()
	sch := NewScheduler(rt)
	el := &element{"a"}
	sig := reactive.NewSignal(rt, 0)

	runs := 0
	sch.WithHookContext(el, func() {
		sch.UseEffect(func() Cleanup {
			runs++
			sig.Get() // incidental read, not a declared dependency
			return nil
		}, []any{})
	})

	sig.Set(1)
	sig.Set(2)
	if runs != 1 {
		t.Errorf("empty dependency list means run once, got %d runs", runs)
	}
}

func TestNonReactiveDepIsInert(t *testing.T) {
	rt := reactive.NewRuntime()
	sch := NewScheduler(rt)
	el := &element{"a"}
	sig := reactive.NewSignal(rt, 0)

	runs := 0
	sch.WithHookContext(el, func() {
		sch.UseEffect(func() Cleanup {
			runs++
			return nil
		}, []any{"not a cell", 42, sig})
	})

	sig.Set(1)
	if runs != 2 {
		t.Errorf("reactive member must still trigger despite inert neighbors, got %d runs", runs)
	}
}

func TestRerunResubscribesFreshly(t *testing.T) {
	rt := reactive.NewRuntime()
	sch := NewScheduler(rt)
	el := &element{"a"}
	sig := reactive.NewSignal(rt, 0)

	runs := 0
	setup := func() {
		sch.UseEffect(func() Cleanup {
			runs++
			return nil
		}, []any{sig})
	}

	sch.WithHookContext(el, setup)
	sch.WithHookContext(el, setup)
	runs = 0

	// Were the old subscriptions not torn down before re-install, this
	// single write would fan out to stacked duplicates.
	sig.Set(1)
	if runs != 1 {
		t.Errorf("expected exactly one re-run, got %d", runs)
	}
}

func TestCleanupUnsubscribesBeforeRunningCleanups(t *testing.T) {
	rt := reactive.NewRuntime()
	sch := NewScheduler(rt)
	el := &element{"a"}
	sig := reactive.NewSignal(rt, 0)

	runs := 0
	cleanups := 0
	sch.WithHookContext(el, func() {
		sch.UseEffect(func() Cleanup {
			runs++
			return func() {
				cleanups++
				// A teardown-provoked write must not re-enter any slot.
				sig.Set(sig.Peek() + 1)
			}
		}, []any{sig})
	})
	runs = 0

	sch.Cleanup(el)

	if cleanups != 1 {
		t.Fatalf("expected 1 cleanup, got %d", cleanups)
	}
	if runs != 0 {
		t.Errorf("no effect may fire mid-teardown, got %d runs", runs)
	}

	sig.Set(100)
	if runs != 0 {
		t.Errorf("subscriptions must be gone after cleanup, got %d runs", runs)
	}
}

func TestCleanupRunsNonEffectCleanups(t *testing.T) {
	rt := reactive.NewRuntime()
	sch := NewScheduler(rt)
	el := &element{"a"}

	var order []string
	sch.WithHookContext(el, func() {
		sch.UseEffect(func() Cleanup {
			return func() { order = append(order, "slot") }
		}, []any{})
		sch.OnCleanup(func() { order = append(order, "manual") })
	})

	sch.Cleanup(el)

	if len(order) != 2 || order[0] != "slot" || order[1] != "manual" {
		t.Errorf("expected [slot manual], got %v", order)
	}
}

func TestCleanupIsolatesPanickingCleanup(t *testing.T) {
	rt := reactive.NewRuntime()
	sch := NewScheduler(rt)
	el := &element{"a"}

	survived := false
	sch.WithHookContext(el, func() {
		sch.UseEffect(func() Cleanup {
			return func() { panic("cleanup bug") }
		}, []any{})
		sch.UseEffect(func() Cleanup {
			return func() { survived = true }
		}, []any{})
	})

	sch.Cleanup(el)

	if !survived {
		t.Error("a panicking cleanup must not block the remaining cleanups")
	}
	if len(sch.entities) != 0 {
		t.Error("entity bookkeeping must be cleared even after failures")
	}
}

func TestPanickingSetupDoesNotBlockSiblings(t *testing.T) {
	rt := reactive.NewRuntime()
	sch := NewScheduler(rt)
	el := &element{"a"}

	ran := false
	sch.WithHookContext(el, func() {
		sch.UseEffect(func() Cleanup { panic("setup bug") }, []any{})
		sch.UseEffect(func() Cleanup {
			ran = true
			return nil
		}, []any{})
	})

	if !ran {
		t.Error("a panicking setup must not block the slots behind it")
	}
}

func TestSlotCountResetsBetweenRuns(t *testing.T) {
	rt := reactive.NewRuntime()
	sch := NewScheduler(rt)
	el := &element{"a"}

	var slotsSeen []int
	run := func() {
		sch.WithHookContext(el, func() {
			sch.UseEffect(func() Cleanup { return nil }, []any{})
			sch.UseEffect(func() Cleanup { return nil }, []any{})
		})
		slotsSeen = append(slotsSeen, len(sch.entities[el].slots))
	}

	run()
	run()

	// Slot numbering restarts from zero: a second identical run reuses
	// the same two slots rather than appending new ones.
	if slotsSeen[0] != 2 || slotsSeen[1] != 2 {
		t.Errorf("expected stable slot count 2, got %v", slotsSeen)
	}
}

func TestSlotCheckPanicsOnChangedCount(t *testing.T) {
	rt := reactive.NewRuntime()
	sch := NewScheduler(rt, WithSlotCheck(true))
	el := &element{"a"}

	sch.WithHookContext(el, func() {
		sch.UseEffect(func() Cleanup { return nil }, []any{})
		sch.UseEffect(func() Cleanup { return nil }, []any{})
	})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on changed slot count")
		}
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, "slot count changed") {
			t.Errorf("unexpected panic value: %v", r)
		}
	}()
	sch.WithHookContext(el, func() {
		sch.UseEffect(func() Cleanup { return nil }, []any{})
	})
}
