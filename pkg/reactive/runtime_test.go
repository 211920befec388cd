package reactive

import "testing"

func TestUntrackedReadDoesNotSubscribe(t *testing.T) {
	rt := NewRuntime()
	tracked := NewSignal(rt, 1)
	ignored := NewSignal(rt, 10)

	computations := 0
	c := NewComputed(rt, func() int {
		computations++
		sum := tracked.Get()
		rt.Untracked(func() {
			sum += ignored.Get()
		})
		return sum
	})

	if got := c.Get(); got != 11 {
		t.Fatalf("expected 11, got %d", got)
	}

	ignored.Set(100)
	if got := c.Get(); got != 11 {
		t.Errorf("untracked read must not invalidate, got %d", got)
	}
	if computations != 1 {
		t.Errorf("expected 1 computation, got %d", computations)
	}
}

func TestCollectorStackPopsOnPanic(t *testing.T) {
	rt := NewRuntime()

	func() {
		defer func() { recover() }()
		rt.withCollector(func(dependency) {}, func() {
			panic("body failure")
		})
	}()

	if len(rt.collectors) != 0 {
		t.Errorf("collector stack must be empty after panic, depth %d", len(rt.collectors))
	}
}

func TestFlushRunsTasksScheduledWhileDraining(t *testing.T) {
	rt := NewRuntime()

	var order []string
	rt.schedule(func() {
		order = append(order, "first")
		rt.schedule(func() { order = append(order, "nested") })
	})
	rt.schedule(func() { order = append(order, "second") })

	rt.Flush()

	want := []string{"first", "second", "nested"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("task %d: expected %s, got %s", i, want[i], order[i])
		}
	}
	if rt.Pending() != 0 {
		t.Errorf("queue must be empty after flush, %d pending", rt.Pending())
	}
}

func TestFlushIsolatesPanickingTask(t *testing.T) {
	rt := NewRuntime()

	ran := false
	rt.schedule(func() { panic("task bug") })
	rt.schedule(func() { ran = true })

	rt.Flush()

	if !ran {
		t.Error("a panicking task must not block the tasks behind it")
	}
}

func TestRuntimesAreIsolated(t *testing.T) {
	rt1 := NewRuntime()
	rt2 := NewRuntime()

	a := NewSignal(rt1, 1)

	// A computation on rt2 reading an rt1 cell records nothing on rt2's
	// collector stack for rt1's runtime, so the write does not invalidate.
	computations := 0
	c := NewComputed(rt2, func() int {
		computations++
		return a.Peek()
	})

	c.Get()
	a.Set(2)
	c.Get()

	if computations != 1 {
		t.Errorf("expected 1 computation across runtimes, got %d", computations)
	}
}
