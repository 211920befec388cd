package reactive

// Computed is a lazily memoized derived value. Its dependencies are
// discovered automatically: every distinct cell read during the computation
// is subscribed to, and a later write to any of them marks the cell stale.
//
// A computed cell never exposes a value without having run its computation
// since the last invalidation, and its dependency set always equals exactly
// the cells read in the latest successful run; subscriptions left over from
// earlier runs are torn down before each recomputation.
//
// Unlike signals, computed cells do not notify downstream synchronously.
// When a dependency fires, the cell schedules a single deferred
// recompute-and-notify task on the runtime; any number of dependency writes
// before the next Runtime.Flush collapse into one downstream notification.
type Computed[T any] struct {
	base    cellBase
	compute func() T
	value   T

	hasValue  bool
	stale     bool
	computing bool

	// scheduled guards against queueing more than one deferred
	// notification per invalidation burst.
	scheduled bool

	// sources are the cells read during the latest successful run.
	sources []dependency
}

// NewComputed creates a computed cell bound to rt. The computation does not
// run until the first Get. A nil compute panics with ErrNilCallback.
func NewComputed[T any](rt *Runtime, compute func() T) *Computed[T] {
	if compute == nil {
		panic(ErrNilCallback)
	}
	return &Computed[T]{
		base:    newCellBase(rt),
		compute: compute,
	}
}

// Get returns the cell's value, recomputing if it is stale or has never
// been computed. If a collector is active, the cell registers itself as a
// dependency of the outer computation — the outer computation depends on
// this cell, not on its transitive dependency set.
//
// Reading a cell whose computation is in progress panics with
// ErrCircularDependency.
func (c *Computed[T]) Get() T {
	if c.computing {
		panic(ErrCircularDependency)
	}
	if c.stale || !c.hasValue {
		c.recompute()
	}
	c.base.rt.track(&c.base)
	return c.value
}

// Peek returns the value without registering a dependency. Still recomputes
// if the cached value is not fresh.
func (c *Computed[T]) Peek() T {
	if c.computing {
		panic(ErrCircularDependency)
	}
	if c.stale || !c.hasValue {
		c.recompute()
	}
	return c.value
}

// Set always panics with ErrReadOnly. Computed values change only through
// their dependencies.
func (c *Computed[T]) Set(T) {
	panic(ErrReadOnly)
}

// Subscribe registers fn to receive the cell's value after each deferred
// recompute-and-notify. The returned closure unsubscribes and is
// idempotent. A nil fn panics with ErrNilCallback.
func (c *Computed[T]) Subscribe(fn func(T)) func() {
	if fn == nil {
		panic(ErrNilCallback)
	}
	return c.base.watch(func() { fn(c.value) })
}

// Watch implements Source.
func (c *Computed[T]) Watch(fn func()) func() {
	return c.base.watch(fn)
}

// Destroy unsubscribes from all dependencies, clears the subscriber set,
// and resets the cell to its uncomputed state. A subsequent Get runs the
// computation again from scratch.
func (c *Computed[T]) Destroy() {
	c.dropSources()
	c.base.subs = nil
	var zero T
	c.value = zero
	c.hasValue = false
	c.stale = false
	c.computing = false
}

// ID returns the unique identifier for this cell.
func (c *Computed[T]) ID() uint64 {
	return c.base.id
}

// notify implements subscriber: a dependency changed.
func (c *Computed[T]) notify() {
	if c.computing {
		// A dependency fired mid-computation; the run in progress will
		// cache a value derived from the new state soon enough that
		// re-running is the caller's concern, not ours.
		c.stale = true
		return
	}
	wasStale := c.stale
	c.stale = true

	if wasStale || len(c.base.subs) == 0 || c.scheduled {
		return
	}
	c.scheduled = true
	c.base.rt.schedule(c.flushNotify)
}

// flushNotify is the deferred recompute-and-notify task. Membership is
// checked at fire time, not schedule time: with no subscribers left the
// task is inert.
func (c *Computed[T]) flushNotify() {
	c.scheduled = false
	if len(c.base.subs) == 0 {
		return
	}
	if c.stale || !c.hasValue {
		c.recompute()
	}
	c.base.notifyAll()
}

// recompute re-discovers dependencies and refreshes the cached value.
func (c *Computed[T]) recompute() {
	c.dropSources()

	c.computing = true
	// Cleared up front so a dependency that fires mid-computation can
	// re-flag the cell stale for the next read.
	c.stale = false
	done := false
	defer func() {
		c.computing = false
		if !done {
			// The computation panicked; whatever is cached no
			// longer counts as fresh.
			c.stale = true
		}
	}()

	var value T
	c.base.rt.withCollector(c.collect, func() {
		value = c.compute()
	})

	done = true
	c.value = value
	c.hasValue = true
	c.base.rt.countRecompute()
}

// collect records each distinct cell read during the computation and
// subscribes to it, so a later write flips this cell stale.
func (c *Computed[T]) collect(dep dependency) {
	id := dep.ID()
	if id == c.base.id {
		return
	}
	for _, s := range c.sources {
		if s.ID() == id {
			return
		}
	}
	dep.addSub(c)
	c.sources = append(c.sources, dep)
}

// dropSources tears down the subscriptions from the previous run.
func (c *Computed[T]) dropSources() {
	for _, src := range c.sources {
		src.removeSub(c.base.id)
	}
	c.sources = c.sources[:0]
}

// ID/notify make *Computed a subscriber of its sources.
var _ subscriber = (*Computed[int])(nil)

// Signal and Computed both satisfy the type-erased Source view.
var (
	_ Source = (*Signal[int])(nil)
	_ Source = (*Computed[int])(nil)
)
