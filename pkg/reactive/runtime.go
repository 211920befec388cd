package reactive

import (
	"log/slog"
	"sync/atomic"
)

// globalIDCounter is the source of unique IDs for all reactive cells.
var globalIDCounter uint64

// nextID returns the next unique ID for a reactive cell.
// IDs are monotonically increasing and never reused.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}

// collector receives every cell read while it is the innermost active
// collector. Computed cells install one to discover their dependencies.
type collector func(dep dependency)

// dependency is the tracker-facing view of a cell: something a collector
// can subscribe the current computation to.
type dependency interface {
	ID() uint64
	addSub(s subscriber)
	removeSub(id uint64)
}

// subscriber is anything notified when a cell changes. Implemented by
// computed cells and by the closures wrapped through Subscribe/Watch.
type subscriber interface {
	ID() uint64
	notify()
}

// Metrics receives counters from the reactive core. Implementations must be
// cheap; the hooks fire on the hot path.
type Metrics interface {
	// SignalWrite is called for every signal write that changed the value.
	SignalWrite()
	// Recompute is called for every computed-cell recomputation.
	Recompute()
	// Notification is called for every subscriber notification delivered.
	Notification()
}

// Runtime holds the collector stack and the deferred task queue for one
// cooperative reactive graph. The tracking state is an explicit value
// threaded through cell constructors rather than process-global state, so
// independent graphs (and tests) stay isolated.
type Runtime struct {
	collectors []collector
	queue      []func()
	logger     *slog.Logger
	metrics    Metrics
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithLogger sets the logger used for recovered subscriber panics and
// diagnostics. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// WithMetrics attaches a metrics sink to the runtime.
func WithMetrics(m Metrics) RuntimeOption {
	return func(rt *Runtime) {
		rt.metrics = m
	}
}

// NewRuntime creates an empty reactive runtime.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	rt := &Runtime{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// track reports a cell read to the innermost active collector.
// No-op when no collector is active.
func (rt *Runtime) track(dep dependency) {
	if n := len(rt.collectors); n > 0 {
		if fn := rt.collectors[n-1]; fn != nil {
			fn(dep)
		}
	}
}

// withCollector pushes fn, runs thunk, and pops on every exit path.
// Nested computations are isolated by stack discipline: a computation
// reading another computed cell registers that cell itself, never its
// transitive dependencies.
func (rt *Runtime) withCollector(fn collector, thunk func()) {
	rt.collectors = append(rt.collectors, fn)
	defer func() {
		rt.collectors = rt.collectors[:len(rt.collectors)-1]
	}()
	thunk()
}

// Untracked runs fn without an active collector, so cell reads inside it do
// not register as dependencies of the current computation.
func (rt *Runtime) Untracked(fn func()) {
	rt.withCollector(nil, fn)
}

// schedule appends a deferred task to the runtime's queue. Tasks run in
// FIFO order on the next Flush. Fire-and-forget: there is no cancellation.
func (rt *Runtime) schedule(task func()) {
	rt.queue = append(rt.queue, task)
}

// Pending reports the number of queued deferred tasks.
func (rt *Runtime) Pending() int {
	return len(rt.queue)
}

// Flush drains the deferred task queue, including tasks scheduled while
// draining. The embedding framework calls this once per external event;
// computed-cell notifications coalesce per flush. A task that panics is
// logged and does not block the remaining tasks.
func (rt *Runtime) Flush() {
	for len(rt.queue) > 0 {
		task := rt.queue[0]
		rt.queue = rt.queue[1:]
		rt.run(task)
	}
}

// run executes a deferred task under a recover boundary.
func (rt *Runtime) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			rt.logger.Error("sigil: deferred task panicked", "panic", r)
		}
	}()
	task()
}

// countWrite reports a value-changing signal write to the metrics sink.
func (rt *Runtime) countWrite() {
	if rt.metrics != nil {
		rt.metrics.SignalWrite()
	}
}

// countRecompute reports a computed recomputation to the metrics sink.
func (rt *Runtime) countRecompute() {
	if rt.metrics != nil {
		rt.metrics.Recompute()
	}
}

// countNotification reports one delivered notification to the metrics sink.
func (rt *Runtime) countNotification() {
	if rt.metrics != nil {
		rt.metrics.Notification()
	}
}
