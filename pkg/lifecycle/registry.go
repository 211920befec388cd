// Package lifecycle tracks per-entity teardown functions and executes them
// with failure isolation: one buggy teardown never blocks the rest, and the
// entity's bookkeeping is always cleared, so an entity stays removable and
// re-initializable no matter what its cleanups do.
package lifecycle

import (
	"fmt"
	"log/slog"
)

// TeardownError captures a panic recovered from a teardown function. It is
// recorded in the step results and logged, never re-thrown.
type TeardownError struct {
	// Entity owns the teardown that failed.
	Entity any
	// Stage is "primary" or "secondary".
	Stage string
	// Index is the secondary teardown's registration position, -1 for
	// the primary.
	Index int
	// Recovered is the recovered panic value.
	Recovered any
}

func (e *TeardownError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("sigil: %s teardown %d panicked: %v", e.Stage, e.Index, e.Recovered)
	}
	return fmt.Sprintf("sigil: %s teardown panicked: %v", e.Stage, e.Recovered)
}

// StepResult is the outcome of one teardown invocation.
type StepResult struct {
	OK  bool
	Err *TeardownError
}

// Result is the outcome of Execute. Primary is nil when the entity had no
// primary teardown registered.
type Result struct {
	Primary   *StepResult
	Secondary []StepResult
}

// Failures counts the failed steps.
func (r Result) Failures() int {
	n := 0
	if r.Primary != nil && !r.Primary.OK {
		n++
	}
	for _, s := range r.Secondary {
		if !s.OK {
			n++
		}
	}
	return n
}

// Metrics receives counters from the registry.
type Metrics interface {
	// TeardownFailure is called for every recovered teardown panic.
	TeardownFailure()
}

// record is one entity's registered teardowns.
type record struct {
	primary   func()
	secondary []func()
}

// Registry associates teardown functions with entities. Keys are compared
// by identity; an entity's dynamic type must be comparable. The registry
// holds no other reference to the entity than the map key, and Execute
// always removes it.
type Registry struct {
	logger  *slog.Logger
	metrics Metrics

	records map[any]*record
	inited  map[any]struct{}
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for recovered teardown panics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry creates an empty lifecycle registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		logger:  slog.Default(),
		records: make(map[any]*record),
		inited:  make(map[any]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetPrimary registers entity's primary teardown, replacing any previous
// one. A nil fn is rejected with a false return.
func (r *Registry) SetPrimary(entity any, fn func()) bool {
	if fn == nil {
		return false
	}
	r.record(entity).primary = fn
	return true
}

// Add appends a secondary teardown to entity's record. Registration is
// additive; execution order is registration order. A nil fn is rejected
// with a false return.
func (r *Registry) Add(entity any, fn func()) bool {
	if fn == nil {
		return false
	}
	rec := r.record(entity)
	rec.secondary = append(rec.secondary, fn)
	return true
}

// MarkInitialized records that entity completed its setup phase.
func (r *Registry) MarkInitialized(entity any) {
	r.inited[entity] = struct{}{}
}

// Initialized reports whether entity completed its setup phase and has not
// been torn down since.
func (r *Registry) Initialized(entity any) bool {
	_, ok := r.inited[entity]
	return ok
}

// Registered reports whether entity has any teardowns on record.
func (r *Registry) Registered(entity any) bool {
	_, ok := r.records[entity]
	return ok
}

// Execute runs entity's primary teardown, then every secondary teardown in
// registration order, each under its own isolation boundary: a panic is
// recovered, logged, and recorded as a failed step, and execution
// continues. The entity's record and initialization mark are deleted
// unconditionally, so repeated calls invoke the underlying cleanups at
// most once total and the entity can be registered again from a clean
// state.
func (r *Registry) Execute(entity any) Result {
	defer func() {
		delete(r.records, entity)
		delete(r.inited, entity)
	}()

	rec, ok := r.records[entity]
	if !ok {
		return Result{}
	}

	var result Result
	if rec.primary != nil {
		step := r.runIsolated(entity, "primary", -1, rec.primary)
		result.Primary = &step
	}
	for i, fn := range rec.secondary {
		result.Secondary = append(result.Secondary, r.runIsolated(entity, "secondary", i, fn))
	}
	return result
}

// record returns entity's record, creating it on first registration.
func (r *Registry) record(entity any) *record {
	rec, ok := r.records[entity]
	if !ok {
		rec = &record{}
		r.records[entity] = rec
	}
	return rec
}

// runIsolated invokes one teardown under a recover boundary.
func (r *Registry) runIsolated(entity any, stage string, index int, fn func()) (step StepResult) {
	defer func() {
		if rec := recover(); rec != nil {
			step = StepResult{Err: &TeardownError{
				Entity:    entity,
				Stage:     stage,
				Index:     index,
				Recovered: rec,
			}}
			if r.metrics != nil {
				r.metrics.TeardownFailure()
			}
			r.logger.Error("sigil: teardown panicked",
				"entity", entity, "stage", stage, "index", index, "panic", rec)
		}
	}()
	fn()
	return StepResult{OK: true}
}
