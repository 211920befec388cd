package hooks

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sigil-ui/sigil/pkg/reactive"
)

// ErrMissingDeps is the panic value when UseEffect is called without a
// dependency list. Pass an empty list for a run-once effect; omitting the
// list is a caller error.
var ErrMissingDeps = errors.New("sigil: effect registered without a dependency list")

// Cleanup is returned by an effect setup to release whatever the setup
// acquired. It runs before the slot's next invocation and during
// entity-wide cleanup.
type Cleanup func()

// Metrics receives counters from the effect scheduler.
type Metrics interface {
	// EffectRun is called for every effect setup invocation.
	EffectRun()
	// EffectFailure is called for every recovered setup/cleanup panic.
	EffectFailure()
}

// Scheduler collects effect registrations during hook-context runs and
// owns the per-entity slot state. Like the reactive Runtime it is confined
// to a single goroutine.
type Scheduler struct {
	rt        *reactive.Runtime
	logger    *slog.Logger
	metrics   Metrics
	slotCheck bool

	stack    []*hookContext
	entities map[any]*entityState
}

// hookContext is one entity's setup phase in progress.
type hookContext struct {
	entity   any
	queue    []registration
	cleanups []Cleanup
}

// registration is one UseEffect call, in call order.
type registration struct {
	setup func() Cleanup
	deps  []any
}

// entityState is the scheduler's bookkeeping for one entity.
type entityState struct {
	slots    []*slot
	cleanups []Cleanup
	// slotCount is the registration count of the previous run, for the
	// dev-mode slot check.
	slotCount int
	ran       bool
}

// slot is one ordered, index-identified effect: the current setup thunk,
// the cleanup from its last run, and the live dependency subscriptions.
type slot struct {
	index       int
	initialized bool
	setup       func() Cleanup
	cleanup     Cleanup
	unsubs      []func()
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger for diagnostics and recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithSlotCheck enables the dev-mode check that panics when a re-run of an
// entity's hook context registers a different number of effects than the
// previous run.
func WithSlotCheck(enabled bool) Option {
	return func(s *Scheduler) { s.slotCheck = enabled }
}

// NewScheduler creates an effect scheduler over the given runtime.
func NewScheduler(rt *reactive.Runtime, opts ...Option) *Scheduler {
	s := &Scheduler{
		rt:       rt,
		logger:   slog.Default(),
		entities: make(map[any]*entityState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithHookContext runs thunk as entity's setup phase. UseEffect calls
// inside thunk queue in call order; after thunk returns the queue drains in
// that order, pairing each slot with its previous cleanup. The queue
// empties and slot numbering restarts from zero for the next run.
//
// If thunk panics the context is popped and nothing queued so far is
// drained; the panic propagates to the caller.
func (s *Scheduler) WithHookContext(entity any, thunk func()) {
	ctx := &hookContext{entity: entity}
	s.stack = append(s.stack, ctx)
	popped := false
	defer func() {
		if !popped {
			s.stack = s.stack[:len(s.stack)-1]
		}
	}()

	thunk()

	s.stack = s.stack[:len(s.stack)-1]
	popped = true
	s.drain(ctx)
}

// UseEffect registers an effect in the current hook context.
//
// deps lists the reactive cells whose changes re-run the effect; a nil
// list panics with ErrMissingDeps, an empty list means run once. List
// members that are not reactive cells are inert: logged as a diagnostic,
// never a re-run trigger, and harmless to the reactive members around
// them.
//
// Called with no active hook context, the registration is logged and
// skipped: the call site cannot know whether that should be fatal to its
// caller.
func (s *Scheduler) UseEffect(setup func() Cleanup, deps []any) {
	if setup == nil {
		panic(reactive.ErrNilCallback)
	}
	if deps == nil {
		panic(ErrMissingDeps)
	}

	ctx := s.current()
	if ctx == nil {
		s.logger.Warn("sigil: effect registered outside a hook context, skipping")
		return
	}
	ctx.queue = append(ctx.queue, registration{setup: setup, deps: deps})
}

// OnCleanup registers a non-effect cleanup for the current context's
// entity. It runs during entity-wide cleanup, after the effect slots'.
func (s *Scheduler) OnCleanup(fn Cleanup) {
	if fn == nil {
		s.logger.Warn("sigil: nil cleanup registration skipped")
		return
	}
	ctx := s.current()
	if ctx == nil {
		s.logger.Warn("sigil: cleanup registered outside a hook context, skipping")
		return
	}
	ctx.cleanups = append(ctx.cleanups, fn)
}

// Cleanup tears down everything the scheduler holds for entity: dependency
// subscriptions first, so no effect fires mid-teardown, then every stored
// cleanup, then all bookkeeping. Panicking cleanups are recovered and
// logged individually.
func (s *Scheduler) Cleanup(entity any) {
	st, ok := s.entities[entity]
	if !ok {
		return
	}

	for _, sl := range st.slots {
		sl.unsubscribe()
	}
	for _, sl := range st.slots {
		if sl.cleanup != nil {
			s.runCleanup(entity, sl.index, sl.cleanup)
			sl.cleanup = nil
		}
	}
	for _, fn := range st.cleanups {
		s.runCleanup(entity, -1, fn)
	}

	delete(s.entities, entity)
}

// current returns the innermost hook context, or nil.
func (s *Scheduler) current() *hookContext {
	if n := len(s.stack); n > 0 {
		return s.stack[n-1]
	}
	return nil
}

// drain executes the queued registrations in call order.
func (s *Scheduler) drain(ctx *hookContext) {
	st := s.entities[ctx.entity]
	if st == nil {
		st = &entityState{}
		s.entities[ctx.entity] = st
	}

	if s.slotCheck && st.ran && len(ctx.queue) != st.slotCount {
		panic(fmt.Sprintf(
			"sigil: hook slot count changed for entity %v: previous run registered %d effects, this run %d — effects must be registered unconditionally and in the same order every run",
			ctx.entity, st.slotCount, len(ctx.queue)))
	}

	for i, reg := range ctx.queue {
		sl := st.slot(i)
		sl.setup = reg.setup

		// Old dependency subscriptions are always torn down before
		// new ones are installed.
		sl.unsubscribe()
		s.runSlot(ctx.entity, sl)
		s.subscribe(ctx.entity, sl, reg.deps)
	}

	st.cleanups = append(st.cleanups, ctx.cleanups...)
	st.slotCount = len(ctx.queue)
	st.ran = true
}

// slot returns the i'th slot, growing the slice as needed.
func (st *entityState) slot(i int) *slot {
	for len(st.slots) <= i {
		st.slots = append(st.slots, &slot{index: len(st.slots)})
	}
	return st.slots[i]
}

func (sl *slot) unsubscribe() {
	for _, unsub := range sl.unsubs {
		unsub()
	}
	sl.unsubs = nil
}

// subscribe installs the slot's dependency subscriptions. Reactive list
// members re-run the slot when they fire; anything else is inert.
func (s *Scheduler) subscribe(entity any, sl *slot, deps []any) {
	for _, dep := range deps {
		src, ok := dep.(reactive.Source)
		if !ok {
			s.logger.Warn("sigil: non-reactive value in effect dependency list is inert",
				"entity", entity, "slot", sl.index, "dep", fmt.Sprintf("%T", dep))
			continue
		}
		sl.unsubs = append(sl.unsubs, src.Watch(func() {
			s.runSlot(entity, sl)
		}))
	}
}

// runSlot performs one slot invocation: previous cleanup first, then the
// setup thunk, storing any returned function as the new cleanup. Panics are
// recovered and logged; one slot's bug never blocks its siblings.
func (s *Scheduler) runSlot(entity any, sl *slot) {
	if sl.cleanup != nil {
		s.runCleanup(entity, sl.index, sl.cleanup)
		sl.cleanup = nil
	}

	defer func() {
		if r := recover(); r != nil {
			s.countFailure()
			s.logger.Error("sigil: effect setup panicked",
				"entity", entity, "slot", sl.index, "panic", r)
		}
	}()
	s.countRun()
	sl.cleanup = sl.setup()
	sl.initialized = true
}

// runCleanup invokes a stored cleanup under its own recover boundary.
func (s *Scheduler) runCleanup(entity any, slotIndex int, fn Cleanup) {
	defer func() {
		if r := recover(); r != nil {
			s.countFailure()
			s.logger.Error("sigil: effect cleanup panicked",
				"entity", entity, "slot", slotIndex, "panic", r)
		}
	}()
	fn()
}

func (s *Scheduler) countRun() {
	if s.metrics != nil {
		s.metrics.EffectRun()
	}
}

func (s *Scheduler) countFailure() {
	if s.metrics != nil {
		s.metrics.EffectFailure()
	}
}
