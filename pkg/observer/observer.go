// Package observer reconciles a matcher-derived snapshot of active entities
// against the previously tracked set on every external change signal,
// invoking add/remove callbacks. The diff is pure set membership by
// identity, never positional: within one pass all removals complete before
// any additions begin, so a re-matched entity's exit and entry are never
// interleaved.
package observer

import (
	"log/slog"
	"time"
)

// Matcher derives the currently active entities under root. The observer
// calls it on every reconciliation pass.
type Matcher func(root any) []any

// PassStats summarizes one reconciliation pass.
type PassStats struct {
	// Added and Removed count the entities entering and leaving the
	// tracked set.
	Added   int
	Removed int
	// Tracked is the tracked-set size after the pass.
	Tracked int
	// Failures counts recovered callback panics.
	Failures int
	// Duration is the wall time of the pass.
	Duration time.Duration
}

// Observer watches one root through one matcher. An entity belongs to at
// most one observer's active set at a time; the tracked set changes only
// through reconciliation. Like the rest of the runtime it is confined to a
// single goroutine.
type Observer struct {
	root    any
	matcher Matcher

	onAdd       func(entity any)
	onRemove    func(entity any)
	descendants func(entity any) []any
	onPass      func(PassStats)
	logger      *slog.Logger

	started bool
	tracked map[any]struct{}
	// order preserves insertion order so removal processing is
	// deterministic; membership itself is by identity only.
	order []any
}

// Option configures an Observer.
type Option func(*Observer)

// WithOnAdd sets the callback invoked once per entity entering the
// tracked set.
func WithOnAdd(fn func(entity any)) Option {
	return func(o *Observer) { o.onAdd = fn }
}

// WithOnRemove sets the callback invoked once per entity leaving the
// tracked set, including tracked descendants of a removed subtree.
func WithOnRemove(fn func(entity any)) Option {
	return func(o *Observer) { o.onRemove = fn }
}

// WithDescendants sets the structural enumeration used when a tracked
// entity's subtree leaves the matched set: tracked entities nested under it
// are removed with it, since listeners may be bound to nested entities the
// matcher matched independently. Without it, subtree removal degrades to
// flat set difference.
func WithDescendants(fn func(entity any) []any) Option {
	return func(o *Observer) { o.descendants = fn }
}

// WithOnPass sets a per-pass stats hook (metrics, tracing, devtools).
func WithOnPass(fn func(PassStats)) Option {
	return func(o *Observer) { o.onPass = fn }
}

// WithLogger sets the logger for recovered callback panics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Observer) { o.logger = logger }
}

// New creates an observer over root. The matcher is required.
func New(root any, matcher Matcher, opts ...Option) *Observer {
	if matcher == nil {
		panic("sigil: observer requires a non-nil matcher")
	}
	o := &Observer{
		root:    root,
		matcher: matcher,
		logger:  slog.Default(),
		tracked: make(map[any]struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start marks the observer started and performs an initial reconciliation.
// Starting an already started observer is a no-op.
func (o *Observer) Start() {
	if o.started {
		return
	}
	o.started = true
	o.reconcile()
}

// Stop marks the observer stopped; subsequent change signals are ignored.
// Tracked entities are NOT torn down — this silences observation only.
func (o *Observer) Stop() {
	o.started = false
}

// Pause temporarily stops the observer, runs fn, then restores the
// previous state. Used so the runtime's own tree edits don't re-trigger
// reconciliation against themselves. No pass runs on resume.
func (o *Observer) Pause(fn func()) {
	was := o.started
	o.started = false
	defer func() { o.started = was }()
	fn()
}

// Refresh is the external change-notification entry point: whatever the
// change was, a started observer runs a full reconciliation pass. Stopped
// observers ignore it.
func (o *Observer) Refresh() {
	if !o.started {
		return
	}
	o.reconcile()
}

// Tracked returns a snapshot of the tracked set in insertion order.
func (o *Observer) Tracked() []any {
	out := make([]any, len(o.order))
	copy(out, o.order)
	return out
}

// reconcile diffs the matcher snapshot against the tracked set: removals
// first (subtrees included), then additions.
func (o *Observer) reconcile() {
	start := time.Now()
	var stats PassStats

	matched := o.matcher(o.root)
	matchedSet := make(map[any]struct{}, len(matched))
	for _, e := range matched {
		matchedSet[e] = struct{}{}
	}

	// Removals: every tracked entity the matcher no longer reports,
	// together with its tracked descendants.
	removed := make(map[any]struct{})
	for _, e := range o.order {
		if _, ok := matchedSet[e]; ok {
			continue
		}
		if _, done := removed[e]; done {
			continue
		}
		o.removeSubtree(e, matchedSet, removed, &stats)
	}
	if len(removed) > 0 {
		kept := o.order[:0]
		for _, e := range o.order {
			if _, gone := removed[e]; gone {
				delete(o.tracked, e)
				continue
			}
			kept = append(kept, e)
		}
		o.order = kept
	}

	// Additions: every matched entity not yet tracked.
	for _, e := range matched {
		if _, ok := o.tracked[e]; ok {
			continue
		}
		o.safeCall(o.onAdd, e, "add", &stats)
		o.tracked[e] = struct{}{}
		o.order = append(o.order, e)
		stats.Added++
	}

	stats.Tracked = len(o.tracked)
	stats.Duration = time.Since(start)
	if o.onPass != nil {
		o.onPass(stats)
	}
}

// removeSubtree notifies removal for e's tracked, no-longer-matched
// descendants (deepest first), then for e itself. The removed set guards
// against notifying an entity twice when it shows up both as a tracked
// entity and as a descendant.
func (o *Observer) removeSubtree(e any, matchedSet, removed map[any]struct{}, stats *PassStats) {
	if o.descendants != nil {
		for _, child := range o.descendants(e) {
			o.removeDescendant(child, matchedSet, removed, stats)
		}
	}
	o.notifyRemove(e, removed, stats)
}

func (o *Observer) removeDescendant(e any, matchedSet, removed map[any]struct{}, stats *PassStats) {
	if o.descendants != nil {
		for _, child := range o.descendants(e) {
			o.removeDescendant(child, matchedSet, removed, stats)
		}
	}
	if _, tracked := o.tracked[e]; !tracked {
		return
	}
	if _, stillMatched := matchedSet[e]; stillMatched {
		// The matcher still reports it independently of the removed
		// subtree; it stays tracked.
		return
	}
	o.notifyRemove(e, removed, stats)
}

func (o *Observer) notifyRemove(e any, removed map[any]struct{}, stats *PassStats) {
	if _, done := removed[e]; done {
		return
	}
	removed[e] = struct{}{}
	o.safeCall(o.onRemove, e, "remove", stats)
	stats.Removed++
}

// safeCall invokes a callback under a recover boundary; a panicking
// callback is logged and never aborts the pass.
func (o *Observer) safeCall(fn func(any), entity any, kind string, stats *PassStats) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			stats.Failures++
			o.logger.Error("sigil: observer callback panicked",
				"kind", kind, "entity", entity, "panic", r)
		}
	}()
	fn(entity)
}
