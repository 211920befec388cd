// Package hooks gives imperative entity setup code hook-like semantics: an
// ordered queue of effect registrations collected during a hook-context
// run, drained in call order, with each slot paired to its previous cleanup
// and optional reactive re-run.
//
// Setup code must call UseEffect unconditionally and in the same order on
// every run for the same entity — slots are identified by call sequence,
// not by a declared key, exactly like array-indexed hook slots. Conditional
// or reordered registrations silently bind effects to the wrong slot; the
// scheduler can only detect the violation by symptom unless the dev-mode
// slot-count check is enabled (WithSlotCheck).
//
//	sch.WithHookContext(el, func() {
//	    sch.UseEffect(func() hooks.Cleanup {
//	        attach(el, theme.Peek())
//	        return func() { detach(el) }
//	    }, []any{theme})
//	})
package hooks
