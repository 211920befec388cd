// Package reactive provides the fine-grained reactive core for the Sigil
// runtime: mutable signals, lazily memoized computed cells, and the
// dependency tracker that connects them.
//
// # Core Types
//
// Signal[T] is a reactive value container:
//
//	rt := reactive.NewRuntime()
//	count := reactive.NewSignal(rt, 0)
//	value := count.Get()  // Read (registers with the active collector)
//	count.Set(5)          // Write (notifies subscribers synchronously)
//
// Computed[T] is a cached derived computation with automatically discovered
// dependencies:
//
//	doubled := reactive.NewComputed(rt, func() int { return count.Get() * 2 })
//	value := doubled.Get()  // Recomputes only if a dependency changed
//
// # Scheduling
//
// Signal notifications are synchronous, in subscriber-registration order,
// within the same call. Computed cells batch their downstream notification:
// when a dependency fires, the cell marks itself stale and schedules exactly
// one deferred recompute-and-notify on the runtime's task queue. The
// embedding framework drains the queue with Runtime.Flush after each
// external event, so any number of dependency writes between two flushes
// collapse into a single downstream notification. This asymmetry is
// deliberate and load-bearing.
//
// # Concurrency
//
// A Runtime and every cell created from it are confined to a single
// goroutine. All operations are synchronous; there is no internal locking.
package reactive
