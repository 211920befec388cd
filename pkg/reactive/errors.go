package reactive

import "errors"

// ErrNilCallback is the panic value when a nil function is passed where a
// callable is required (Subscribe, NewComputed). Structural misuse is a
// caller bug and surfaces synchronously.
var ErrNilCallback = errors.New("sigil: callback must be non-nil")

// ErrReadOnly is the panic value when writing a computed cell. Computed
// values are derived; only their dependencies can be written.
var ErrReadOnly = errors.New("sigil: computed cell is read-only")

// ErrCircularDependency is the panic value when a computed cell's
// computation reads the cell itself, directly or through other cells.
// Only cycles exercised during a live evaluation are detected; a cycle
// that is formed but never evaluated stays dormant.
var ErrCircularDependency = errors.New("sigil: circular dependency in computed cell")
