package reactive

import "reflect"

// Signal is a mutable reactive value container. Reading a Signal while a
// computation is being tracked registers the signal as a dependency of that
// computation; writing a changed value notifies subscribers synchronously,
// in registration order.
type Signal[T any] struct {
	base  cellBase
	value T

	// equal decides whether a write changed the value. Nil means the
	// default: == for comparable kinds, reflect.DeepEqual otherwise.
	equal func(T, T) bool
}

// NewSignal creates a signal bound to rt with the given initial value.
func NewSignal[T any](rt *Runtime, initial T) *Signal[T] {
	return &Signal[T]{
		base:  newCellBase(rt),
		value: initial,
	}
}

// Get returns the current value. If a collector is active, the signal
// registers itself as a dependency first.
func (s *Signal[T]) Get() T {
	s.base.rt.track(&s.base)
	return s.value
}

// Peek returns the current value without registering a dependency.
func (s *Signal[T]) Peek() T {
	return s.value
}

// Set stores v and synchronously notifies every subscriber, in registration
// order, within the same call. Writing a value equal to the current one is
// a no-op: no subscriber fires.
func (s *Signal[T]) Set(v T) {
	if s.equals(s.value, v) {
		return
	}
	s.value = v
	s.base.rt.countWrite()
	s.base.notifyAll()
}

// Update reads the current value, applies fn, and stores the result with
// Set semantics.
func (s *Signal[T]) Update(fn func(T) T) {
	s.Set(fn(s.value))
}

// Subscribe registers fn to receive the signal's value on every change.
// The returned closure unsubscribes and is idempotent. A nil fn panics
// with ErrNilCallback.
func (s *Signal[T]) Subscribe(fn func(T)) func() {
	if fn == nil {
		panic(ErrNilCallback)
	}
	return s.base.watch(func() { fn(s.value) })
}

// Watch implements Source.
func (s *Signal[T]) Watch(fn func()) func() {
	return s.base.watch(fn)
}

// Destroy clears the subscriber set. The value is retained and the signal
// remains readable.
func (s *Signal[T]) Destroy() {
	s.base.subs = nil
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 {
	return s.base.id
}

// WithEquals returns the signal configured with a custom equality function,
// for types where reflect.DeepEqual is too expensive or has the wrong
// semantics.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals provides type-appropriate equality: == for the common
// comparable kinds, reflect.DeepEqual for everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}
