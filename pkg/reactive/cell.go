package reactive

// Source is the type-erased view of a reactive cell. Both Signal[T] and
// Computed[T] implement it; the hooks package accepts any Source in an
// effect dependency list.
type Source interface {
	// ID returns the cell's unique identifier.
	ID() uint64
	// Watch subscribes fn to change notification without exposing the
	// value. The returned closure unsubscribes and is idempotent.
	Watch(fn func()) func()
}

// cellBase provides subscriber management shared by Signal and Computed.
// Subscribers are kept in registration order; notification order is part of
// the contract.
type cellBase struct {
	id   uint64
	rt   *Runtime
	subs []subscriber
}

func newCellBase(rt *Runtime) cellBase {
	return cellBase{id: nextID(), rt: rt}
}

// ID returns the owning cell's unique identifier.
func (b *cellBase) ID() uint64 { return b.id }

// addSub appends a subscriber, deduplicating by ID.
func (b *cellBase) addSub(s subscriber) {
	if s == nil {
		return
	}
	sid := s.ID()
	for _, existing := range b.subs {
		if existing.ID() == sid {
			return
		}
	}
	b.subs = append(b.subs, s)
}

// removeSub removes a subscriber by ID, preserving registration order of
// the rest.
func (b *cellBase) removeSub(id uint64) {
	for i, existing := range b.subs {
		if existing.ID() == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// notifyAll notifies every subscriber in registration order within the same
// call. A subscriber that panics is recovered and logged individually; the
// remaining subscribers are still notified.
func (b *cellBase) notifyAll() {
	// Copy before notifying: a subscriber may unsubscribe itself or
	// others while the walk is in progress.
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)

	for _, s := range subs {
		b.notifyOne(s)
	}
}

func (b *cellBase) notifyOne(s subscriber) {
	defer func() {
		if r := recover(); r != nil {
			b.rt.logger.Error("sigil: subscriber panicked during notification",
				"cell", b.id, "subscriber", s.ID(), "panic", r)
		}
	}()
	b.rt.countNotification()
	s.notify()
}

// callbackSub adapts a plain closure to the subscriber interface.
// Returned by Subscribe and Watch.
type callbackSub struct {
	id uint64
	fn func()
}

func (c *callbackSub) ID() uint64 { return c.id }
func (c *callbackSub) notify()    { c.fn() }

// watch installs a type-erased change callback and returns an idempotent
// unsubscribe closure.
func (b *cellBase) watch(fn func()) func() {
	if fn == nil {
		panic(ErrNilCallback)
	}
	sub := &callbackSub{id: nextID(), fn: fn}
	b.addSub(sub)

	removed := false
	return func() {
		if removed {
			return
		}
		removed = true
		b.removeSub(sub.id)
	}
}
