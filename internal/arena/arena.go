// Package arena stores values in reusable slots addressed by generation-checked
// handles. Each slot carries a reference count; the slot returns to the free
// list when the count drops to zero.
package arena

// Handle addresses one slot. The zero Handle is never valid.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool { return h.gen == 0 }

type slot[T any] struct {
	value T
	refs  int32
	gen   uint32
	next  int32 // free-list link, -1 terminates
}

// Arena is a slab of slots with a free list. It is not safe for concurrent
// use; owners serialise access.
type Arena[T any] struct {
	slots []slot[T]
	free  int32
	live  int
}

// New returns an empty arena with capacity for n values.
func New[T any](n int) *Arena[T] {
	return &Arena[T]{slots: make([]slot[T], 0, n), free: -1}
}

// Acquire stores v and returns its handle with a reference count of one.
func (a *Arena[T]) Acquire(v T) Handle {
	var idx int32
	if a.free >= 0 {
		idx = a.free
		a.free = a.slots[idx].next
	} else {
		a.slots = append(a.slots, slot[T]{})
		idx = int32(len(a.slots) - 1)
	}
	s := &a.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.value = v
	s.refs = 1
	s.next = -1
	a.live++
	return Handle{index: uint32(idx), gen: s.gen}
}

// Get returns the value behind h, or false when h is stale or zero.
func (a *Arena[T]) Get(h Handle) (T, bool) {
	s := a.lookup(h)
	if s == nil {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Retain increments the reference count of h.
func (a *Arena[T]) Retain(h Handle) bool {
	s := a.lookup(h)
	if s == nil {
		return false
	}
	s.refs++
	return true
}

// Release decrements the reference count of h and frees the slot at zero.
// It reports whether the slot was freed.
func (a *Arena[T]) Release(h Handle) bool {
	s := a.lookup(h)
	if s == nil {
		return false
	}
	s.refs--
	if s.refs > 0 {
		return false
	}
	var zero T
	s.value = zero
	s.refs = 0
	s.gen++
	s.next = a.free
	a.free = int32(h.index)
	a.live--
	return true
}

// Refs returns the current reference count of h, zero when stale.
func (a *Arena[T]) Refs(h Handle) int {
	s := a.lookup(h)
	if s == nil {
		return 0
	}
	return int(s.refs)
}

// Len returns the number of live values.
func (a *Arena[T]) Len() int { return a.live }

// Reset frees every slot. Outstanding handles become stale.
func (a *Arena[T]) Reset() {
	a.free = -1
	for i := len(a.slots) - 1; i >= 0; i-- {
		s := &a.slots[i]
		var zero T
		s.value = zero
		if s.refs > 0 {
			s.gen++
		}
		s.refs = 0
		s.next = a.free
		a.free = int32(i)
	}
	a.live = 0
}

func (a *Arena[T]) lookup(h Handle) *slot[T] {
	if h.gen == 0 || int(h.index) >= len(a.slots) {
		return nil
	}
	s := &a.slots[h.index]
	if s.gen != h.gen || s.refs <= 0 {
		return nil
	}
	return s
}
