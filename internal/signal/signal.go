package signal

import (
	"slices"
	"sync"
	"sync/atomic"
)

type observer[T any] struct {
	handle HandleID
	fn     func(T)
}

// Signal is a synchronous multicast observable of values of type T.
//
// The zero value is ready to use. A Signal must not be copied after first use.
type Signal[T any] struct {
	mu   sync.Mutex
	opts options

	// observers is replaced, never mutated, so Send can iterate a stable
	// snapshot without holding the lock.
	observers atomic.Pointer[[]observer[T]]
	depth     atomic.Int32
}

// New creates a Signal.
func New[T any](opts ...Option) *Signal[T] {
	s := &Signal[T]{}
	for _, opt := range opts {
		opt(&s.opts)
	}
	return s
}

func (s *Signal[T]) load() []observer[T] {
	if p := s.observers.Load(); p != nil {
		return *p
	}
	return nil
}

// Send delivers v to every registered observer in registration order.
//
// Observers added or removed while a send is in progress take effect for
// the next send. A signal without observers ignores v.
func (s *Signal[T]) Send(v T) {
	ok, leave := s.enter()
	if !ok {
		return
	}
	defer leave()

	for _, o := range s.load() {
		o.fn(v)
	}
}

// Observe registers fn under a fresh handle and returns the handle.
func (s *Signal[T]) Observe(fn func(T)) HandleID {
	h := NewHandle()
	s.ObserveWithHandle(fn, h)
	return h
}

// ObserveWithHandle registers fn under h. If h is already registered its
// callback is replaced in place, keeping its position in the delivery order.
func (s *Signal[T]) ObserveWithHandle(fn func(T), h HandleID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.load()
	next := slices.Clone(current)
	if i := slices.IndexFunc(next, func(o observer[T]) bool { return o.handle == h }); i >= 0 {
		next[i].fn = fn
	} else {
		next = append(next, observer[T]{handle: h, fn: fn})
	}
	s.observers.Store(&next)
}

// Remove unregisters the observer with handle h. It reports whether an
// observer was removed; removing an unknown handle is a no-op.
func (s *Signal[T]) Remove(h HandleID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.load()
	i := slices.IndexFunc(current, func(o observer[T]) bool { return o.handle == h })
	if i < 0 {
		return false
	}
	next := slices.Delete(slices.Clone(current), i, i+1)
	s.observers.Store(&next)
	return true
}

// Clear removes every observer.
func (s *Signal[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers.Store(nil)
}

// Len returns the number of registered observers.
func (s *Signal[T]) Len() int {
	return len(s.load())
}

// Has reports whether h is registered.
func (s *Signal[T]) Has(h HandleID) bool {
	return slices.ContainsFunc(s.load(), func(o observer[T]) bool { return o.handle == h })
}

// Handles returns the registered handles in delivery order.
func (s *Signal[T]) Handles() []HandleID {
	obs := s.load()
	out := make([]HandleID, len(obs))
	for i, o := range obs {
		out[i] = o.handle
	}
	return out
}
