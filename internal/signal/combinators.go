package signal

import (
	"context"
	"sync"
	"weak"
)

// Map returns a signal that forwards f(v) for every v sent on src.
func Map[T, U any](src *Signal[T], f func(T) U) *Signal[U] {
	out := New[U]()
	src.Observe(func(v T) {
		out.Send(f(v))
	})
	return out
}

// FilterMap returns a signal that forwards f(v) when f reports ok.
func FilterMap[T, U any](src *Signal[T], f func(T) (U, bool)) *Signal[U] {
	out := New[U]()
	src.Observe(func(v T) {
		if u, ok := f(v); ok {
			out.Send(u)
		}
	})
	return out
}

// Filter returns a signal that forwards v only if pred(v) holds.
func (s *Signal[T]) Filter(pred func(T) bool) *Signal[T] {
	out := New[T]()
	s.Observe(func(v T) {
		if pred(v) {
			out.Send(v)
		}
	})
	return out
}

// Fold returns a signal that keeps an accumulator, starting at initial,
// and forwards acc = f(acc, v) for every v sent on src.
func Fold[T, A any](src *Signal[T], initial A, f func(A, T) A) *Signal[A] {
	out := New[A]()
	var mu sync.Mutex
	acc := initial
	src.Observe(func(v T) {
		mu.Lock()
		acc = f(acc, v)
		next := acc
		mu.Unlock()
		out.Send(next)
	})
	return out
}

// Merge returns a signal that forwards values from s and other in the
// order they are sent.
func (s *Signal[T]) Merge(other *Signal[T]) *Signal[T] {
	out := New[T]()
	s.Observe(out.Send)
	other.Observe(out.Send)
	return out
}

// MergeWith merges two signals of different types into one by mapping
// each side through its own function.
func MergeWith[A, B, V any](a *Signal[A], b *Signal[B], fa func(A) V, fb func(B) V) *Signal[V] {
	out := New[V]()
	a.Observe(func(v A) { out.Send(fa(v)) })
	b.Observe(func(v B) { out.Send(fb(v)) })
	return out
}

// Zip returns a signal that tags values from a as Left and values from b
// as Right, forwarding each as its source fires. It does not pair values.
func Zip[A, B any](a *Signal[A], b *Signal[B]) *Signal[Either[A, B]] {
	return MergeWith(a, b, Left[A, B], Right[A, B])
}

// Unzip splits a signal of Either into a left and a right signal, each
// firing only for its own variant.
func Unzip[A, B any](src *Signal[Either[A, B]]) (*Signal[A], *Signal[B]) {
	left, right := New[A](), New[B]()
	src.Observe(func(e Either[A, B]) {
		if a, ok := e.LeftValue(); ok {
			left.Send(a)
			return
		}
		b, _ := e.RightValue()
		right.Send(b)
	})
	return left, right
}

// Entangled builds two signals that feed each other. A value sent on x is
// passed to fab; if it reports ok the result is sent on y, and symmetrically
// for y through fba. The loop ends when a feedback function reports false.
//
// Each signal only holds a weak reference to the other, so neither keeps its
// partner alive. The caller must hold both.
func Entangled[A, B any](fab func(A) (B, bool), fba func(B) (A, bool)) (*Signal[A], *Signal[B]) {
	x, y := New[A](), New[B]()
	wx, wy := weak.Make(x), weak.Make(y)

	x.Observe(func(a A) {
		b, ok := fab(a)
		if !ok {
			return
		}
		if partner := wy.Value(); partner != nil {
			partner.Send(b)
		}
	})
	y.Observe(func(b B) {
		a, ok := fba(b)
		if !ok {
			return
		}
		if partner := wx.Value(); partner != nil {
			partner.Send(a)
		}
	})
	return x, y
}

// Forward sends every value of src into dst and returns the handle of the
// registration on src.
func Forward[T any](src, dst *Signal[T]) HandleID {
	return src.Observe(dst.Send)
}

// Recv waits for the next value sent on s. It returns ctx.Err() if the
// context ends first. The temporary observer is always removed.
func (s *Signal[T]) Recv(ctx context.Context) (T, error) {
	ch := make(chan T, 1)
	h := s.Observe(func(v T) {
		select {
		case ch <- v:
		default:
		}
	})
	defer s.Remove(h)

	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
