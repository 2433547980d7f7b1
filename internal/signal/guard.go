package signal

import (
	"errors"
	"fmt"
)

// DepthExceededError reports a send that was dropped because the signal was
// already re-entered Limit times on the current propagation path.
type DepthExceededError struct {
	Depth int
	Limit int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("signal re-entered %d times (limit %d): send dropped", e.Depth, e.Limit)
}

// IsDepthExceeded reports whether err is or wraps a DepthExceededError.
func IsDepthExceeded(err error) bool {
	var de *DepthExceededError
	return errors.As(err, &de)
}

// Option configures a Signal.
type Option func(*options)

type options struct {
	maxDepth   int
	onOverflow func(*DepthExceededError)
}

// WithMaxDepth limits how many nested sends a signal accepts while it is
// still delivering an earlier value. Zero or negative means unlimited.
//
// The counter is per signal, not per goroutine. Concurrent senders on the
// same signal must be serialized by the caller anyway.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		o.maxDepth = n
	}
}

// WithOverflowHandler sets the function called when a send is dropped by
// the depth limit. Without a handler the send is dropped silently.
func WithOverflowHandler(fn func(*DepthExceededError)) Option {
	return func(o *options) {
		o.onOverflow = fn
	}
}

// Apply copies the options into the signal. Used by owners (properties)
// that create signals before their configuration is known.
func (s *Signal[T]) Apply(opts ...Option) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, opt := range opts {
		opt(&s.opts)
	}
}

// enter increments the depth counter and reports whether the send may
// proceed. The returned function must be called when delivery finishes.
func (s *Signal[T]) enter() (bool, func()) {
	s.mu.Lock()
	limit, handler := s.opts.maxDepth, s.opts.onOverflow
	s.mu.Unlock()
	if limit <= 0 {
		return true, func() {}
	}

	depth := int(s.depth.Add(1))
	leave := func() { s.depth.Add(-1) }
	if depth > limit {
		leave()
		if handler != nil {
			handler(&DepthExceededError{Depth: depth, Limit: limit})
		}
		return false, nil
	}
	return true, leave
}
