// Package signal provides a synchronous, push-based, multicast observable
// and an algebra of combinators over it.
//
// A Signal delivers every sent value to its observers in registration order
// on the calling goroutine. There is no buffering, no replay and no
// backpressure: an observer that sends into another signal re-enters
// synchronously, which is how property changes cascade through a graph.
//
// Combinators (Map, Filter, Fold, Merge, Zip, Unzip, Entangled, ...) build a
// new Signal that observes its sources and forwards transformed values.
// They never fail.
//
// Cycles are the caller's responsibility unless a depth limit is set with
// WithMaxDepth; see DepthExceededError.
package signal
