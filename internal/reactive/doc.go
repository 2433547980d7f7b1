// Package reactive holds graph instances whose properties are observable.
//
// Every property of an Entity or Relation stores its current value next to a
// signal.Signal. Set stores and then sends; SetNoPropagate only stores. The
// Checked variants refuse writes to properties declared immutable. Tick
// re-sends stored values so connected behaviours recompute.
//
// Instances also carry two indexes maintained by the behaviour layer: the
// components they are made of and the behaviour types currently attached.
package reactive
