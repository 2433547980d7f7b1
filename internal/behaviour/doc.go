// Package behaviour attaches typed, stateful behaviours to reactive
// instances and governs their lifecycle.
//
// A Behaviour moves through Created, Valid, Ready and Connected. Its
// Validator decides whether it applies to an instance; its Transitions wire
// and unwire signal observers. The only backward edge is Connected to Ready.
//
// Factories build behaviours. A Registry maps owner types (entity, relation
// or component types) to factories. Storage holds live behaviours per
// (instance, behaviour type) and disconnects each one before it leaves the
// store. Manager composes the three into the operations the rest of the
// runtime uses.
//
// Thread-safety model:
//   - Registry and Storage are sharded; operations on different keys do not
//     contend on a single lock.
//   - Transitions of one Behaviour are serialized by its own mutex.
//   - Property propagation triggered by a transition runs synchronously on
//     the caller's goroutine.
package behaviour
