// Package runtime owns the live graph: it creates, registers and deletes
// entities and relations and keeps their behaviours in step.
//
// Registering an instance attaches every behaviour registered for its type
// and for each of its components. Deleting an entity first deletes the
// relations touching it, then removes its behaviours, then drops it.
//
// A Runtime can record what happens into a store.Store through a Recorder.
// Records are stamped by a logical Clock, so the same scenario always
// produces the same log.
package runtime
