// Package store provides SQLite-backed durable storage for rgraph event logs.
//
// The store is an append-only log of what happened while a graph ran:
//   - Behaviour events: lifecycle changes (added, connected, removed, ...)
//   - Property events: values written to instance properties
//
// It records history, not the graph itself. Reloading a graph from the log
// is out of scope.
//
// # Ordering
//
// Every row carries a seq from the runtime's logical clock. All queries
// order by seq, never by wall time, so two runs of the same scenario
// produce identical logs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Property values are stored as canonical JSON (see model.MarshalCanonical).
package store
