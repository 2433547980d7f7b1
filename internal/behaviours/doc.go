// Package behaviours contains the built-in behaviour kinds: property
// connectors for relations, arithmetic and logical gates, a counter and a
// value debugger.
//
// Each kind is a Factory built from a validator and observer-based
// transitions. Register binds them to their owner types and Catalog
// declares those types.
package behaviours
