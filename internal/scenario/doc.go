// Package scenario runs reactive graph scenarios described in YAML.
//
// A scenario declares extra types, the entities and relations to create,
// a list of steps to apply and the expectations to check afterwards:
//
//	name: add_gate
//	description: "An add gate recomputes its result"
//	entities:
//	  - name: add
//	    type: arithmetic::add
//	    properties: { lhs: 1, rhs: 1 }
//	steps:
//	  - op: set
//	    entity: add
//	    property: rhs
//	    value: 2
//	expect:
//	  - type: property
//	    entity: add
//	    property: result
//	    value: 3
//
// # Determinism
//
// Entity ids are derived from the scenario name and the local entity
// name, and every trace event is stamped by a runtime.Clock.
// Traces refer to instances by their local names, so the same scenario
// always produces the same trace and can be compared against a golden
// file.
//
// # Expectation Types
//
//   - property: a property holds a value after the last step
//   - behaviour: a behaviour is in a state, or absent
//   - observers: a property has exactly N observers
//   - trace_count: exactly N trace events match the given fields
package scenario
