// Package model provides the identifier and schema types shared by every
// layer of the reactive graph runtime.
//
// This package contains value types only. All other internal packages
// import model; model imports nothing internal.
//
// Key design constraints:
//   - TypeID is a comparable value type and is used directly as a map key
//   - Namespaces and names are NFC normalized on construction
//   - RelationInstanceID orders by (type, outbound, inbound) for deterministic iteration
//   - The Catalog is a stand-in for the external type system: it stores
//     declared property types, it never parses or validates schemas
package model
