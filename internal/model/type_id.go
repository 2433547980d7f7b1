package model

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// NamespaceSeparator separates the namespace from the type name in the
// string form of a TypeID ("logical::and").
const NamespaceSeparator = "::"

// TypeKind discriminates the family a TypeID belongs to.
type TypeKind int

const (
	KindComponent TypeKind = iota + 1
	KindEntityType
	KindRelationType
	KindFlowType
	KindExtension
	KindBehaviourType
)

var kindShortNames = map[TypeKind]string{
	KindComponent:     "c",
	KindEntityType:    "e",
	KindRelationType:  "r",
	KindFlowType:      "f",
	KindExtension:     "x",
	KindBehaviourType: "b",
}

var kindFullNames = map[TypeKind]string{
	KindComponent:     "Component",
	KindEntityType:    "EntityType",
	KindRelationType:  "RelationType",
	KindFlowType:      "FlowType",
	KindExtension:     "Extension",
	KindBehaviourType: "Behaviour",
}

// kindNamespaces are the UUID namespaces used to derive stable UUIDs for type ids.
var kindNamespaces = map[TypeKind]uuid.UUID{
	KindComponent:     uuid.MustParse("1ab7c810-9d3d-13c1-80f4-68262fd540d9"),
	KindEntityType:    uuid.MustParse("6ba7c810-9dcd-11c1-80b4-00d04fd530c7"),
	KindRelationType:  uuid.MustParse("1ab7c810-9dcd-11c1-80b4-00d01fd530c7"),
	KindFlowType:      uuid.MustParse("62b7c810-9dcd-11c1-80b4-00d04fd530c7"),
	KindExtension:     uuid.MustParse("6ba7c810-9dcd-11f5-86b7-08d07fd530c7"),
	KindBehaviourType: uuid.MustParse("12b7c810-9d3d-13c1-80f8-6c262ff540d9"),
}

// String returns the short form of the kind ("c", "e", "r", "f", "x", "b").
func (k TypeKind) String() string {
	if s, ok := kindShortNames[k]; ok {
		return s
	}
	return fmt.Sprintf("TypeKind(%d)", int(k))
}

// FullName returns the human readable name of the kind.
func (k TypeKind) FullName() string {
	if s, ok := kindFullNames[k]; ok {
		return s
	}
	return k.String()
}

// ParseTypeKind parses either the short or the full name of a kind.
func ParseTypeKind(s string) (TypeKind, error) {
	for k, short := range kindShortNames {
		if s == short || strings.EqualFold(s, kindFullNames[k]) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown type kind %q", s)
}

// TypeID is a namespaced type identifier.
//
// Equality, hashing and ordering cover namespace, name and kind. A TypeID is
// immutable after construction; use the New* constructors so both parts are
// NFC normalized.
type TypeID struct {
	Kind      TypeKind
	Namespace string
	Name      string
}

// NewTypeID creates a TypeID of the given kind.
func NewTypeID(kind TypeKind, namespace, name string) TypeID {
	return TypeID{
		Kind:      kind,
		Namespace: norm.NFC.String(namespace),
		Name:      norm.NFC.String(name),
	}
}

// NewComponentType creates a component type id.
func NewComponentType(namespace, name string) TypeID {
	return NewTypeID(KindComponent, namespace, name)
}

// NewEntityType creates an entity type id.
func NewEntityType(namespace, name string) TypeID {
	return NewTypeID(KindEntityType, namespace, name)
}

// NewRelationType creates a relation type id.
func NewRelationType(namespace, name string) TypeID {
	return NewTypeID(KindRelationType, namespace, name)
}

// NewFlowType creates a flow type id.
func NewFlowType(namespace, name string) TypeID {
	return NewTypeID(KindFlowType, namespace, name)
}

// NewExtensionType creates an extension type id.
func NewExtensionType(namespace, name string) TypeID {
	return NewTypeID(KindExtension, namespace, name)
}

// NewBehaviourType creates a behaviour type id.
func NewBehaviourType(namespace, name string) TypeID {
	return NewTypeID(KindBehaviourType, namespace, name)
}

// ParseTypeID parses "namespace::name" into a TypeID of the given kind.
// The namespace may itself contain separators; the last segment is the name.
func ParseTypeID(kind TypeKind, s string) (TypeID, error) {
	idx := strings.LastIndex(s, NamespaceSeparator)
	if idx < 0 {
		return TypeID{}, fmt.Errorf("invalid type id %q: missing %q separator", s, NamespaceSeparator)
	}
	namespace, name := s[:idx], s[idx+len(NamespaceSeparator):]
	if namespace == "" || name == "" {
		return TypeID{}, fmt.Errorf("invalid type id %q: namespace and name must be non-empty", s)
	}
	return NewTypeID(kind, namespace, name), nil
}

// MustParseTypeID is like ParseTypeID but panics on error. Intended for
// package-level declarations of well-known types.
func MustParseTypeID(kind TypeKind, s string) TypeID {
	ty, err := ParseTypeID(kind, s)
	if err != nil {
		panic(err)
	}
	return ty
}

// String returns "namespace::name".
func (t TypeID) String() string {
	return t.Namespace + NamespaceSeparator + t.Name
}

// Definition returns the kind-qualified form, e.g. "EntityType(arithmetic::add)".
func (t TypeID) Definition() string {
	return fmt.Sprintf("%s(%s)", t.Kind.FullName(), t.String())
}

// IsZero reports whether t is the zero TypeID.
func (t TypeID) IsZero() bool {
	return t == TypeID{}
}

// UUID derives a stable name-based UUID for the type id. Two type ids with
// the same namespace and name but different kinds get different UUIDs.
func (t TypeID) UUID() uuid.UUID {
	ns, ok := kindNamespaces[t.Kind]
	if !ok {
		ns = uuid.NameSpaceOID
	}
	return uuid.NewSHA1(ns, []byte(t.String()))
}

// Compare orders type ids by namespace, then name, then kind.
func Compare(a, b TypeID) int {
	if c := cmp.Compare(a.Namespace, b.Namespace); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.Kind, b.Kind)
}

// SortTypeIDs sorts type ids in place using Compare and returns the slice.
func SortTypeIDs(tys []TypeID) []TypeID {
	slices.SortFunc(tys, Compare)
	return tys
}
