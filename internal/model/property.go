package model

import (
	"fmt"
	"strings"
)

// Mutability declares whether external writers may change a property.
type Mutability int

const (
	Mutable Mutability = iota
	Immutable
)

func (m Mutability) String() string {
	if m == Immutable {
		return "immutable"
	}
	return "mutable"
}

// ParseMutability accepts "mutable" or "immutable" (case-insensitive). The
// empty string is Mutable.
func ParseMutability(s string) (Mutability, error) {
	switch strings.ToLower(s) {
	case "", "mutable":
		return Mutable, nil
	case "immutable":
		return Immutable, nil
	default:
		return Mutable, fmt.Errorf("unknown mutability %q", s)
	}
}

// DataType is the declared JSON shape of a property value.
type DataType string

const (
	DataTypeNull   DataType = "null"
	DataTypeBool   DataType = "bool"
	DataTypeNumber DataType = "number"
	DataTypeString DataType = "string"
	DataTypeArray  DataType = "array"
	DataTypeObject DataType = "object"
	DataTypeAny    DataType = "any"
)

// SocketType marks a property as an input or output of a behaviour.
type SocketType string

const (
	SocketNone   SocketType = "none"
	SocketInput  SocketType = "input"
	SocketOutput SocketType = "output"
)

// PropertyType is a property declaration owned by the type system.
// The reactive core only consults Name and Mutability.
type PropertyType struct {
	Name       string
	DataType   DataType
	SocketType SocketType
	Mutability Mutability
	Extensions map[string]any
}

// NewPropertyType creates a mutable property declaration without a socket.
func NewPropertyType(name string, dataType DataType) PropertyType {
	return PropertyType{
		Name:       name,
		DataType:   dataType,
		SocketType: SocketNone,
		Mutability: Mutable,
	}
}

// Input returns a copy of p declared as an input socket.
func (p PropertyType) Input() PropertyType {
	p.SocketType = SocketInput
	return p
}

// Output returns a copy of p declared as an output socket.
func (p PropertyType) Output() PropertyType {
	p.SocketType = SocketOutput
	return p
}

// Immutable returns a copy of p declared immutable.
func (p PropertyType) Immutable() PropertyType {
	p.Mutability = Immutable
	return p
}

// DefaultValue returns the zero value for the declared data type.
func (p PropertyType) DefaultValue() any {
	switch p.DataType {
	case DataTypeBool:
		return false
	case DataTypeNumber:
		return float64(0)
	case DataTypeString:
		return ""
	case DataTypeArray:
		return []any{}
	case DataTypeObject:
		return map[string]any{}
	default:
		return nil
	}
}
