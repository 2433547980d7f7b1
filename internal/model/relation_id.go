package model

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RelationInstanceTypeID is a relation type plus an instance discriminator.
//
// An empty InstanceID means at most one relation of that type may exist
// between two entities. A non-empty discriminator allows several (for
// example one connector per property pair).
type RelationInstanceTypeID struct {
	Type       TypeID
	InstanceID string
}

// NewUniqueRelationInstanceType creates a relation instance type without discriminator.
func NewUniqueRelationInstanceType(ty TypeID) RelationInstanceTypeID {
	return RelationInstanceTypeID{Type: ty}
}

// NewRelationInstanceType creates a relation instance type with the given discriminator.
func NewRelationInstanceType(ty TypeID, instanceID string) RelationInstanceTypeID {
	return RelationInstanceTypeID{Type: ty, InstanceID: instanceID}
}

// NewRandomRelationInstanceType creates a relation instance type with a random discriminator.
func NewRandomRelationInstanceType(ty TypeID) RelationInstanceTypeID {
	return RelationInstanceTypeID{Type: ty, InstanceID: uuid.NewString()}
}

func (t RelationInstanceTypeID) String() string {
	if t.InstanceID == "" {
		return t.Type.String()
	}
	return t.Type.String() + "__" + t.InstanceID
}

// RelationInstanceID identifies a relation instance by its endpoints and type.
type RelationInstanceID struct {
	OutboundID uuid.UUID
	Type       RelationInstanceTypeID
	InboundID  uuid.UUID
}

// NewRelationInstanceID creates a relation instance id.
func NewRelationInstanceID(outbound uuid.UUID, ty RelationInstanceTypeID, inbound uuid.UUID) RelationInstanceID {
	return RelationInstanceID{OutboundID: outbound, Type: ty, InboundID: inbound}
}

// String returns "outbound--type--inbound".
func (id RelationInstanceID) String() string {
	return fmt.Sprintf("%s--%s--%s", id.OutboundID, id.Type, id.InboundID)
}

// Touches reports whether the relation starts or ends at the given entity.
func (id RelationInstanceID) Touches(entityID uuid.UUID) bool {
	return id.OutboundID == entityID || id.InboundID == entityID
}

// CompareRelationIDs orders relation ids by type, then outbound id, then
// inbound id. The instance discriminator breaks remaining ties.
func CompareRelationIDs(a, b RelationInstanceID) int {
	if c := Compare(a.Type.Type, b.Type.Type); c != 0 {
		return c
	}
	if c := bytes.Compare(a.OutboundID[:], b.OutboundID[:]); c != 0 {
		return c
	}
	if c := bytes.Compare(a.InboundID[:], b.InboundID[:]); c != 0 {
		return c
	}
	return cmp.Compare(a.Type.InstanceID, b.Type.InstanceID)
}

// CompareEntityIDs orders entity ids by their byte representation.
func CompareEntityIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

// ParseRelationInstanceID parses the String form of a relation instance id.
// The discriminator may itself contain "--", so the endpoints are taken from
// the fixed-width ends of the string.
func ParseRelationInstanceID(s string) (RelationInstanceID, error) {
	const idLen = 36
	const sep = "--"
	if len(s) < 2*idLen+2*len(sep)+1 ||
		s[idLen:idLen+len(sep)] != sep ||
		s[len(s)-idLen-len(sep):len(s)-idLen] != sep {
		return RelationInstanceID{}, fmt.Errorf("invalid relation instance id %q", s)
	}
	outbound, err := uuid.Parse(s[:idLen])
	if err != nil {
		return RelationInstanceID{}, fmt.Errorf("invalid outbound id: %w", err)
	}
	inbound, err := uuid.Parse(s[len(s)-idLen:])
	if err != nil {
		return RelationInstanceID{}, fmt.Errorf("invalid inbound id: %w", err)
	}
	middle := s[idLen+len(sep) : len(s)-idLen-len(sep)]
	tyPart, instanceID, _ := strings.Cut(middle, "__")
	ty, err := ParseTypeID(KindRelationType, tyPart)
	if err != nil {
		return RelationInstanceID{}, err
	}
	return NewRelationInstanceID(outbound, NewRelationInstanceType(ty, instanceID), inbound), nil
}
