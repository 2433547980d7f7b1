package reactive

import (
	"github.com/roach88/rgraph/internal/model"
)

// Relation is a graph edge with observable properties. It keeps plain
// references to both endpoints.
type Relation struct {
	base[model.RelationInstanceID]

	Outbound *Entity
	Inbound  *Entity
}

var _ Instance[model.RelationInstanceID] = (*Relation)(nil)

// NewRelation creates a relation between two entities with mutable
// properties initialised from props.
func NewRelation(outbound *Entity, ty model.RelationInstanceTypeID, inbound *Entity, props map[string]any) *Relation {
	r := &Relation{Outbound: outbound, Inbound: inbound}
	r.init(model.NewRelationInstanceID(outbound.ID(), ty, inbound.ID()), ty.Type)
	for _, name := range model.SortedKeys(props) {
		r.props.Add(name, model.Mutable, props[name])
	}
	return r
}

// InstanceType returns the relation type including its discriminator.
func (r *Relation) InstanceType() model.RelationInstanceTypeID {
	return r.id.Type
}

func (r *Relation) String() string {
	return r.id.String()
}
