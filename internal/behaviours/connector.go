package behaviours

import (
	"fmt"

	"github.com/roach88/rgraph/internal/behaviour"
	"github.com/roach88/rgraph/internal/model"
	"github.com/roach88/rgraph/internal/reactive"
)

// ConnectorFunc transforms a value on its way from the outbound property
// to the inbound property.
type ConnectorFunc func(v any) any

// Identity passes values through unchanged.
func Identity(v any) any { return v }

// Increment adds one to numbers and passes other values through.
func Increment(v any) any {
	if f, ok := model.AsFloat64(v); ok {
		return f + 1
	}
	return v
}

// NewConnectorFactory creates a relation behaviour that forwards every value
// of the outbound entity's property to the inbound entity's property.
//
// The property names are read from the relation's outbound_property_name
// and inbound_property_name on every connect, so Reconnect picks up changes.
func NewConnectorFactory(ty model.TypeID, f ConnectorFunc) *behaviour.FuncFactory[model.RelationInstanceID] {
	return behaviour.NewFactory(ty, func(inst reactive.Instance[model.RelationInstanceID]) (behaviour.Validator[model.RelationInstanceID], behaviour.Transitions[model.RelationInstanceID], error) {
		rel, ok := inst.(*reactive.Relation)
		if !ok {
			return nil, nil, fmt.Errorf("connector needs a relation, got %T", inst)
		}
		obs := reactive.NewPropertyObservers(ty.UUID(), rel.ID().String())
		return connectorValidator(rel), behaviour.ObserverTransitions[model.RelationInstanceID]{
			Observers: obs,
			Wire: func(reactive.Instance[model.RelationInstanceID], *reactive.PropertyObservers) error {
				outName, _ := rel.AsString(PropertyOutboundName)
				inName, _ := rel.AsString(PropertyInboundName)
				inbound := rel.Inbound
				if !obs.Observe(rel.Outbound, outName, func(v any) {
					inbound.Set(inName, f(v))
				}) {
					return fmt.Errorf("outbound property %q not found", outName)
				}
				return nil
			},
		}, nil
	})
}

func connectorValidator(rel *reactive.Relation) behaviour.Validator[model.RelationInstanceID] {
	return behaviour.ValidatorFunc[model.RelationInstanceID](func(reactive.Instance[model.RelationInstanceID]) error {
		outName, ok := rel.AsString(PropertyOutboundName)
		if !ok {
			return fmt.Errorf("relation has no %s", PropertyOutboundName)
		}
		inName, ok := rel.AsString(PropertyInboundName)
		if !ok {
			return fmt.Errorf("relation has no %s", PropertyInboundName)
		}
		if rel.Outbound == nil || !rel.Outbound.HasProperty(outName) {
			return fmt.Errorf("outbound entity has no property %q", outName)
		}
		if rel.Inbound == nil || !rel.Inbound.HasProperty(inName) {
			return fmt.Errorf("inbound entity has no property %q", inName)
		}
		return nil
	})
}

// ConnectorInstanceType returns the relation instance type used for a
// connector between two named properties, so several connectors can link
// the same pair of entities.
func ConnectorInstanceType(ty model.TypeID, outboundProperty, inboundProperty string) model.RelationInstanceTypeID {
	return model.NewRelationInstanceType(ty, outboundProperty+"__"+inboundProperty)
}
