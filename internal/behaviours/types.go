package behaviours

import (
	"errors"

	"github.com/roach88/rgraph/internal/model"
)

// Property names shared by the built-in kinds.
const (
	PropertyLHS     = "lhs"
	PropertyRHS     = "rhs"
	PropertyResult  = "result"
	PropertyTrigger = "trigger"
	PropertyValue   = "value"

	PropertyOutboundName = "outbound_property_name"
	PropertyInboundName  = "inbound_property_name"
)

// Relation and behaviour types of the connectors.
var (
	ConnectorRelation          = model.NewRelationType("core", "connector")
	DefaultConnectorRelation   = model.NewRelationType("core", "default_connector")
	IncrementConnectorRelation = model.NewRelationType("core", "increment_connector")

	ConnectorBehaviour          = model.NewBehaviourType("core", "connector")
	DefaultConnectorBehaviour   = model.NewBehaviourType("core", "default_connector")
	IncrementConnectorBehaviour = model.NewBehaviourType("core", "increment_connector")
)

// Entity and behaviour types of the arithmetic gates.
var (
	AddEntity = model.NewEntityType("arithmetic", "add")
	SubEntity = model.NewEntityType("arithmetic", "sub")
	MulEntity = model.NewEntityType("arithmetic", "mul")
	DivEntity = model.NewEntityType("arithmetic", "div")
	MaxEntity = model.NewEntityType("arithmetic", "max")
	MinEntity = model.NewEntityType("arithmetic", "min")

	AddBehaviour = model.NewBehaviourType("arithmetic", "add")
	SubBehaviour = model.NewBehaviourType("arithmetic", "sub")
	MulBehaviour = model.NewBehaviourType("arithmetic", "mul")
	DivBehaviour = model.NewBehaviourType("arithmetic", "div")
	MaxBehaviour = model.NewBehaviourType("arithmetic", "max")
	MinBehaviour = model.NewBehaviourType("arithmetic", "min")
)

// Logical gates are attached through components, so any entity type that
// includes e.g. logical::and behaves as an AND gate.
var (
	AndComponent = model.NewComponentType("logical", "and")
	OrComponent  = model.NewComponentType("logical", "or")
	XorComponent = model.NewComponentType("logical", "xor")
	NotComponent = model.NewComponentType("logical", "not")

	AndEntity = model.NewEntityType("logical", "and")
	OrEntity  = model.NewEntityType("logical", "or")
	XorEntity = model.NewEntityType("logical", "xor")
	NotEntity = model.NewEntityType("logical", "not")

	AndBehaviour = model.NewBehaviourType("logical", "and")
	OrBehaviour  = model.NewBehaviourType("logical", "or")
	XorBehaviour = model.NewBehaviourType("logical", "xor")
	NotBehaviour = model.NewBehaviourType("logical", "not")
)

var (
	CounterEntity    = model.NewEntityType("core", "counter")
	CounterBehaviour = model.NewBehaviourType("core", "counter")

	ValueDebuggerComponent = model.NewComponentType("core", "value_debugger")
	ValueDebuggerBehaviour = model.NewBehaviourType("core", "value_debugger")
)

// Catalog declares every type the built-in behaviours attach to.
func Catalog() (*model.Catalog, error) {
	c := model.NewCatalog()

	lhsNum := model.NewPropertyType(PropertyLHS, model.DataTypeNumber).Input()
	rhsNum := model.NewPropertyType(PropertyRHS, model.DataTypeNumber).Input()
	resultNum := model.NewPropertyType(PropertyResult, model.DataTypeNumber).Output()
	lhsBool := model.NewPropertyType(PropertyLHS, model.DataTypeBool).Input()
	rhsBool := model.NewPropertyType(PropertyRHS, model.DataTypeBool).Input()
	resultBool := model.NewPropertyType(PropertyResult, model.DataTypeBool).Output()

	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	for _, ty := range []model.TypeID{ConnectorRelation, DefaultConnectorRelation, IncrementConnectorRelation} {
		add(c.AddRelationType(model.RelationType{
			Type: ty,
			Properties: []model.PropertyType{
				model.NewPropertyType(PropertyOutboundName, model.DataTypeString).Immutable(),
				model.NewPropertyType(PropertyInboundName, model.DataTypeString).Immutable(),
			},
		}))
	}

	for _, ty := range []model.TypeID{AddEntity, SubEntity, MulEntity, DivEntity, MaxEntity, MinEntity} {
		add(c.AddEntityType(model.EntityType{
			Type:       ty,
			Properties: []model.PropertyType{lhsNum, rhsNum, resultNum},
		}))
	}

	binary := map[model.TypeID]model.TypeID{AndComponent: AndEntity, OrComponent: OrEntity, XorComponent: XorEntity}
	for _, comp := range []model.TypeID{AndComponent, OrComponent, XorComponent} {
		add(c.AddComponent(model.Component{
			Type:       comp,
			Properties: []model.PropertyType{lhsBool, rhsBool, resultBool},
		}))
		add(c.AddEntityType(model.EntityType{Type: binary[comp], Components: []model.TypeID{comp}}))
	}
	add(c.AddComponent(model.Component{
		Type:       NotComponent,
		Properties: []model.PropertyType{lhsBool, resultBool},
	}))
	add(c.AddEntityType(model.EntityType{Type: NotEntity, Components: []model.TypeID{NotComponent}}))

	add(c.AddEntityType(model.EntityType{
		Type: CounterEntity,
		Properties: []model.PropertyType{
			model.NewPropertyType(PropertyTrigger, model.DataTypeBool).Input(),
			resultNum,
		},
	}))

	add(c.AddComponent(model.Component{
		Type:       ValueDebuggerComponent,
		Properties: []model.PropertyType{model.NewPropertyType(PropertyValue, model.DataTypeAny).Input()},
	}))

	return c, errors.Join(errs...)
}
