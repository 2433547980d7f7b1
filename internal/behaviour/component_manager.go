package behaviour

import (
	"github.com/google/uuid"
	"github.com/roach88/rgraph/internal/model"
	"github.com/roach88/rgraph/internal/reactive"
)

// ComponentManager attaches behaviours registered per component type.
//
// Its registry is keyed by component types. An instance gets the behaviours
// of every component it has. The remove, connect and query surface is the
// same as Manager's.
type ComponentManager[ID comparable, I reactive.Instance[ID]] struct {
	*Manager[ID, I]
}

// EntityComponentManager manages component behaviours of entities.
type EntityComponentManager = ComponentManager[uuid.UUID, *reactive.Entity]

// RelationComponentManager manages component behaviours of relations.
type RelationComponentManager = ComponentManager[model.RelationInstanceID, *reactive.Relation]

// NewComponentManager creates a component manager over a component-keyed
// registry and a storage.
func NewComponentManager[ID comparable, I reactive.Instance[ID]](registry *Registry[ID], storage *Storage[ID], opts ...Option) *ComponentManager[ID, I] {
	return &ComponentManager[ID, I]{Manager: NewManager[ID, I](registry, storage, opts...)}
}

// NewEntityComponentManager creates an EntityComponentManager with its own storage.
func NewEntityComponentManager(registry *Registry[uuid.UUID], opts ...Option) *EntityComponentManager {
	storage := NewStorage(WithIDOrder(model.CompareEntityIDs))
	return NewComponentManager[uuid.UUID, *reactive.Entity](registry, storage, append([]Option{WithKind("entity component")}, opts...)...)
}

// NewRelationComponentManager creates a RelationComponentManager with its own storage.
func NewRelationComponentManager(registry *Registry[model.RelationInstanceID], opts ...Option) *RelationComponentManager {
	storage := NewStorage(WithIDOrder(model.CompareRelationIDs))
	return NewComponentManager[model.RelationInstanceID, *reactive.Relation](registry, storage, append([]Option{WithKind("relation component")}, opts...)...)
}

// AddBehaviours attaches the behaviours of every component of the instance.
func (m *ComponentManager[ID, I]) AddBehaviours(inst I) {
	for _, componentTy := range inst.Components() {
		m.AddBehavioursToComponent(inst, componentTy)
	}
}

// AddBehavioursToComponent attaches the behaviours registered for one
// component. The instance does not need to have the component yet.
func (m *ComponentManager[ID, I]) AddBehavioursToComponent(inst I, componentTy model.TypeID) {
	for _, f := range m.registry.Get(componentTy) {
		m.add(inst, f)
	}
}

// RemoveBehavioursFromComponent removes the behaviours registered for one
// component from the instance.
func (m *ComponentManager[ID, I]) RemoveBehavioursFromComponent(inst I, componentTy model.TypeID) {
	for _, f := range m.registry.Get(componentTy) {
		m.RemoveBehaviour(inst, f.BehaviourType())
	}
}
