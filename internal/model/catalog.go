package model

import (
	"fmt"
	"slices"
	"sync"
)

// Component is a reusable bundle of property declarations.
type Component struct {
	Type       TypeID
	Properties []PropertyType
}

// EntityType declares the components and own properties of an entity.
type EntityType struct {
	Type       TypeID
	Components []TypeID
	Properties []PropertyType
}

// RelationType declares a relation between two entity types. A zero
// OutboundType or InboundType accepts any entity type.
type RelationType struct {
	Type         TypeID
	OutboundType TypeID
	InboundType  TypeID
	Components   []TypeID
	Properties   []PropertyType
}

// Catalog holds the type declarations consumed by the reactive core.
//
// Thread-safety: all methods are safe for concurrent use.
type Catalog struct {
	mu            sync.RWMutex
	components    map[TypeID]Component
	entityTypes   map[TypeID]EntityType
	relationTypes map[TypeID]RelationType
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		components:    make(map[TypeID]Component),
		entityTypes:   make(map[TypeID]EntityType),
		relationTypes: make(map[TypeID]RelationType),
	}
}

// AddComponent registers or replaces a component.
func (c *Catalog) AddComponent(comp Component) error {
	if comp.Type.Kind != KindComponent {
		return fmt.Errorf("add component: %s is not a component type", comp.Type.Definition())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.components[comp.Type] = comp
	return nil
}

// AddEntityType registers or replaces an entity type.
func (c *Catalog) AddEntityType(et EntityType) error {
	if et.Type.Kind != KindEntityType {
		return fmt.Errorf("add entity type: %s is not an entity type", et.Type.Definition())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entityTypes[et.Type] = et
	return nil
}

// AddRelationType registers or replaces a relation type.
func (c *Catalog) AddRelationType(rt RelationType) error {
	if rt.Type.Kind != KindRelationType {
		return fmt.Errorf("add relation type: %s is not a relation type", rt.Type.Definition())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.relationTypes[rt.Type] = rt
	return nil
}

// Component looks up a component.
func (c *Catalog) Component(ty TypeID) (Component, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	comp, ok := c.components[ty]
	return comp, ok
}

// EntityType looks up an entity type.
func (c *Catalog) EntityType(ty TypeID) (EntityType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	et, ok := c.entityTypes[ty]
	return et, ok
}

// RelationType looks up a relation type.
func (c *Catalog) RelationType(ty TypeID) (RelationType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rt, ok := c.relationTypes[ty]
	return rt, ok
}

// ComponentsOf returns the components declared by an entity or relation type.
func (c *Catalog) ComponentsOf(ty TypeID) []TypeID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch ty.Kind {
	case KindEntityType:
		return slices.Clone(c.entityTypes[ty].Components)
	case KindRelationType:
		return slices.Clone(c.relationTypes[ty].Components)
	}
	return nil
}

// PropertyTypes returns the merged property declarations of an entity or
// relation type: component properties first, in component order, then the
// type's own properties. A later declaration with the same name wins.
func (c *Catalog) PropertyTypes(ty TypeID) []PropertyType {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var components []TypeID
	var own []PropertyType
	switch ty.Kind {
	case KindEntityType:
		et := c.entityTypes[ty]
		components, own = et.Components, et.Properties
	case KindRelationType:
		rt := c.relationTypes[ty]
		components, own = rt.Components, rt.Properties
	case KindComponent:
		return slices.Clone(c.components[ty].Properties)
	default:
		return nil
	}

	var merged []PropertyType
	index := make(map[string]int)
	add := func(p PropertyType) {
		if i, ok := index[p.Name]; ok {
			merged[i] = p
			return
		}
		index[p.Name] = len(merged)
		merged = append(merged, p)
	}
	for _, compTy := range components {
		for _, p := range c.components[compTy].Properties {
			add(p)
		}
	}
	for _, p := range own {
		add(p)
	}
	return merged
}

// PropertyType looks up a single property declaration of a type.
func (c *Catalog) PropertyType(ty TypeID, name string) (PropertyType, bool) {
	for _, p := range c.PropertyTypes(ty) {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyType{}, false
}

// EntityTypes returns all entity type ids in sorted order.
func (c *Catalog) EntityTypes() []TypeID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tys := make([]TypeID, 0, len(c.entityTypes))
	for ty := range c.entityTypes {
		tys = append(tys, ty)
	}
	return SortTypeIDs(tys)
}

// RelationTypes returns all relation type ids in sorted order.
func (c *Catalog) RelationTypes() []TypeID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tys := make([]TypeID, 0, len(c.relationTypes))
	for ty := range c.relationTypes {
		tys = append(tys, ty)
	}
	return SortTypeIDs(tys)
}
