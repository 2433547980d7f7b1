package reactive

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/roach88/rgraph/internal/model"
)

// Entity is a graph node with observable properties.
type Entity struct {
	base[uuid.UUID]

	Name        string
	Description string
}

var _ Instance[uuid.UUID] = (*Entity)(nil)

// NewEntity creates an entity with mutable properties initialised from props.
func NewEntity(id uuid.UUID, ty model.TypeID, props map[string]any) *Entity {
	e := &Entity{}
	e.init(id, ty)
	for _, name := range model.SortedKeys(props) {
		e.props.Add(name, model.Mutable, props[name])
	}
	return e
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s(%s)", e.ty, e.id)
}

// EntityBuilder assembles an entity step by step.
type EntityBuilder struct {
	id          uuid.UUID
	ty          model.TypeID
	name        string
	description string
	props       []builderProperty
	components  []model.Component
}

type builderProperty struct {
	name       string
	value      any
	mutability model.Mutability
}

// NewEntityBuilder starts a builder for the given entity type. The id
// defaults to a fresh UUIDv7.
func NewEntityBuilder(ty model.TypeID) *EntityBuilder {
	return &EntityBuilder{ty: ty}
}

func (b *EntityBuilder) ID(id uuid.UUID) *EntityBuilder {
	b.id = id
	return b
}

func (b *EntityBuilder) Name(name string) *EntityBuilder {
	b.name = name
	return b
}

func (b *EntityBuilder) Description(description string) *EntityBuilder {
	b.description = description
	return b
}

// Property adds a mutable property.
func (b *EntityBuilder) Property(name string, value any) *EntityBuilder {
	return b.PropertyWithMutability(name, value, model.Mutable)
}

func (b *EntityBuilder) PropertyWithMutability(name string, value any, m model.Mutability) *EntityBuilder {
	b.props = append(b.props, builderProperty{name: name, value: value, mutability: m})
	return b
}

// Component adds a component. Its declared properties are created with
// default values unless set explicitly.
func (b *EntityBuilder) Component(c model.Component) *EntityBuilder {
	b.components = append(b.components, c)
	return b
}

func (b *EntityBuilder) Build() *Entity {
	id := b.id
	if id == uuid.Nil {
		id = UUIDv7Generator{}.Generate()
	}
	e := &Entity{Name: b.name, Description: b.description}
	e.init(id, b.ty)
	for _, p := range b.props {
		e.props.Add(p.name, p.mutability, p.value)
	}
	for _, c := range b.components {
		e.AddComponentWithProperties(c)
	}
	return e
}
