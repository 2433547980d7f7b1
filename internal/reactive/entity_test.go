package reactive

import (
	"testing"

	"github.com/google/uuid"
	"github.com/roach88/rgraph/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityBuilder(t *testing.T) {
	gate := model.Component{
		Type: model.NewComponentType("logical", "gate"),
		Properties: []model.PropertyType{
			model.NewPropertyType("lhs", model.DataTypeBool),
			model.NewPropertyType("result", model.DataTypeBool),
		},
	}
	id := uuid.MustParse("00000000-0000-0000-0000-0000000000aa")

	e := NewEntityBuilder(model.NewEntityType("logical", "and")).
		ID(id).
		Name("and-1").
		Description("test gate").
		Property("lhs", true).
		Component(gate).
		Build()

	assert.Equal(t, id, e.ID())
	assert.Equal(t, "and-1", e.Name)
	assert.Equal(t, "test gate", e.Description)
	v, _ := e.AsBool("lhs")
	assert.True(t, v, "explicit value is kept over component default")
	r, ok := e.AsBool("result")
	require.True(t, ok)
	assert.False(t, r)
	assert.True(t, e.IsA(gate.Type))
	assert.True(t, e.IsAll(gate.Type))
	assert.Equal(t, "logical::and(00000000-0000-0000-0000-0000000000aa)", e.String())
}

func TestEntityBuilder_GeneratesID(t *testing.T) {
	e := NewEntityBuilder(testEntityType).Build()
	assert.NotEqual(t, uuid.Nil, e.ID())
	assert.Equal(t, uuid.Version(7), e.ID().Version())
}

func TestInstance_Components(t *testing.T) {
	e := newTestEntity(nil)
	a, b := model.NewComponentType("x", "a"), model.NewComponentType("x", "b")
	e.AddComponent(a)
	e.AddComponent(b)
	e.AddComponent(a)
	assert.Equal(t, []model.TypeID{a, b}, e.Components())

	e.RemoveComponent(a)
	assert.False(t, e.IsA(a))
	assert.False(t, e.IsAll(a, b))
	assert.True(t, e.IsA(b))
}

func TestInstance_BehaviourIndex(t *testing.T) {
	e := newTestEntity(nil)
	add := model.NewBehaviourType("arithmetic", "add")
	sub := model.NewBehaviourType("arithmetic", "sub")

	e.AddBehaviour(sub)
	e.AddBehaviour(add)
	assert.True(t, e.BehavesAs(add))
	assert.True(t, e.BehavesAsAll(add, sub))
	assert.Equal(t, []model.TypeID{add, sub}, e.Behaviours())

	e.RemoveBehaviour(add)
	assert.False(t, e.BehavesAs(add))
	assert.False(t, e.BehavesAsAll(add, sub))
}

func TestRelation(t *testing.T) {
	out := newTestEntity(map[string]any{"value": 1.0})
	in := NewEntity(uuid.MustParse("00000000-0000-0000-0000-000000000002"), testEntityType, map[string]any{"value": 0.0})
	ty := model.NewRelationInstanceType(model.NewRelationType("core", "connector"), "value__value")

	r := NewRelation(out, ty, in, map[string]any{"outbound_property_name": "value"})
	assert.Equal(t, out.ID(), r.ID().OutboundID)
	assert.Equal(t, in.ID(), r.ID().InboundID)
	assert.Equal(t, ty.Type, r.Type())
	assert.Equal(t, ty, r.InstanceType())
	s, ok := r.AsString("outbound_property_name")
	require.True(t, ok)
	assert.Equal(t, "value", s)
}

func TestPropertyObservers(t *testing.T) {
	out := newTestEntity(map[string]any{"a": 1.0, "b": 2.0})
	scope := model.NewBehaviourType("core", "scope").UUID()
	obs := NewPropertyObservers(scope, "owner-1")
	other := NewPropertyObservers(scope, "owner-2")

	var calls int
	require.True(t, obs.Observe(out, "a", func(any) { calls++ }))
	require.True(t, obs.Observe(out, "a", func(any) { calls += 10 }), "re-observing replaces")
	require.True(t, obs.Observe(out, "b", func(any) {}))
	require.True(t, other.Observe(out, "a", func(any) {}))
	assert.False(t, obs.Observe(out, "missing", func(any) {}))

	assert.Equal(t, 2, obs.Count())
	assert.Equal(t, 2, out.ObserverCount("a"))

	out.Set("a", 3.0)
	assert.Equal(t, 10, calls)

	obs.RemoveAll()
	assert.Equal(t, 0, obs.Count())
	assert.Equal(t, 1, out.ObserverCount("a"), "other owner's observer survives")
	assert.Equal(t, 0, out.ObserverCount("b"))
}

func TestFixedGenerator(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	g := NewFixedGenerator(a, b)
	assert.Equal(t, a, g.Generate())
	assert.Equal(t, b, g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestNameGenerator(t *testing.T) {
	g := NameGenerator{Namespace: uuid.NameSpaceURL}
	assert.Equal(t, g.For("x"), g.For("x"))
	assert.NotEqual(t, g.For("x"), g.For("y"))
}

var _ Observable = (*Relation)(nil)
