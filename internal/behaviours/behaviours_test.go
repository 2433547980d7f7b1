package behaviours

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rgraph/internal/behaviour"
	"github.com/roach88/rgraph/internal/model"
	"github.com/roach88/rgraph/internal/reactive"
	"github.com/roach88/rgraph/internal/testutil"
)

type harness struct {
	entities   *behaviour.EntityManager
	components *behaviour.EntityComponentManager
	relations  *behaviour.RelationManager
}

func newHarness(t *testing.T, logger *slog.Logger) *harness {
	t.Helper()
	regs := Registries{
		Entities:         behaviour.NewRegistry[uuid.UUID](),
		EntityComponents: behaviour.NewRegistry[uuid.UUID](),
		Relations:        behaviour.NewRegistry[model.RelationInstanceID](),
	}
	Register(regs, logger)
	return &harness{
		entities:   behaviour.NewEntityManager(regs.Entities),
		components: behaviour.NewEntityComponentManager(regs.EntityComponents),
		relations:  behaviour.NewRelationManager(regs.Relations),
	}
}

func id(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

func (h *harness) gate(n int, ty model.TypeID, lhs, rhs any) *reactive.Entity {
	e := reactive.NewEntity(id(n), ty, map[string]any{
		PropertyLHS:    lhs,
		PropertyRHS:    rhs,
		PropertyResult: nil,
	})
	h.entities.AddBehaviours(e)
	return e
}

func (h *harness) value(n int, v any) *reactive.Entity {
	return reactive.NewEntity(id(n), model.NewEntityType("test", "value"), map[string]any{PropertyValue: v})
}

func (h *harness) connect(t *testing.T, ty model.TypeID, out *reactive.Entity, outProp string, in *reactive.Entity, inProp string) *reactive.Relation {
	t.Helper()
	r := reactive.NewRelation(out, ConnectorInstanceType(ty, outProp, inProp), in, map[string]any{
		PropertyOutboundName: outProp,
		PropertyInboundName:  inProp,
	})
	h.relations.AddBehaviours(r)
	return r
}

func TestCatalogDeclaresAllBuiltins(t *testing.T) {
	c, err := Catalog()
	require.NoError(t, err)

	for _, ty := range []model.TypeID{AddEntity, SubEntity, MulEntity, DivEntity, MaxEntity, MinEntity, CounterEntity} {
		_, ok := c.EntityType(ty)
		assert.True(t, ok, ty.String())
	}
	_, ok := c.RelationType(ConnectorRelation)
	assert.True(t, ok)

	props := c.PropertyTypes(AndEntity)
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.Name
	}
	assert.Equal(t, []string{PropertyLHS, PropertyRHS, PropertyResult}, names)

	p, ok := c.PropertyType(ConnectorRelation, PropertyOutboundName)
	require.True(t, ok)
	assert.Equal(t, model.Immutable, p.Mutability)
}

func TestAddGate(t *testing.T) {
	h := newHarness(t, nil)
	add := h.gate(1, AddEntity, 1.0, 1.0)
	require.True(t, add.BehavesAs(AddBehaviour))

	add.Set(PropertyLHS, 1.0)
	got, _ := add.AsF64(PropertyResult)
	assert.Equal(t, 2.0, got)

	add.Set(PropertyRHS, 2.0)
	got, _ = add.AsF64(PropertyResult)
	assert.Equal(t, 3.0, got)

	add.Set(PropertyLHS, 2.0)
	got, _ = add.AsF64(PropertyResult)
	assert.Equal(t, 4.0, got)

	h.entities.RemoveBehaviour(add, AddBehaviour)
	assert.False(t, add.BehavesAs(AddBehaviour))
	assert.Zero(t, add.ObserverCount(PropertyLHS))

	add.Set(PropertyLHS, 10.0)
	got, _ = add.AsF64(PropertyResult)
	assert.Equal(t, 4.0, got)
}

func TestArithmeticGates(t *testing.T) {
	tests := []struct {
		ty       model.TypeID
		lhs, rhs float64
		want     float64
	}{
		{SubEntity, 7, 2, 5},
		{MulEntity, 3, 4, 12},
		{DivEntity, 9, 3, 3},
		{MaxEntity, 2, 8, 8},
		{MinEntity, 2, 8, 2},
	}
	for i, tt := range tests {
		t.Run(tt.ty.Name, func(t *testing.T) {
			h := newHarness(t, nil)
			e := h.gate(i+1, tt.ty, 0.0, 0.0)
			e.Set(PropertyLHS, tt.lhs)
			e.Set(PropertyRHS, tt.rhs)
			got, ok := e.AsF64(PropertyResult)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDivByZeroKeepsResult(t *testing.T) {
	h := newHarness(t, nil)
	div := h.gate(1, DivEntity, 8.0, 2.0)
	div.Set(PropertyLHS, 8.0)
	got, _ := div.AsF64(PropertyResult)
	require.Equal(t, 4.0, got)

	div.Set(PropertyRHS, 0.0)
	got, _ = div.AsF64(PropertyResult)
	assert.Equal(t, 4.0, got)
}

func TestGateIgnoresNonNumericInput(t *testing.T) {
	h := newHarness(t, nil)
	add := h.gate(1, AddEntity, 1.0, 1.0)
	add.Set(PropertyLHS, 1.0)
	add.Set(PropertyRHS, "two")
	got, _ := add.AsF64(PropertyResult)
	assert.Equal(t, 2.0, got)
}

func TestGateRequiresProperties(t *testing.T) {
	h := newHarness(t, nil)
	e := reactive.NewEntity(id(1), AddEntity, map[string]any{PropertyLHS: 1.0})
	_, err := h.entities.Create(e, AddBehaviour)
	require.Error(t, err)
	assert.Equal(t, behaviour.KindBehaviourInvalid, behaviour.TransitionKind(err))
	assert.False(t, e.BehavesAs(AddBehaviour))
}

func TestAddGateAlreadyApplied(t *testing.T) {
	h := newHarness(t, nil)
	add := h.gate(1, AddEntity, 1.0, 1.0)
	_, err := h.entities.Create(add, AddBehaviour)
	assert.True(t, behaviour.IsAlreadyApplied(err))
	assert.Equal(t, 1, add.ObserverCount(PropertyLHS))
}

func TestAddGateConcurrentAdd(t *testing.T) {
	h := newHarness(t, nil)
	e := reactive.NewEntity(id(1), AddEntity, map[string]any{
		PropertyLHS:    1.0,
		PropertyRHS:    2.0,
		PropertyResult: nil,
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.entities.AddBehaviour(e, AddBehaviour)
		}()
	}
	wg.Wait()

	assert.True(t, h.entities.Has(e, AddBehaviour))
	assert.True(t, e.BehavesAs(AddBehaviour))
	assert.Equal(t, 1, e.ObserverCount(PropertyLHS))
	assert.Equal(t, 1, e.ObserverCount(PropertyRHS))

	e.Set(PropertyLHS, 5.0)
	got, _ := e.AsF64(PropertyResult)
	assert.Equal(t, 7.0, got)
}

func TestLogicalGates(t *testing.T) {
	c, err := Catalog()
	require.NoError(t, err)

	tests := []struct {
		component model.TypeID
		lhs, rhs  bool
		want      bool
	}{
		{AndComponent, true, true, true},
		{AndComponent, true, false, false},
		{OrComponent, false, true, true},
		{OrComponent, false, false, false},
		{XorComponent, true, true, false},
		{XorComponent, true, false, true},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("%s/%v/%v", tt.component.Name, tt.lhs, tt.rhs), func(t *testing.T) {
			h := newHarness(t, nil)
			comp, ok := c.Component(tt.component)
			require.True(t, ok)
			e := reactive.NewEntityBuilder(model.NewEntityType("test", "gate")).
				ID(id(i + 1)).
				Component(comp).
				Build()
			h.components.AddBehaviours(e)

			e.Set(PropertyLHS, tt.lhs)
			e.Set(PropertyRHS, tt.rhs)
			got, ok := e.AsBool(PropertyResult)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNotGate(t *testing.T) {
	c, err := Catalog()
	require.NoError(t, err)
	comp, _ := c.Component(NotComponent)

	h := newHarness(t, nil)
	e := reactive.NewEntityBuilder(NotEntity).ID(id(1)).Component(comp).Build()
	h.components.AddBehaviours(e)
	require.True(t, e.BehavesAs(NotBehaviour))

	e.Set(PropertyLHS, true)
	got, _ := e.AsBool(PropertyResult)
	assert.False(t, got)

	e.Set(PropertyLHS, false)
	got, _ = e.AsBool(PropertyResult)
	assert.True(t, got)
}

func TestCounter(t *testing.T) {
	h := newHarness(t, nil)
	e := reactive.NewEntity(id(1), CounterEntity, map[string]any{
		PropertyTrigger: false,
		PropertyResult:  nil,
	})
	h.entities.AddBehaviours(e)
	require.True(t, e.BehavesAs(CounterBehaviour))

	got, _ := e.AsF64(PropertyResult)
	require.Equal(t, 0.0, got)
	results := testutil.Record(e, PropertyResult)

	e.Set(PropertyTrigger, true)
	e.Set(PropertyTrigger, false)
	e.Set(PropertyTrigger, true)
	e.Tick()

	got, _ = e.AsF64(PropertyResult)
	assert.Equal(t, 3.0, got)
	// Tick re-sends result before trigger.
	assert.Equal(t, []any{1.0, 2.0, 2.0, 3.0}, results.All())
}

func TestConnectorChain(t *testing.T) {
	h := newHarness(t, nil)
	a := h.value(1, 0.0)
	b := h.value(2, 0.0)
	c := h.value(3, 0.0)

	ab := h.connect(t, DefaultConnectorRelation, a, PropertyValue, b, PropertyValue)
	h.connect(t, DefaultConnectorRelation, b, PropertyValue, c, PropertyValue)
	require.True(t, ab.BehavesAs(DefaultConnectorBehaviour))

	got, _ := c.AsF64(PropertyValue)
	assert.Equal(t, 0.0, got)

	a.Set(PropertyValue, 42.0)
	got, _ = b.AsF64(PropertyValue)
	assert.Equal(t, 42.0, got)
	got, _ = c.AsF64(PropertyValue)
	assert.Equal(t, 42.0, got)

	h.relations.RemoveBehaviours(ab)
	assert.Zero(t, a.ObserverCount(PropertyValue))

	a.Set(PropertyValue, 7.0)
	got, _ = c.AsF64(PropertyValue)
	assert.Equal(t, 42.0, got)
}

func TestIncrementConnector(t *testing.T) {
	h := newHarness(t, nil)
	a := h.value(1, 0.0)
	b := h.value(2, 0.0)
	h.connect(t, IncrementConnectorRelation, a, PropertyValue, b, PropertyValue)

	a.Set(PropertyValue, 1.0)
	got, _ := b.AsF64(PropertyValue)
	assert.Equal(t, 2.0, got)

	a.Set(PropertyValue, "text")
	s, _ := b.AsString(PropertyValue)
	assert.Equal(t, "text", s)
}

func TestConnectorIntoGate(t *testing.T) {
	h := newHarness(t, nil)
	src := h.value(1, 0.0)
	add := h.gate(2, AddEntity, 0.0, 5.0)
	h.connect(t, ConnectorRelation, src, PropertyValue, add, PropertyLHS)

	src.Set(PropertyValue, 3.0)
	got, _ := add.AsF64(PropertyResult)
	assert.Equal(t, 8.0, got)
}

func TestConnectorRejectsMissingProperty(t *testing.T) {
	h := newHarness(t, nil)
	a := h.value(1, 0.0)
	b := h.value(2, 0.0)
	r := reactive.NewRelation(a, ConnectorInstanceType(ConnectorRelation, "missing", PropertyValue), b, map[string]any{
		PropertyOutboundName: "missing",
		PropertyInboundName:  PropertyValue,
	})
	_, err := h.relations.Create(r, ConnectorBehaviour)
	require.Error(t, err)
	assert.Equal(t, behaviour.KindBehaviourInvalid, behaviour.TransitionKind(err))
}

func TestConnectorReconnectFollowsRenamedProperty(t *testing.T) {
	h := newHarness(t, nil)
	a := reactive.NewEntity(id(1), model.NewEntityType("test", "pair"), map[string]any{"x": 0.0, "y": 0.0})
	b := h.value(2, 0.0)
	r := h.connect(t, ConnectorRelation, a, "x", b, PropertyValue)

	require.NoError(t, h.relations.Disconnect(r, ConnectorBehaviour))
	r.Set(PropertyOutboundName, "y")
	require.NoError(t, h.relations.Connect(r, ConnectorBehaviour))

	a.Set("x", 1.0)
	got, _ := b.AsF64(PropertyValue)
	assert.Equal(t, 0.0, got)

	a.Set("y", 2.0)
	got, _ = b.AsF64(PropertyValue)
	assert.Equal(t, 2.0, got)
}

func TestValueDebuggerLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := newHarness(t, logger)

	c, err := Catalog()
	require.NoError(t, err)
	comp, _ := c.Component(ValueDebuggerComponent)
	e := reactive.NewEntityBuilder(model.NewEntityType("test", "debugged")).ID(id(1)).Component(comp).Build()
	h.components.AddBehaviours(e)
	require.True(t, e.BehavesAs(ValueDebuggerBehaviour))

	e.Set(PropertyValue, "hello")
	assert.Contains(t, buf.String(), "value changed")
	assert.Contains(t, buf.String(), "value=hello")
}
