package reactive

import (
	"testing"

	"github.com/google/uuid"
	"github.com/roach88/rgraph/internal/model"
	"github.com/roach88/rgraph/internal/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEntityType = model.NewEntityType("test", "thing")

func newTestEntity(props map[string]any) *Entity {
	return NewEntity(uuid.MustParse("00000000-0000-0000-0000-000000000001"), testEntityType, props)
}

func TestProperty_SetPropagates(t *testing.T) {
	e := newTestEntity(map[string]any{"p": 0.0})
	var got []any
	require.True(t, e.ObserveWithHandle("p", func(v any) { got = append(got, v) }, signal.NewHandle()))

	e.Set("p", 5.0)
	assert.Equal(t, []any{5.0}, got)
	v, ok := e.Get("p")
	require.True(t, ok)
	assert.Equal(t, 5.0, v)
}

func TestProperty_SetNoPropagateIsSilent(t *testing.T) {
	e := newTestEntity(map[string]any{"p": 0.0})
	calls := 0
	e.ObserveWithHandle("p", func(any) { calls++ }, signal.NewHandle())

	e.SetNoPropagate("p", 7.0)
	assert.Equal(t, 0, calls)
	v, _ := e.AsF64("p")
	assert.Equal(t, 7.0, v)
}

func TestProperty_MutabilityEnforcement(t *testing.T) {
	e := NewEntityBuilder(testEntityType).
		PropertyWithMutability("fixed", "a", model.Immutable).
		Build()
	calls := 0
	e.ObserveWithHandle("fixed", func(any) { calls++ }, signal.NewHandle())

	e.SetChecked("fixed", "b")
	e.SetNoPropagateChecked("fixed", "c")
	v, _ := e.AsString("fixed")
	assert.Equal(t, "a", v)
	assert.Equal(t, 0, calls)

	e.Set("fixed", "d")
	v, _ = e.AsString("fixed")
	assert.Equal(t, "d", v)
	assert.Equal(t, 1, calls)

	m, ok := e.Mutability("fixed")
	require.True(t, ok)
	assert.Equal(t, model.Immutable, m)

	e.SetMutability("fixed", model.Mutable)
	e.SetChecked("fixed", "e")
	v, _ = e.AsString("fixed")
	assert.Equal(t, "e", v)
}

func TestProperty_SendDoesNotStore(t *testing.T) {
	p := NewProperty(1, "x", 1.0, model.Mutable)
	var got any
	p.Signal().Observe(func(v any) { got = v })

	p.Send(2.0)
	assert.Equal(t, 2.0, got)
	assert.Equal(t, 1.0, p.Get())
}

func TestProperty_SetCheckedReportsOutcome(t *testing.T) {
	p := NewProperty("owner", "x", 1.0, model.Immutable)
	assert.False(t, p.SetChecked(2.0))
	assert.False(t, p.SetNoPropagateChecked(2.0))
	p.SetMutability(model.Mutable)
	assert.True(t, p.SetChecked(3.0))
	assert.Equal(t, "owner", p.Owner())
	assert.Equal(t, "x", p.Name())
}

func TestInstance_Tick(t *testing.T) {
	e := NewEntityBuilder(testEntityType).
		Property("a", 1.0).
		PropertyWithMutability("b", 2.0, model.Immutable).
		Build()
	var got []any
	e.ObserveWithHandle("a", func(v any) { got = append(got, v) }, signal.NewHandle())
	e.ObserveWithHandle("b", func(v any) { got = append(got, v) }, signal.NewHandle())

	e.Tick()
	assert.Equal(t, []any{1.0, 2.0}, got)

	got = nil
	e.TickChecked()
	assert.Equal(t, []any{1.0}, got, "immutable properties are skipped")
}

func TestInstance_UnknownPropertyTolerated(t *testing.T) {
	e := newTestEntity(nil)
	assert.NotPanics(t, func() {
		e.Set("missing", 1)
		e.SetChecked("missing", 1)
		e.SetNoPropagate("missing", 1)
		e.RemoveObserver("missing", signal.NewHandle())
		e.RemoveObservers("missing")
	})
	_, ok := e.Get("missing")
	assert.False(t, ok)
	_, ok = e.Mutability("missing")
	assert.False(t, ok)
	assert.False(t, e.ObserveWithHandle("missing", func(any) {}, signal.NewHandle()))
	assert.Equal(t, 0, e.ObserverCount("missing"))
}

func TestInstance_TypedAccessors(t *testing.T) {
	e := newTestEntity(map[string]any{
		"b": true,
		"n": 3.0,
		"s": "x",
		"a": []any{1.0},
		"o": map[string]any{"k": "v"},
	})

	b, ok := e.AsBool("b")
	assert.True(t, ok)
	assert.True(t, b)

	i, ok := e.AsI64("n")
	assert.True(t, ok)
	assert.Equal(t, int64(3), i)

	u, ok := e.AsU64("n")
	assert.True(t, ok)
	assert.Equal(t, uint64(3), u)

	_, ok = e.AsBool("n")
	assert.False(t, ok, "type mismatch")

	arr, ok := e.AsArray("a")
	assert.True(t, ok)
	assert.Len(t, arr, 1)

	obj, ok := e.AsObject("o")
	assert.True(t, ok)
	assert.Equal(t, "v", obj["k"])

	_, ok = e.AsString("missing")
	assert.False(t, ok)
}

func TestInstance_ObserverSurface(t *testing.T) {
	e := newTestEntity(map[string]any{"a": 1.0, "b": 2.0})
	h := signal.NewHandle()
	e.ObserveWithHandle("a", func(any) {}, h)
	e.ObserveWithHandle("a", func(any) {}, signal.NewHandle())
	e.ObserveWithHandle("b", func(any) {}, signal.NewHandle())

	assert.Equal(t, 2, e.ObserverCount("a"))
	e.RemoveObserver("a", h)
	assert.Equal(t, 1, e.ObserverCount("a"))
	e.RemoveObservers("a")
	assert.Equal(t, 0, e.ObserverCount("a"))
	assert.Equal(t, 1, e.ObserverCount("b"))
	e.RemoveAllObservers()
	assert.Equal(t, 0, e.ObserverCount("b"))
}

func TestInstance_RemovePropertyClearsObservers(t *testing.T) {
	e := newTestEntity(map[string]any{"a": 1.0})
	p, _ := e.Properties().Get("a")
	p.Signal().Observe(func(any) {})
	e.RemoveProperty("a")
	assert.False(t, e.HasProperty("a"))
	assert.Equal(t, 0, p.Signal().Len())
}

func TestInstance_ConfigureSignalsAppliesDepthLimit(t *testing.T) {
	e := newTestEntity(map[string]any{"n": 0.0})
	var overflowed bool
	e.ConfigureSignals(signal.WithMaxDepth(2), signal.WithOverflowHandler(func(*signal.DepthExceededError) {
		overflowed = true
	}))

	e.ObserveWithHandle("n", func(v any) {
		n, _ := model.AsFloat64(v)
		e.Set("n", n+1)
	}, signal.NewHandle())

	e.Set("n", 0.0)
	assert.True(t, overflowed)
	v, _ := e.AsF64("n")
	assert.Equal(t, 2.0, v, "the dropped send still stored its value")

	// properties added later pick up the options too
	e.AddProperty("later", model.Mutable, 0.0)
	p, _ := e.Properties().Get("later")
	overflowed = false
	p.Signal().Observe(func(v any) { p.Set(v) })
	p.Set(1.0)
	assert.True(t, overflowed)
}
