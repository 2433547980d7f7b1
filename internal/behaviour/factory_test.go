package behaviour

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/roach88/rgraph/internal/model"
	"github.com/roach88/rgraph/internal/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_CreateConnects(t *testing.T) {
	p := &tap{}
	f := tapFactory(tapType, "in", p)
	inst := newThing(1)

	b, err := f.Create(inst)
	require.NoError(t, err)
	assert.Equal(t, StateConnected, b.State())
	assert.Equal(t, tapType, f.BehaviourType())
	assert.Equal(t, 1, inst.ObserverCount("in"))

	inst.Set("in", 1.0)
	assert.Equal(t, int64(1), p.seen.Load())
}

func TestFactory_AlreadyApplied(t *testing.T) {
	f := tapFactory(tapType, "in", nil)
	inst := newThing(1)

	_, err := f.Create(inst)
	require.NoError(t, err)

	_, err = f.Create(inst)
	require.Error(t, err)
	assert.True(t, IsAlreadyApplied(err))
	assert.ErrorIs(t, err, ErrAlreadyApplied)
	assert.Equal(t, 1, inst.ObserverCount("in"))
}

func TestFactory_ValidationFailure(t *testing.T) {
	f := tapFactory(tapType, "missing", nil)
	_, err := f.Create(newThing(1))
	require.Error(t, err)

	var ce *CreationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, KindTransitionFailed, ce.Kind)
	assert.Equal(t, KindBehaviourInvalid, TransitionKind(err))
	assert.False(t, IsAlreadyApplied(err))
}

func TestFactory_BuildError(t *testing.T) {
	f := NewFactory(tapType, func(reactive.Instance[uuid.UUID]) (Validator[uuid.UUID], Transitions[uuid.UUID], error) {
		return nil, nil, errBoom
	})
	_, err := f.Create(newThing(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.ErrorIs(t, err, ErrBehaviourInvalid)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry[uuid.UUID]()
	tapF := tapFactory(tapType, "in", nil)
	otherF := tapFactory(otherType, "out", nil)
	sensor := thingType
	actuator := reactiveEntityType("actuator")

	r.RegisterAll(sensor, tapF, otherF)
	r.Register(actuator, tapF)

	fs := r.Get(sensor)
	require.Len(t, fs, 2)
	assert.Equal(t, tapType, fs[0].BehaviourType(), "registration order is kept")
	assert.Equal(t, otherType, fs[1].BehaviourType())

	f, ok := r.FactoryByBehaviourType(otherType)
	require.True(t, ok)
	assert.Same(t, otherF, f)

	assert.ElementsMatch(t, []model.TypeID{sensor, actuator}, r.OwnersOf(tapType))
	assert.Len(t, r.OwnerTypes(), 2)
	assert.Len(t, r.BehaviourTypes(), 2)

	// re-register replaces in place
	replacement := tapFactory(tapType, "in", nil)
	r.Register(sensor, replacement)
	fs = r.Get(sensor)
	require.Len(t, fs, 2)
	assert.Same(t, replacement, fs[0])

	assert.True(t, r.Unregister(tapType))
	assert.False(t, r.Unregister(tapType))
	assert.Len(t, r.Get(sensor), 1)
	assert.Empty(t, r.Get(actuator))
	assert.Equal(t, []model.TypeID{sensor}, r.OwnerTypes())
	_, ok = r.FactoryByBehaviourType(tapType)
	assert.False(t, ok)

	r.UnregisterAll()
	assert.Empty(t, r.BehaviourTypes())
	assert.Empty(t, r.OwnerTypes())
}

func TestRegistry_ReplaceUpdatesEveryOwner(t *testing.T) {
	r := NewRegistry[uuid.UUID]()
	sensor := thingType
	actuator := reactiveEntityType("actuator")

	r.Register(sensor, tapFactory(tapType, "in", nil))
	replacement := tapFactory(tapType, "out", nil)
	r.Register(actuator, replacement)

	direct, ok := r.FactoryByBehaviourType(tapType)
	require.True(t, ok)
	assert.Same(t, replacement, direct)
	for _, owner := range []model.TypeID{sensor, actuator} {
		fs := r.Get(owner)
		require.Len(t, fs, 1, owner.String())
		assert.Same(t, replacement, fs[0], owner.String())
	}
	assert.ElementsMatch(t, []model.TypeID{sensor, actuator}, r.OwnersOf(tapType))
}

func TestRegistry_UnregisterAllSelected(t *testing.T) {
	r := NewRegistry[uuid.UUID]()
	r.RegisterAll(thingType, tapFactory(tapType, "in", nil), tapFactory(otherType, "in", nil))
	r.UnregisterAll(tapType)
	assert.Len(t, r.Get(thingType), 1)
	_, ok := r.FactoryByBehaviourType(otherType)
	assert.True(t, ok)
}
