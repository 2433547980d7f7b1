package behaviour

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/roach88/rgraph/internal/model"
	"github.com/roach88/rgraph/internal/reactive"
)

var (
	thingType = model.NewEntityType("test", "thing")
	tapType = model.NewBehaviourType("test", "tap")
	otherType = model.NewBehaviourType("test", "other")
)

func entityID(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

func newThing(n int) *reactive.Entity {
	return reactive.NewEntity(entityID(n), thingType, map[string]any{"in": 0.0, "out": 0.0})
}

// tap counts values seen on one property while connected.
type tap struct {
	seen atomic.Int64
}

// tapFactory builds behaviours that observe prop and count sends.
func tapFactory(ty model.TypeID, prop string, p *tap) *FuncFactory[uuid.UUID] {
	return NewFactory(ty, func(inst reactive.Instance[uuid.UUID]) (Validator[uuid.UUID], Transitions[uuid.UUID], error) {
		obs := reactive.NewPropertyObservers(ty.UUID(), inst.ID().String())
		return NewPropertyValidator[uuid.UUID](prop), ObserverTransitions[uuid.UUID]{
			Observers: obs,
			Wire: func(inst reactive.Instance[uuid.UUID], obs *reactive.PropertyObservers) error {
				obs.Observe(inst, prop, func(any) {
					if p != nil {
						p.seen.Add(1)
					}
				})
				return nil
			},
		}, nil
	})
}

var errBoom = errors.New("boom")

// scriptedTransitions fails the steps named in failOn and counts calls.
type scriptedTransitions struct {
	failOn     map[string]bool
	init       int
	connect    int
	disconnect int
	onConnect  func(inst reactive.Instance[uuid.UUID])
}

func (s *scriptedTransitions) step(name string, counter *int) error {
	*counter++
	if s.failOn[name] {
		return errBoom
	}
	return nil
}

func (s *scriptedTransitions) Init(reactive.Instance[uuid.UUID]) error {
	return s.step("init", &s.init)
}

func (s *scriptedTransitions) Connect(inst reactive.Instance[uuid.UUID]) error {
	if s.onConnect != nil {
		s.onConnect(inst)
	}
	return s.step("connect", &s.connect)
}

func (s *scriptedTransitions) Disconnect(reactive.Instance[uuid.UUID]) error {
	return s.step("disconnect", &s.disconnect)
}

func failingValidator() Validator[uuid.UUID] {
	return ValidatorFunc[uuid.UUID](func(reactive.Instance[uuid.UUID]) error { return errBoom })
}

// recorder collects lifecycle events.
type recorder struct {
	events []Event
}

func (r *recorder) OnBehaviourEvent(ev Event) {
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []EventKind {
	out := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func reactiveEntityType(name string) model.TypeID {
	return model.NewEntityType("test", name)
}

