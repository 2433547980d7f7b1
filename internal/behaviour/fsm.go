package behaviour

import (
	"sync"
	"sync/atomic"

	"github.com/roach88/rgraph/internal/model"
	"github.com/roach88/rgraph/internal/reactive"
)

// Behaviour is one behaviour type attached to one instance.
//
// The instance is held by plain reference. Storage owns the Behaviour and
// removing it from storage releases the reference, so a behaviour never
// keeps an instance alive on its own once it has been removed.
type Behaviour[ID comparable] struct {
	ty          model.TypeID
	inst        reactive.Instance[ID]
	validator   Validator[ID]
	transitions Transitions[ID]

	mu     sync.Mutex // serializes transitions
	state  atomic.Int32
	closed bool
}

// New creates a behaviour and drives it to Connected. If that fails the
// behaviour is discarded: a partially applied connect is rolled back and
// the TransitionError is returned.
func New[ID comparable](inst reactive.Instance[ID], ty model.TypeID, validator Validator[ID], transitions Transitions[ID]) (*Behaviour[ID], error) {
	if validator == nil {
		validator = ValidatorFunc[ID](func(reactive.Instance[ID]) error { return nil })
	}
	if transitions == nil {
		transitions = NoopTransitions[ID]{}
	}
	b := &Behaviour[ID]{
		ty:          ty,
		inst:        inst,
		validator:   validator,
		transitions: transitions,
	}

	if err := b.Transition(StateConnected); err != nil {
		if TransitionKind(err) == KindConnectFailed {
			_ = transitions.Disconnect(inst)
		}
		return nil, err
	}
	return b, nil
}

// Type returns the behaviour type.
func (b *Behaviour[ID]) Type() model.TypeID { return b.ty }

// Instance returns the instance the behaviour is attached to.
func (b *Behaviour[ID]) Instance() reactive.Instance[ID] { return b.inst }

// State returns the current state. It is safe to call from inside
// transition callbacks.
func (b *Behaviour[ID]) State() State {
	return State(b.state.Load())
}

func (b *Behaviour[ID]) setState(s State) {
	b.state.Store(int32(s))
}

// Transition drives the behaviour to target.
//
// Allowed transitions:
//
//	Created -> Valid                    validate
//	Created|Valid -> Ready              (validate) init
//	Created|Valid|Ready -> Connected    (validate) (init) connect
//	Connected -> Ready                  disconnect
//
// Anything else, including a transition to the current state, returns an
// InvalidTransition error without side effects. A failing step leaves the
// state at the last step that succeeded. A closed behaviour rejects every
// transition.
func (b *Behaviour[ID]) Transition(target State) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return b.fail(KindInvalidTransition, b.State(), target, nil)
	}
	return b.transition(target)
}

func (b *Behaviour[ID]) transition(target State) error {
	from := b.State()
	switch {
	case target == StateValid && from == StateCreated:
		if err := b.validator.Validate(b.inst); err != nil {
			return b.fail(KindBehaviourInvalid, from, target, err)
		}
		b.setState(StateValid)
		return nil

	case target == StateReady && from < StateReady:
		if from == StateCreated {
			if err := b.transition(StateValid); err != nil {
				return err
			}
		}
		if err := b.transitions.Init(b.inst); err != nil {
			return b.fail(KindInitializationFailed, StateValid, target, err)
		}
		b.setState(StateReady)
		return nil

	case target == StateConnected && from < StateConnected:
		if from < StateReady {
			if err := b.transition(StateReady); err != nil {
				return err
			}
		}
		if err := b.transitions.Connect(b.inst); err != nil {
			return b.fail(KindConnectFailed, StateReady, target, err)
		}
		b.inst.AddBehaviour(b.ty)
		b.setState(StateConnected)
		return nil

	case target == StateReady && from == StateConnected:
		if err := b.transitions.Disconnect(b.inst); err != nil {
			return b.fail(KindDisconnectFailed, from, target, err)
		}
		b.inst.RemoveBehaviour(b.ty)
		b.setState(StateReady)
		return nil
	}
	return b.fail(KindInvalidTransition, from, target, nil)
}

func (b *Behaviour[ID]) fail(kind TransitionErrorKind, from, to State, err error) error {
	return &TransitionError{Kind: kind, Ty: b.ty, From: from, To: to, Err: err}
}

// Connect drives the behaviour to Connected.
func (b *Behaviour[ID]) Connect() error {
	return b.Transition(StateConnected)
}

// Disconnect drives the behaviour from Connected to Ready.
func (b *Behaviour[ID]) Disconnect() error {
	return b.Transition(StateReady)
}

// Reconnect disconnects and connects again so that Connect re-reads its
// inputs. Both steps run under one lock.
func (b *Behaviour[ID]) Reconnect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return b.fail(KindInvalidTransition, b.State(), StateReady, nil)
	}
	if err := b.transition(StateReady); err != nil {
		return err
	}
	return b.transition(StateConnected)
}

// Close disconnects the behaviour if it is connected. It is idempotent;
// only the first call does any work. The behaviour must not be used after
// Close.
//
// If the disconnect fails the instance still stops behaving as the type, so
// a new behaviour of the type can be attached once this one is removed. The
// error is returned.
func (b *Behaviour[ID]) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.State() != StateConnected {
		return nil
	}
	if err := b.transition(StateReady); err != nil {
		b.inst.RemoveBehaviour(b.ty)
		return err
	}
	return nil
}

// Closed reports whether Close has been called.
func (b *Behaviour[ID]) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
