package behaviour

import "github.com/roach88/rgraph/internal/reactive"

// Transitions performs the side effects of lifecycle changes. Connect
// typically subscribes observers on the instance's properties and
// Disconnect removes exactly those.
type Transitions[ID comparable] interface {
	Init(inst reactive.Instance[ID]) error
	Connect(inst reactive.Instance[ID]) error
	Disconnect(inst reactive.Instance[ID]) error
}

// NoopTransitions does nothing on every transition.
type NoopTransitions[ID comparable] struct{}

func (NoopTransitions[ID]) Init(reactive.Instance[ID]) error       { return nil }
func (NoopTransitions[ID]) Connect(reactive.Instance[ID]) error    { return nil }
func (NoopTransitions[ID]) Disconnect(reactive.Instance[ID]) error { return nil }

// TransitionsFuncs builds Transitions from optional functions. A nil
// function succeeds without doing anything.
type TransitionsFuncs[ID comparable] struct {
	InitFn       func(inst reactive.Instance[ID]) error
	ConnectFn    func(inst reactive.Instance[ID]) error
	DisconnectFn func(inst reactive.Instance[ID]) error
}

func (t TransitionsFuncs[ID]) Init(inst reactive.Instance[ID]) error {
	if t.InitFn == nil {
		return nil
	}
	return t.InitFn(inst)
}

func (t TransitionsFuncs[ID]) Connect(inst reactive.Instance[ID]) error {
	if t.ConnectFn == nil {
		return nil
	}
	return t.ConnectFn(inst)
}

func (t TransitionsFuncs[ID]) Disconnect(inst reactive.Instance[ID]) error {
	if t.DisconnectFn == nil {
		return nil
	}
	return t.DisconnectFn(inst)
}

// ObserverTransitions wires a behaviour through a PropertyObservers tracker.
// Wire is called on connect with the tracker; disconnect removes every
// subscription the tracker recorded.
type ObserverTransitions[ID comparable] struct {
	Observers *reactive.PropertyObservers
	InitFn    func(inst reactive.Instance[ID]) error
	Wire      func(inst reactive.Instance[ID], obs *reactive.PropertyObservers) error
}

func (t ObserverTransitions[ID]) Init(inst reactive.Instance[ID]) error {
	if t.InitFn == nil {
		return nil
	}
	return t.InitFn(inst)
}

func (t ObserverTransitions[ID]) Connect(inst reactive.Instance[ID]) error {
	if t.Wire == nil {
		return nil
	}
	return t.Wire(inst, t.Observers)
}

func (t ObserverTransitions[ID]) Disconnect(reactive.Instance[ID]) error {
	t.Observers.RemoveAll()
	return nil
}
