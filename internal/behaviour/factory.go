package behaviour

import (
	"github.com/roach88/rgraph/internal/model"
	"github.com/roach88/rgraph/internal/reactive"
)

// Factory creates behaviours of one type.
type Factory[ID comparable] interface {
	BehaviourType() model.TypeID
	Create(inst reactive.Instance[ID]) (*Behaviour[ID], error)
}

// BuildFunc returns the validator and transitions of a new behaviour for
// inst. It runs once per Create, so transitions may keep per-behaviour state.
type BuildFunc[ID comparable] func(inst reactive.Instance[ID]) (Validator[ID], Transitions[ID], error)

// FuncFactory is a Factory backed by a BuildFunc.
type FuncFactory[ID comparable] struct {
	ty    model.TypeID
	build BuildFunc[ID]
}

// NewFactory creates a factory for the behaviour type ty.
func NewFactory[ID comparable](ty model.TypeID, build BuildFunc[ID]) *FuncFactory[ID] {
	return &FuncFactory[ID]{ty: ty, build: build}
}

func (f *FuncFactory[ID]) BehaviourType() model.TypeID { return f.ty }

// Create builds a behaviour and drives it to Connected.
//
// It fails with KindAlreadyApplied if inst already behaves as the type, and
// with KindTransitionFailed wrapping the TransitionError if it cannot reach
// Connected. An error from the BuildFunc counts as a validation failure.
func (f *FuncFactory[ID]) Create(inst reactive.Instance[ID]) (*Behaviour[ID], error) {
	if inst.BehavesAs(f.ty) {
		return nil, &CreationError{Kind: KindAlreadyApplied, Ty: f.ty}
	}

	validator, transitions, err := f.build(inst)
	if err != nil {
		return nil, &CreationError{
			Kind: KindTransitionFailed,
			Ty:   f.ty,
			Err:  &TransitionError{Kind: KindBehaviourInvalid, Ty: f.ty, From: StateCreated, To: StateValid, Err: err},
		}
	}

	b, err := New(inst, f.ty, validator, transitions)
	if err != nil {
		return nil, &CreationError{Kind: KindTransitionFailed, Ty: f.ty, Err: err}
	}
	return b, nil
}
