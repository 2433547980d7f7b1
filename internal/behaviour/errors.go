package behaviour

import (
	"errors"
	"fmt"

	"github.com/roach88/rgraph/internal/model"
)

// TransitionErrorKind categorizes lifecycle transition failures.
type TransitionErrorKind string

const (
	// KindInvalidTransition indicates a transition outside the lifecycle table.
	KindInvalidTransition TransitionErrorKind = "INVALID_TRANSITION"

	// KindBehaviourInvalid indicates the validator rejected the instance.
	KindBehaviourInvalid TransitionErrorKind = "BEHAVIOUR_INVALID"

	// KindInitializationFailed indicates Transitions.Init failed.
	KindInitializationFailed TransitionErrorKind = "BEHAVIOUR_INITIALIZATION_FAILED"

	// KindConnectFailed indicates Transitions.Connect failed or the
	// behaviour to connect does not exist.
	KindConnectFailed TransitionErrorKind = "BEHAVIOUR_CONNECT_FAILED"

	// KindDisconnectFailed indicates Transitions.Disconnect failed or the
	// behaviour to disconnect does not exist.
	KindDisconnectFailed TransitionErrorKind = "BEHAVIOUR_DISCONNECT_FAILED"
)

// Sentinels for errors.Is. A *TransitionError matches the sentinel of its kind.
var (
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrBehaviourInvalid     = errors.New("behaviour invalid")
	ErrInitializationFailed = errors.New("behaviour initialization failed")
	ErrConnectFailed        = errors.New("behaviour connect failed")
	ErrDisconnectFailed     = errors.New("behaviour disconnect failed")

	ErrAlreadyApplied    = errors.New("behaviour already applied")
	ErrBehaviourNotFound = errors.New("behaviour not found")
	ErrFactoryNotFound   = errors.New("behaviour factory not found")
)

var kindSentinels = map[TransitionErrorKind]error{
	KindInvalidTransition:    ErrInvalidTransition,
	KindBehaviourInvalid:     ErrBehaviourInvalid,
	KindInitializationFailed: ErrInitializationFailed,
	KindConnectFailed:        ErrConnectFailed,
	KindDisconnectFailed:     ErrDisconnectFailed,
}

// TransitionError reports a failed lifecycle transition. The behaviour's
// state is whatever it was when the failing step started.
type TransitionError struct {
	Kind TransitionErrorKind

	// Ty is the behaviour type.
	Ty model.TypeID

	From State
	To   State

	// Err is the underlying cause, if any.
	Err error
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("%s: %s %s -> %s", e.Kind, e.Ty, e.From, e.To)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransitionError) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *TransitionError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// CreationErrorKind categorizes factory failures.
type CreationErrorKind string

const (
	// KindAlreadyApplied indicates the instance already behaves as the type.
	KindAlreadyApplied CreationErrorKind = "BEHAVIOUR_ALREADY_APPLIED"

	// KindTransitionFailed indicates the initial connect failed. Err holds
	// the *TransitionError.
	KindTransitionFailed CreationErrorKind = "BEHAVIOUR_TRANSITION_FAILED"
)

// CreationError reports a failed Factory.Create.
type CreationError struct {
	Kind CreationErrorKind
	Ty   model.TypeID
	Err  error
}

func (e *CreationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Ty, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Ty)
}

func (e *CreationError) Unwrap() error { return e.Err }

func (e *CreationError) Is(target error) bool {
	return e.Kind == KindAlreadyApplied && target == ErrAlreadyApplied
}

// IsInvalidTransition returns true if err is or wraps an invalid transition.
func IsInvalidTransition(err error) bool {
	return transitionKind(err) == KindInvalidTransition
}

// IsAlreadyApplied returns true if err is or wraps a CreationError of kind
// KindAlreadyApplied.
func IsAlreadyApplied(err error) bool {
	var ce *CreationError
	if errors.As(err, &ce) {
		return ce.Kind == KindAlreadyApplied
	}
	return false
}

// TransitionKind returns the kind of the TransitionError in err's chain,
// or "" if there is none.
func TransitionKind(err error) TransitionErrorKind {
	return transitionKind(err)
}

func transitionKind(err error) TransitionErrorKind {
	var te *TransitionError
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}
