package behaviour

import "github.com/roach88/rgraph/internal/model"

// EventKind names a lifecycle event reported to listeners.
type EventKind string

const (
	EventAdded            EventKind = "added"
	EventRemoved          EventKind = "removed"
	EventConnected        EventKind = "connected"
	EventDisconnected     EventKind = "disconnected"
	EventReconnected      EventKind = "reconnected"
	EventCreateFailed     EventKind = "create_failed"
	EventTransitionFailed EventKind = "transition_failed"
)

// Event describes one behaviour lifecycle change.
type Event struct {
	Kind EventKind

	// InstanceID is the string form of the instance id.
	InstanceID string

	BehaviourType model.TypeID

	// State is the behaviour state after the event.
	State State

	// Err is set for failure events.
	Err error
}

// Listener observes behaviour lifecycle events. Listeners are called
// synchronously and must not call back into the manager that notifies them.
type Listener interface {
	OnBehaviourEvent(ev Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ev Event)

func (f ListenerFunc) OnBehaviourEvent(ev Event) { f(ev) }
