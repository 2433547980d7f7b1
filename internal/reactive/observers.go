package reactive

import (
	"sync"

	"github.com/google/uuid"
	"github.com/roach88/rgraph/internal/signal"
)

type subscription struct {
	target Observable
	name   string
	handle signal.HandleID
}

// PropertyObservers tracks the property subscriptions made by one behaviour
// so that disconnecting removes exactly what connecting added.
//
// Handles are derived from the scope, the owner key and the property name.
// Observing the same property of the same target again replaces the earlier
// callback rather than stacking a second one.
type PropertyObservers struct {
	scope uuid.UUID
	owner string

	mu   sync.Mutex
	subs []subscription
}

// NewPropertyObservers creates a tracker. scope is usually the behaviour
// type's UUID and owner the string form of the instance id the behaviour is
// attached to.
func NewPropertyObservers(scope uuid.UUID, owner string) *PropertyObservers {
	return &PropertyObservers{scope: scope, owner: owner}
}

// Observe subscribes fn to the named property of target. It reports false,
// and records nothing, if the property does not exist.
func (o *PropertyObservers) Observe(target Observable, name string, fn func(any)) bool {
	h := signal.HandleFor(o.scope, o.owner, name)
	if !target.ObserveWithHandle(name, fn, h) {
		return false
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	for _, s := range o.subs {
		if s.target == target && s.name == name {
			return true
		}
	}
	o.subs = append(o.subs, subscription{target: target, name: name, handle: h})
	return true
}

// RemoveAll unsubscribes every recorded observer.
func (o *PropertyObservers) RemoveAll() {
	o.mu.Lock()
	subs := o.subs
	o.subs = nil
	o.mu.Unlock()

	for _, s := range subs {
		s.target.RemoveObserver(s.name, s.handle)
	}
}

// Count returns the number of live subscriptions.
func (o *PropertyObservers) Count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}
