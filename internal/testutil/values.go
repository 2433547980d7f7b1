package testutil

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/rgraph/internal/reactive"
	"github.com/roach88/rgraph/internal/signal"
)

// valuesScope namespaces the observer handles of Values recorders.
var valuesScope = uuid.NewSHA1(uuid.NameSpaceOID, []byte("rgraph.testutil.values"))

// Values records every value sent on one property.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Values struct {
	target reactive.Observable
	name   string
	handle signal.HandleID

	mu     sync.Mutex
	values []any
}

// Record subscribes a new recorder to the named property of target. It
// returns nil if the property does not exist.
//
// Each call gets its own handle, so several recorders can watch the same
// property.
func Record(target reactive.Observable, name string) *Values {
	v := &Values{
		target: target,
		name:   name,
		handle: signal.HandleFor(valuesScope, name, uuid.NewString()),
	}
	if !target.ObserveWithHandle(name, v.add, v.handle) {
		return nil
	}
	return v
}

func (v *Values) add(value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values = append(v.values, value)
}

// All returns a copy of the recorded values in send order.
func (v *Values) All() []any {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.values)
}

// Last returns the most recent value.
func (v *Values) Last() (any, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.values) == 0 {
		return nil, false
	}
	return v.values[len(v.values)-1], true
}

// Len returns the number of recorded values.
func (v *Values) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.values)
}

// Stop unsubscribes the recorder. Recorded values are kept.
func (v *Values) Stop() {
	v.target.RemoveObserver(v.name, v.handle)
}
