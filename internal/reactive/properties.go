package reactive

import (
	"slices"
	"sync"

	"github.com/roach88/rgraph/internal/model"
	"github.com/roach88/rgraph/internal/signal"
)

// Properties is the property container of one instance.
//
// Unknown names are tolerated everywhere: getters report false and
// setters do nothing.
type Properties[ID comparable] struct {
	owner ID

	mu         sync.RWMutex
	props      map[string]*Property[ID]
	signalOpts []signal.Option
}

// NewProperties creates an empty container for the given owner.
func NewProperties[ID comparable](owner ID) *Properties[ID] {
	return &Properties[ID]{
		owner: owner,
		props: make(map[string]*Property[ID]),
	}
}

// Add creates a property, or replaces the value and mutability of an
// existing one without touching its observers.
func (ps *Properties[ID]) Add(name string, mutability model.Mutability, value any) *Property[ID] {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if p, ok := ps.props[name]; ok {
		p.SetNoPropagate(value)
		p.SetMutability(mutability)
		return p
	}
	p := NewProperty(ps.owner, name, value, mutability, ps.signalOpts...)
	ps.props[name] = p
	return p
}

// Remove drops a property and all of its observers.
func (ps *Properties[ID]) Remove(name string) {
	ps.mu.Lock()
	p, ok := ps.props[name]
	delete(ps.props, name)
	ps.mu.Unlock()
	if ok {
		p.Signal().Clear()
	}
}

func (ps *Properties[ID]) Has(name string) bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	_, ok := ps.props[name]
	return ok
}

func (ps *Properties[ID]) Get(name string) (*Property[ID], bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	p, ok := ps.props[name]
	return p, ok
}

// Names returns the property names in sorted order.
func (ps *Properties[ID]) Names() []string {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	names := make([]string, 0, len(ps.props))
	for name := range ps.props {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Snapshot returns a copy of the current values.
func (ps *Properties[ID]) Snapshot() map[string]any {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	out := make(map[string]any, len(ps.props))
	for name, p := range ps.props {
		out[name] = p.Get()
	}
	return out
}

// Each calls fn for every property in name order. The container is not
// locked while fn runs, so fn may send or mutate freely.
func (ps *Properties[ID]) Each(fn func(*Property[ID])) {
	for _, name := range ps.Names() {
		if p, ok := ps.Get(name); ok {
			fn(p)
		}
	}
}

// Len returns the number of properties.
func (ps *Properties[ID]) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.props)
}

// ConfigureSignals applies opts to the signals of existing properties and
// of properties added later.
func (ps *Properties[ID]) ConfigureSignals(opts ...signal.Option) {
	ps.mu.Lock()
	ps.signalOpts = append(ps.signalOpts, opts...)
	existing := make([]*Property[ID], 0, len(ps.props))
	for _, p := range ps.props {
		existing = append(existing, p)
	}
	ps.mu.Unlock()

	for _, p := range existing {
		p.Signal().Apply(opts...)
	}
}
