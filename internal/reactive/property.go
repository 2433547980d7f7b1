package reactive

import (
	"sync"

	"github.com/roach88/rgraph/internal/model"
	"github.com/roach88/rgraph/internal/signal"
)

// Property is one named value of an instance plus the signal that
// broadcasts its changes.
type Property[ID comparable] struct {
	owner ID
	name  string

	mu         sync.RWMutex
	value      any
	mutability model.Mutability

	signal *signal.Signal[any]
}

// NewProperty creates a property owned by the instance with the given id.
func NewProperty[ID comparable](owner ID, name string, value any, mutability model.Mutability, opts ...signal.Option) *Property[ID] {
	return &Property[ID]{
		owner:      owner,
		name:       name,
		value:      value,
		mutability: mutability,
		signal:     signal.New[any](opts...),
	}
}

// Owner returns the id of the owning instance.
func (p *Property[ID]) Owner() ID { return p.owner }

// Name returns the property name.
func (p *Property[ID]) Name() string { return p.name }

// Signal returns the signal that carries this property's values.
func (p *Property[ID]) Signal() *signal.Signal[any] { return p.signal }

// Get returns the stored value.
func (p *Property[ID]) Get() any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set stores v and sends it to the observers.
func (p *Property[ID]) Set(v any) {
	p.SetNoPropagate(v)
	p.signal.Send(v)
}

// SetChecked is Set for mutable properties. It reports whether the write
// was applied.
func (p *Property[ID]) SetChecked(v any) bool {
	if p.Mutability() != model.Mutable {
		return false
	}
	p.Set(v)
	return true
}

// SetNoPropagate stores v without notifying observers.
func (p *Property[ID]) SetNoPropagate(v any) {
	p.mu.Lock()
	p.value = v
	p.mu.Unlock()
}

// SetNoPropagateChecked is SetNoPropagate for mutable properties. It
// reports whether the write was applied.
func (p *Property[ID]) SetNoPropagateChecked(v any) bool {
	if p.Mutability() != model.Mutable {
		return false
	}
	p.SetNoPropagate(v)
	return true
}

// Send pushes v to the observers without storing it.
func (p *Property[ID]) Send(v any) {
	p.signal.Send(v)
}

// Tick re-sends the stored value.
func (p *Property[ID]) Tick() {
	p.signal.Send(p.Get())
}

// TickChecked re-sends the stored value of a mutable property.
func (p *Property[ID]) TickChecked() {
	if p.Mutability() == model.Mutable {
		p.Tick()
	}
}

func (p *Property[ID]) Mutability() model.Mutability {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mutability
}

func (p *Property[ID]) SetMutability(m model.Mutability) {
	p.mu.Lock()
	p.mutability = m
	p.mu.Unlock()
}

func (p *Property[ID]) AsBool() (bool, bool)             { return model.AsBool(p.Get()) }
func (p *Property[ID]) AsI64() (int64, bool)             { return model.AsInt64(p.Get()) }
func (p *Property[ID]) AsU64() (uint64, bool)            { return model.AsUint64(p.Get()) }
func (p *Property[ID]) AsF64() (float64, bool)           { return model.AsFloat64(p.Get()) }
func (p *Property[ID]) AsString() (string, bool)         { return model.AsString(p.Get()) }
func (p *Property[ID]) AsArray() ([]any, bool)           { return model.AsArray(p.Get()) }
func (p *Property[ID]) AsObject() (map[string]any, bool) { return model.AsObject(p.Get()) }
