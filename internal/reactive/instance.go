package reactive

import (
	"slices"
	"sync"

	"github.com/roach88/rgraph/internal/model"
	"github.com/roach88/rgraph/internal/signal"
)

// PropertyGetter reads property values by name.
type PropertyGetter interface {
	Get(name string) (any, bool)
	AsBool(name string) (bool, bool)
	AsI64(name string) (int64, bool)
	AsU64(name string) (uint64, bool)
	AsF64(name string) (float64, bool)
	AsString(name string) (string, bool)
	AsArray(name string) ([]any, bool)
	AsObject(name string) (map[string]any, bool)
	Mutability(name string) (model.Mutability, bool)
	HasProperty(name string) bool
}

// PropertySetter writes property values by name.
type PropertySetter interface {
	Set(name string, v any)
	SetChecked(name string, v any)
	SetNoPropagate(name string, v any)
	SetNoPropagateChecked(name string, v any)
	SetMutability(name string, m model.Mutability)
	Tick()
	TickChecked()
}

// Observable lets a caller subscribe to a named property. PropertyObservers
// works against this surface so a behaviour may observe instances other than
// its own.
type Observable interface {
	ObserveWithHandle(name string, fn func(any), h signal.HandleID) bool
	RemoveObserver(name string, h signal.HandleID)
}

// Instance is an entity or relation as seen by the behaviour layer.
type Instance[ID comparable] interface {
	PropertyGetter
	PropertySetter
	Observable

	ID() ID
	Type() model.TypeID

	RemoveObservers(name string)
	RemoveAllObservers()
	ObserverCount(name string) int

	AddBehaviour(ty model.TypeID)
	RemoveBehaviour(ty model.TypeID)
	BehavesAs(ty model.TypeID) bool
	Behaviours() []model.TypeID

	Components() []model.TypeID
	IsA(ty model.TypeID) bool
}

// base implements Instance for both entities and relations.
type base[ID comparable] struct {
	id    ID
	ty    model.TypeID
	props *Properties[ID]

	mu         sync.RWMutex
	components []model.TypeID
	behaviours map[model.TypeID]struct{}
}

func (b *base[ID]) init(id ID, ty model.TypeID) {
	b.id = id
	b.ty = ty
	b.props = NewProperties(id)
	b.behaviours = make(map[model.TypeID]struct{})
}

func (b *base[ID]) ID() ID             { return b.id }
func (b *base[ID]) Type() model.TypeID { return b.ty }

// Properties exposes the underlying container.
func (b *base[ID]) Properties() *Properties[ID] { return b.props }

func (b *base[ID]) property(name string) (*Property[ID], bool) {
	return b.props.Get(name)
}

func (b *base[ID]) Get(name string) (any, bool) {
	p, ok := b.property(name)
	if !ok {
		return nil, false
	}
	return p.Get(), true
}

func (b *base[ID]) AsBool(name string) (bool, bool) {
	v, _ := b.Get(name)
	return model.AsBool(v)
}

func (b *base[ID]) AsI64(name string) (int64, bool) {
	v, _ := b.Get(name)
	return model.AsInt64(v)
}

func (b *base[ID]) AsU64(name string) (uint64, bool) {
	v, _ := b.Get(name)
	return model.AsUint64(v)
}

func (b *base[ID]) AsF64(name string) (float64, bool) {
	v, _ := b.Get(name)
	return model.AsFloat64(v)
}

func (b *base[ID]) AsString(name string) (string, bool) {
	v, _ := b.Get(name)
	return model.AsString(v)
}

func (b *base[ID]) AsArray(name string) ([]any, bool) {
	v, _ := b.Get(name)
	return model.AsArray(v)
}

func (b *base[ID]) AsObject(name string) (map[string]any, bool) {
	v, _ := b.Get(name)
	return model.AsObject(v)
}

func (b *base[ID]) HasProperty(name string) bool {
	return b.props.Has(name)
}

// AddProperty adds a property or overwrites an existing one silently.
func (b *base[ID]) AddProperty(name string, mutability model.Mutability, value any) {
	b.props.Add(name, mutability, value)
}

// RemoveProperty drops a property together with its observers.
func (b *base[ID]) RemoveProperty(name string) {
	b.props.Remove(name)
}

func (b *base[ID]) Set(name string, v any) {
	if p, ok := b.property(name); ok {
		p.Set(v)
	}
}

func (b *base[ID]) SetChecked(name string, v any) {
	if p, ok := b.property(name); ok {
		p.SetChecked(v)
	}
}

func (b *base[ID]) SetNoPropagate(name string, v any) {
	if p, ok := b.property(name); ok {
		p.SetNoPropagate(v)
	}
}

func (b *base[ID]) SetNoPropagateChecked(name string, v any) {
	if p, ok := b.property(name); ok {
		p.SetNoPropagateChecked(v)
	}
}

func (b *base[ID]) Mutability(name string) (model.Mutability, bool) {
	p, ok := b.property(name)
	if !ok {
		return model.Mutable, false
	}
	return p.Mutability(), true
}

func (b *base[ID]) SetMutability(name string, m model.Mutability) {
	if p, ok := b.property(name); ok {
		p.SetMutability(m)
	}
}

// Tick re-sends every stored value, in property name order.
func (b *base[ID]) Tick() {
	b.props.Each(func(p *Property[ID]) { p.Tick() })
}

// TickChecked re-sends the stored values of mutable properties.
func (b *base[ID]) TickChecked() {
	b.props.Each(func(p *Property[ID]) { p.TickChecked() })
}

// ObserveWithHandle subscribes fn to the named property. It reports false
// if the property does not exist.
func (b *base[ID]) ObserveWithHandle(name string, fn func(any), h signal.HandleID) bool {
	p, ok := b.property(name)
	if !ok {
		return false
	}
	p.Signal().ObserveWithHandle(fn, h)
	return true
}

func (b *base[ID]) RemoveObserver(name string, h signal.HandleID) {
	if p, ok := b.property(name); ok {
		p.Signal().Remove(h)
	}
}

func (b *base[ID]) RemoveObservers(name string) {
	if p, ok := b.property(name); ok {
		p.Signal().Clear()
	}
}

func (b *base[ID]) RemoveAllObservers() {
	b.props.Each(func(p *Property[ID]) { p.Signal().Clear() })
}

func (b *base[ID]) ObserverCount(name string) int {
	p, ok := b.property(name)
	if !ok {
		return 0
	}
	return p.Signal().Len()
}

// ConfigureSignals applies signal options to every property.
func (b *base[ID]) ConfigureSignals(opts ...signal.Option) {
	b.props.ConfigureSignals(opts...)
}

func (b *base[ID]) AddBehaviour(ty model.TypeID) {
	b.mu.Lock()
	b.behaviours[ty] = struct{}{}
	b.mu.Unlock()
}

func (b *base[ID]) RemoveBehaviour(ty model.TypeID) {
	b.mu.Lock()
	delete(b.behaviours, ty)
	b.mu.Unlock()
}

func (b *base[ID]) BehavesAs(ty model.TypeID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.behaviours[ty]
	return ok
}

// BehavesAsAll reports whether every given behaviour type is attached.
func (b *base[ID]) BehavesAsAll(tys ...model.TypeID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ty := range tys {
		if _, ok := b.behaviours[ty]; !ok {
			return false
		}
	}
	return true
}

// Behaviours returns the attached behaviour types in sorted order.
func (b *base[ID]) Behaviours() []model.TypeID {
	b.mu.RLock()
	out := make([]model.TypeID, 0, len(b.behaviours))
	for ty := range b.behaviours {
		out = append(out, ty)
	}
	b.mu.RUnlock()
	return model.SortTypeIDs(out)
}

// AddComponent records a component. Adding a component twice is a no-op.
func (b *base[ID]) AddComponent(ty model.TypeID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !slices.Contains(b.components, ty) {
		b.components = append(b.components, ty)
	}
}

// AddComponentWithProperties records a component and adds its declared
// properties that the instance does not have yet.
func (b *base[ID]) AddComponentWithProperties(c model.Component) {
	b.AddComponent(c.Type)
	for _, pt := range c.Properties {
		if !b.props.Has(pt.Name) {
			b.props.Add(pt.Name, pt.Mutability, pt.DefaultValue())
		}
	}
}

func (b *base[ID]) RemoveComponent(ty model.TypeID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.components = slices.DeleteFunc(b.components, func(c model.TypeID) bool { return c == ty })
}

func (b *base[ID]) IsA(ty model.TypeID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Contains(b.components, ty)
}

// IsAll reports whether the instance has every given component.
func (b *base[ID]) IsAll(tys ...model.TypeID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ty := range tys {
		if !slices.Contains(b.components, ty) {
			return false
		}
	}
	return true
}

// Components returns the components in the order they were added.
func (b *base[ID]) Components() []model.TypeID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.components)
}
