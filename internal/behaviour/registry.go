package behaviour

import (
	"slices"

	"github.com/roach88/rgraph/internal/model"
)

type registration[ID comparable] struct {
	factory Factory[ID]
	owners  []model.TypeID
}

// Registry maps owner types to the factories that apply to their instances,
// with a secondary index by behaviour type.
//
// Owners are entity or relation types for a plain Manager and component
// types for a ComponentManager. A Registry is constructed once and shared
// by reference; there is no package-level registry.
type Registry[ID comparable] struct {
	byOwner     *shardedMap[model.TypeID, []Factory[ID]]
	byBehaviour *shardedMap[model.TypeID, registration[ID]]
}

// NewRegistry creates an empty registry.
func NewRegistry[ID comparable]() *Registry[ID] {
	return &Registry[ID]{
		byOwner:     newShardedMap[model.TypeID, []Factory[ID]](),
		byBehaviour: newShardedMap[model.TypeID, registration[ID]](),
	}
}

// Register binds f to owner. A behaviour type has one factory: registering
// a factory for a type that is already registered replaces the earlier one
// in place for every owner it is bound to.
func (r *Registry[ID]) Register(owner model.TypeID, f Factory[ID]) {
	ty := f.BehaviourType()

	var owners []model.TypeID
	r.byBehaviour.update(ty, func(reg registration[ID], _ bool) (registration[ID], bool) {
		reg.factory = f
		if !slices.Contains(reg.owners, owner) {
			reg.owners = append(slices.Clone(reg.owners), owner)
		}
		owners = reg.owners
		return reg, true
	})

	for _, o := range owners {
		r.byOwner.update(o, func(fs []Factory[ID], _ bool) ([]Factory[ID], bool) {
			next := slices.Clone(fs)
			if i := slices.IndexFunc(next, func(x Factory[ID]) bool { return x.BehaviourType() == ty }); i >= 0 {
				next[i] = f
			} else if o == owner {
				next = append(next, f)
			}
			return next, len(next) > 0
		})
	}
}

// RegisterAll binds every factory to owner, in order.
func (r *Registry[ID]) RegisterAll(owner model.TypeID, fs ...Factory[ID]) {
	for _, f := range fs {
		r.Register(owner, f)
	}
}

// Unregister removes the factory of a behaviour type from every owner.
// It reports whether the type was registered.
func (r *Registry[ID]) Unregister(ty model.TypeID) bool {
	reg, ok := r.byBehaviour.remove(ty)
	if !ok {
		return false
	}
	for _, owner := range reg.owners {
		r.byOwner.update(owner, func(fs []Factory[ID], _ bool) ([]Factory[ID], bool) {
			next := slices.DeleteFunc(slices.Clone(fs), func(x Factory[ID]) bool { return x.BehaviourType() == ty })
			return next, len(next) > 0
		})
	}
	return true
}

// UnregisterAll removes the given behaviour types, or every registration
// when called without arguments.
func (r *Registry[ID]) UnregisterAll(tys ...model.TypeID) {
	if len(tys) == 0 {
		r.byOwner.reset()
		r.byBehaviour.reset()
		return
	}
	for _, ty := range tys {
		r.Unregister(ty)
	}
}

// Get returns the factories applicable to instances of owner, in
// registration order.
func (r *Registry[ID]) Get(owner model.TypeID) []Factory[ID] {
	fs, _ := r.byOwner.get(owner)
	return slices.Clone(fs)
}

// FactoryByBehaviourType looks up a factory directly.
func (r *Registry[ID]) FactoryByBehaviourType(ty model.TypeID) (Factory[ID], bool) {
	reg, ok := r.byBehaviour.get(ty)
	if !ok {
		return nil, false
	}
	return reg.factory, true
}

// OwnersOf returns the owner types a behaviour type is bound to.
func (r *Registry[ID]) OwnersOf(ty model.TypeID) []model.TypeID {
	reg, _ := r.byBehaviour.get(ty)
	return model.SortTypeIDs(slices.Clone(reg.owners))
}

// BehaviourTypes returns every registered behaviour type, sorted.
func (r *Registry[ID]) BehaviourTypes() []model.TypeID {
	var out []model.TypeID
	r.byBehaviour.each(func(ty model.TypeID, _ registration[ID]) {
		out = append(out, ty)
	})
	return model.SortTypeIDs(out)
}

// OwnerTypes returns every owner type with at least one factory, sorted.
func (r *Registry[ID]) OwnerTypes() []model.TypeID {
	var out []model.TypeID
	r.byOwner.each(func(ty model.TypeID, _ []Factory[ID]) {
		out = append(out, ty)
	})
	return model.SortTypeIDs(out)
}
