package behaviour

import (
	"fmt"
	"slices"

	"github.com/roach88/rgraph/internal/model"
	"github.com/roach88/rgraph/internal/reactive"
)

// Storage holds the live behaviours, keyed by instance id and behaviour type.
//
// Every removal path closes the behaviour, which disconnects it, before the
// entry leaves the store.
type Storage[ID comparable] struct {
	entries *shardedMap[ID, map[model.TypeID]*Behaviour[ID]]

	compare      func(a, b ID) int
	onCloseError func(id ID, ty model.TypeID, err error)
}

// StorageOption configures a Storage.
type StorageOption[ID comparable] func(*Storage[ID])

// WithIDOrder makes listings that return instance ids deterministic.
func WithIDOrder[ID comparable](compare func(a, b ID) int) StorageOption[ID] {
	return func(s *Storage[ID]) {
		s.compare = compare
	}
}

// WithCloseErrorHandler receives disconnect failures that happen while a
// behaviour is being removed. The behaviour is removed regardless and the
// instance's marker for the type is cleared.
func WithCloseErrorHandler[ID comparable](fn func(id ID, ty model.TypeID, err error)) StorageOption[ID] {
	return func(s *Storage[ID]) {
		s.onCloseError = fn
	}
}

// NewStorage creates an empty store.
func NewStorage[ID comparable](opts ...StorageOption[ID]) *Storage[ID] {
	s := &Storage[ID]{
		entries: newShardedMap[ID, map[model.TypeID]*Behaviour[ID]](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert stores b. It fails if a behaviour of the same type is already
// stored or reserved for the instance; the caller still owns b in that case.
func (s *Storage[ID]) Insert(id ID, ty model.TypeID, b *Behaviour[ID]) error {
	if err := s.Reserve(id, ty); err != nil {
		return err
	}
	s.Commit(id, ty, b)
	return nil
}

// Reserve claims the slot of type ty on instance id before a behaviour for
// it is built. A reserved slot is invisible to lookups and listings, and
// further Reserve or Insert calls for it fail until Commit or Release.
func (s *Storage[ID]) Reserve(id ID, ty model.TypeID) error {
	var err error
	s.entries.update(id, func(byType map[model.TypeID]*Behaviour[ID], ok bool) (map[model.TypeID]*Behaviour[ID], bool) {
		if _, exists := byType[ty]; exists {
			err = fmt.Errorf("%w: %s on %v", ErrAlreadyApplied, ty, id)
			return byType, ok
		}
		return withEntry(byType, ty, nil), true
	})
	return err
}

// Commit fills a slot claimed by Reserve.
func (s *Storage[ID]) Commit(id ID, ty model.TypeID, b *Behaviour[ID]) {
	s.entries.update(id, func(byType map[model.TypeID]*Behaviour[ID], _ bool) (map[model.TypeID]*Behaviour[ID], bool) {
		return withEntry(byType, ty, b), true
	})
}

// Release frees a slot claimed by Reserve that was never committed.
func (s *Storage[ID]) Release(id ID, ty model.TypeID) {
	s.entries.update(id, func(byType map[model.TypeID]*Behaviour[ID], ok bool) (map[model.TypeID]*Behaviour[ID], bool) {
		if b, exists := byType[ty]; !exists || b != nil {
			return byType, ok
		}
		next := withoutEntry(byType, ty)
		return next, len(next) > 0
	})
}

// Get returns the behaviour of type ty on instance id.
func (s *Storage[ID]) Get(id ID, ty model.TypeID) (*Behaviour[ID], bool) {
	byType, _ := s.entries.get(id)
	b := byType[ty]
	return b, b != nil
}

// Has reports whether the instance has a stored behaviour of type ty.
func (s *Storage[ID]) Has(id ID, ty model.TypeID) bool {
	_, ok := s.Get(id, ty)
	return ok
}

// Remove closes and removes the behaviour of type ty on instance id.
func (s *Storage[ID]) Remove(id ID, ty model.TypeID) (*Behaviour[ID], bool) {
	b, ok := s.Get(id, ty)
	if !ok {
		return nil, false
	}
	s.close(id, b)
	s.drop(id, ty, b)
	return b, true
}

// RemoveAll closes and removes every behaviour of one instance and returns
// their types.
func (s *Storage[ID]) RemoveAll(id ID) []model.TypeID {
	byType, ok := s.entries.get(id)
	if !ok {
		return nil
	}
	tys := liveTypes(byType)
	for _, ty := range tys {
		b := byType[ty]
		s.close(id, b)
		s.drop(id, ty, b)
	}
	return tys
}

// RemoveByBehaviour closes and removes every behaviour of type ty across
// all instances and returns the affected instance ids.
func (s *Storage[ID]) RemoveByBehaviour(ty model.TypeID) []ID {
	ids := s.idsByBehaviour(ty)
	for _, id := range ids {
		s.Remove(id, ty)
	}
	return ids
}

// BehavioursByInstance returns the behaviour types stored for an instance, sorted.
func (s *Storage[ID]) BehavioursByInstance(id ID) []model.TypeID {
	byType, _ := s.entries.get(id)
	return liveTypes(byType)
}

// InstancesByBehaviour returns the instances that have a stored behaviour
// of type ty.
func (s *Storage[ID]) InstancesByBehaviour(ty model.TypeID) []reactive.Instance[ID] {
	var out []reactive.Instance[ID]
	for _, id := range s.idsByBehaviour(ty) {
		if b, ok := s.Get(id, ty); ok {
			out = append(out, b.Instance())
		}
	}
	return out
}

// Len returns the number of stored behaviours.
func (s *Storage[ID]) Len() int {
	n := 0
	s.entries.each(func(_ ID, byType map[model.TypeID]*Behaviour[ID]) {
		n += len(liveTypes(byType))
	})
	return n
}

func (s *Storage[ID]) idsByBehaviour(ty model.TypeID) []ID {
	var ids []ID
	s.entries.each(func(id ID, byType map[model.TypeID]*Behaviour[ID]) {
		if byType[ty] != nil {
			ids = append(ids, id)
		}
	})
	if s.compare != nil {
		slices.SortFunc(ids, s.compare)
	}
	return ids
}

func (s *Storage[ID]) close(id ID, b *Behaviour[ID]) {
	if err := b.Close(); err != nil && s.onCloseError != nil {
		s.onCloseError(id, b.Type(), err)
	}
}

// drop deletes the entry if it still holds b. A concurrent Insert after a
// concurrent Remove may have replaced it.
func (s *Storage[ID]) drop(id ID, ty model.TypeID, b *Behaviour[ID]) {
	s.entries.update(id, func(byType map[model.TypeID]*Behaviour[ID], ok bool) (map[model.TypeID]*Behaviour[ID], bool) {
		if !ok || byType[ty] != b {
			return byType, ok
		}
		next := withoutEntry(byType, ty)
		return next, len(next) > 0
	})
}

// withEntry and withoutEntry copy, so maps handed out by get stay immutable.
func withEntry[ID comparable](byType map[model.TypeID]*Behaviour[ID], ty model.TypeID, b *Behaviour[ID]) map[model.TypeID]*Behaviour[ID] {
	next := make(map[model.TypeID]*Behaviour[ID], len(byType)+1)
	for k, v := range byType {
		next[k] = v
	}
	next[ty] = b
	return next
}

func withoutEntry[ID comparable](byType map[model.TypeID]*Behaviour[ID], ty model.TypeID) map[model.TypeID]*Behaviour[ID] {
	next := make(map[model.TypeID]*Behaviour[ID], len(byType))
	for k, v := range byType {
		if k != ty {
			next[k] = v
		}
	}
	return next
}

// liveTypes returns the committed behaviour types, skipping reservations.
func liveTypes[ID comparable](byType map[model.TypeID]*Behaviour[ID]) []model.TypeID {
	live := make(map[model.TypeID]struct{}, len(byType))
	for ty, b := range byType {
		if b != nil {
			live[ty] = struct{}{}
		}
	}
	return sortedTypes(live)
}

func sortedTypes[V any](m map[model.TypeID]V) []model.TypeID {
	if len(m) == 0 {
		return nil
	}
	out := make([]model.TypeID, 0, len(m))
	for ty := range m {
		out = append(out, ty)
	}
	return model.SortTypeIDs(out)
}
