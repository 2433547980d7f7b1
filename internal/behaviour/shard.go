package behaviour

import (
	"hash/maphash"
	"sync"
)

const shardCount = 32

// shardedMap spreads keys over independently locked shards.
type shardedMap[K comparable, V any] struct {
	seed   maphash.Seed
	shards [shardCount]shard[K, V]
}

type shard[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

func newShardedMap[K comparable, V any]() *shardedMap[K, V] {
	sm := &shardedMap[K, V]{seed: maphash.MakeSeed()}
	for i := range sm.shards {
		sm.shards[i].m = make(map[K]V)
	}
	return sm
}

func (sm *shardedMap[K, V]) shardFor(k K) *shard[K, V] {
	return &sm.shards[maphash.Comparable(sm.seed, k)%shardCount]
}

func (sm *shardedMap[K, V]) get(k K) (V, bool) {
	s := sm.shardFor(k)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[k]
	return v, ok
}

// update runs fn under the key's shard lock. fn receives the current value
// and returns the new one; keep=false deletes the key.
func (sm *shardedMap[K, V]) update(k K, fn func(v V, ok bool) (next V, keep bool)) {
	s := sm.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.m[k]
	next, keep := fn(cur, ok)
	if keep {
		s.m[k] = next
	} else {
		delete(s.m, k)
	}
}

func (sm *shardedMap[K, V]) remove(k K) (V, bool) {
	s := sm.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[k]
	delete(s.m, k)
	return v, ok
}

// each visits a snapshot of every shard in turn. fn runs without locks held.
func (sm *shardedMap[K, V]) each(fn func(k K, v V)) {
	for i := range sm.shards {
		s := &sm.shards[i]
		s.mu.RLock()
		keys := make([]K, 0, len(s.m))
		vals := make([]V, 0, len(s.m))
		for k, v := range s.m {
			keys = append(keys, k)
			vals = append(vals, v)
		}
		s.mu.RUnlock()
		for j := range keys {
			fn(keys[j], vals[j])
		}
	}
}

func (sm *shardedMap[K, V]) reset() {
	for i := range sm.shards {
		s := &sm.shards[i]
		s.mu.Lock()
		clear(s.m)
		s.mu.Unlock()
	}
}

func (sm *shardedMap[K, V]) size() int {
	n := 0
	for i := range sm.shards {
		s := &sm.shards[i]
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}
