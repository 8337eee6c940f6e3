package model

import (
	"iter"
	"slices"
)

// Store is an id-keyed entity collection. Lookups are map-backed; iteration
// is in ascending id order.
type Store[K ~int, V any] struct {
	items map[K]V
}

func newStore[K ~int, V any]() *Store[K, V] {
	return &Store[K, V]{items: make(map[K]V)}
}

// Get returns the entity with the given id.
func (s *Store[K, V]) Get(id K) (V, bool) {
	v, ok := s.items[id]
	return v, ok
}

// Has reports whether an entity with the given id exists.
func (s *Store[K, V]) Has(id K) bool {
	_, ok := s.items[id]
	return ok
}

// put adds v under id, replacing any previous entity with that id.
func (s *Store[K, V]) put(id K, v V) {
	s.items[id] = v
}

func (s *Store[K, V]) remove(id K) bool {
	_, ok := s.items[id]
	delete(s.items, id)
	return ok
}

// Len returns the number of entities.
func (s *Store[K, V]) Len() int { return len(s.items) }

// IDs returns all ids in ascending order.
func (s *Store[K, V]) IDs() []K {
	ids := make([]K, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Max returns the highest id, or zero for an empty store.
func (s *Store[K, V]) Max() K {
	var hi K
	for id := range s.items {
		if id > hi {
			hi = id
		}
	}
	return hi
}

// All iterates the entities in ascending id order.
func (s *Store[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, id := range s.IDs() {
			if !yield(id, s.items[id]) {
				return
			}
		}
	}
}
