package game

import (
	"slices"

	"TrenchGame/internal/battle/entity"
)

// Registry keeps entities keyed by id and iterates them in insertion order,
// which is ascending id order because ids only grow.
type Registry[T any] struct {
	order []entity.ID
	items map[entity.ID]T
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{items: make(map[entity.ID]T)}
}

func (r *Registry[T]) Add(id entity.ID, v T) {
	if _, ok := r.items[id]; ok {
		r.items[id] = v
		return
	}
	r.order = append(r.order, id)
	r.items[id] = v
}

func (r *Registry[T]) Get(id entity.ID) (T, bool) {
	v, ok := r.items[id]
	return v, ok
}

func (r *Registry[T]) Remove(id entity.ID) bool {
	if _, ok := r.items[id]; !ok {
		return false
	}
	delete(r.items, id)
	r.order = slices.DeleteFunc(r.order, func(x entity.ID) bool { return x == id })
	return true
}

func (r *Registry[T]) Len() int { return len(r.items) }

// All returns the entities in id order. The slice is a fresh copy.
func (r *Registry[T]) All() []T {
	out := make([]T, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out
}
