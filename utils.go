package jsonplot

import (
	"golang.org/x/exp/constraints"
)

type Number interface {
	constraints.Float | constraints.Integer
}

func Filter[T any](slice []T, predicate func(T) bool) []T {
	filtered := make([]T, 0, len(slice))
	for _, elem := range slice {
		if predicate(elem) {
			filtered = append(filtered, elem)
		}
	}
	return filtered
}

// Ring keeps the most recent `capacity` items pushed into it. It is not safe
// for concurrent use; the gallery broadcaster guards it with its own mutex.
type Ring[T any] struct {
	items []T
	next  int
	full  bool
}

func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

func (r *Ring[T]) Push(item T) {
	r.items[r.next] = item
	r.next++
	if r.next == len(r.items) {
		r.next = 0
		r.full = true
	}
}

func (r *Ring[T]) Len() int {
	if r.full {
		return len(r.items)
	}
	return r.next
}

// ReadAllOrdered returns the stored items, oldest first.
func (r *Ring[T]) ReadAllOrdered() []T {
	if !r.full {
		ordered := make([]T, r.next)
		copy(ordered, r.items[:r.next])
		return ordered
	}

	ordered := make([]T, 0, len(r.items))
	ordered = append(ordered, r.items[r.next:]...)
	ordered = append(ordered, r.items[:r.next]...)
	return ordered
}
