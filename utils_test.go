package jsonplot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	t.Run("empty slice", func(t *testing.T) {
		var input []int
		got := Filter(input, func(int) bool { return true })
		assert.Equal(t, []int{}, got)
	})

	t.Run("no matches", func(t *testing.T) {
		got := Filter([]int{1, 2, 3}, func(x int) bool { return x > 10 })
		assert.Equal(t, []int{}, got)
	})

	t.Run("partial match", func(t *testing.T) {
		got := Filter([]int{1, 2, 3}, func(x int) bool { return x%2 == 1 })
		assert.Equal(t, []int{1, 3}, got)
	})
}

func TestRing(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		r := NewRing[int](3)
		assert.Equal(t, 0, r.Len())
		assert.Equal(t, []int{}, r.ReadAllOrdered())
	})

	t.Run("partial fill preserves order", func(t *testing.T) {
		r := NewRing[int](3)
		r.Push(10)
		r.Push(20)
		assert.Equal(t, 2, r.Len())
		assert.Equal(t, []int{10, 20}, r.ReadAllOrdered())
	})

	t.Run("exact capacity", func(t *testing.T) {
		r := NewRing[int](3)
		for i := 1; i <= 3; i++ {
			r.Push(i)
		}
		assert.Equal(t, []int{1, 2, 3}, r.ReadAllOrdered())
	})

	t.Run("overwrite keeps most recent", func(t *testing.T) {
		r := NewRing[int](3)
		for i := 1; i <= 7; i++ {
			r.Push(i)
		}
		assert.Equal(t, 3, r.Len())
		assert.Equal(t, []int{5, 6, 7}, r.ReadAllOrdered())
	})

	t.Run("capacity is at least one", func(t *testing.T) {
		r := NewRing[string](0)
		r.Push("a")
		r.Push("b")
		assert.Equal(t, []string{"b"}, r.ReadAllOrdered())
	})
}
