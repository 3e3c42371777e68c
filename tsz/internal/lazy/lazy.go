// Package lazy provides a thread-safe, lazily-constructed singleton cell,
// the Go translation of the teacher corpus's once-init singleton idiom
// (grounded on common/lazy.h in the original implementation this package's
// owner was distilled from). Once constructed, reads only pay for one
// atomic load with acquire semantics; the mutex is only ever taken on the
// (at most once) construction path.
package lazy

import (
	"sync"
	"sync/atomic"
)

// Cell wraps a value of type T that is constructed on first access by
// calling factory exactly once, no matter how many goroutines race to
// access it concurrently.
type Cell[T any] struct {
	once    sync.Once
	value   T
	built   atomic.Bool
	factory func() T
}

// New returns a Cell that will call factory on first access.
func New[T any](factory func() T) *Cell[T] {
	return &Cell[T]{factory: factory}
}

// Get returns the wrapped value, constructing it on the first call.
func (c *Cell[T]) Get() T {
	c.once.Do(func() {
		c.value = c.factory()
		c.built.Store(true)
	})
	return c.value
}

// Constructed reports whether the value has been built yet. The result is
// merely advisory: by the time it returns, any number of concurrent Get
// calls may have triggered construction.
func (c *Cell[T]) Constructed() bool {
	return c.built.Load()
}
