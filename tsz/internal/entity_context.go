package internal

// ScopedEntityContext pins an entity for the lifetime of a longer-lived
// handle, mirroring ScopedMetricContext one level up. The pin is released
// exactly once by Release.
type ScopedEntityContext struct {
	entity *Entity
	closed bool
}

// NewScopedEntityContext pins entity and returns a context that releases
// that pin on Release.
func NewScopedEntityContext(entity *Entity) *ScopedEntityContext {
	entity.Pin()
	return &ScopedEntityContext{entity: entity}
}

// Entity returns the pinned entity.
func (c *ScopedEntityContext) Entity() *Entity { return c.entity }

// Release drops the context's pin. Only the first call unpins; later calls
// are no-ops.
func (c *ScopedEntityContext) Release() {
	if c.closed {
		return
	}
	c.closed = true
	c.entity.Unpin()
}

// ThrowAwayEntityContext pins an entity just long enough to resolve one
// metric lookup/creation against it, then immediately unpins, mirroring
// ThrowAwayMetricContext one level up (spec.md §4.E/§4.F "fire and
// forget"). Unlike the metric case, the entity's auto-collection check
// does not need to share a critical section with a value mutation — only
// with its own metric set, which Entity.Unpin already locks — so a plain
// deferred Unpin is race-free here.
type ThrowAwayEntityContext struct {
	entity *Entity
}

// NewThrowAwayEntityContext pins entity and returns a context that must be
// released by exactly one call to Release.
func NewThrowAwayEntityContext(entity *Entity) *ThrowAwayEntityContext {
	entity.Pin()
	return &ThrowAwayEntityContext{entity: entity}
}

// Entity returns the pinned entity.
func (c *ThrowAwayEntityContext) Entity() *Entity { return c.entity }

// Release drops the context's pin.
func (c *ThrowAwayEntityContext) Release() { c.entity.Unpin() }
