package internal

import (
	"sync"
	"sync/atomic"

	"github.com/aaronlmathis/tsz/tsz/tszval"
)

// EntityManager is implemented by a shard so an Entity can ask to be
// dropped once it becomes empty and unpinned, mirroring MetricManager one
// level up (spec.md §4.F "Auto-collection").
type EntityManager interface {
	DeleteEntityInternal(fields tszval.FieldMap)
}

// Entity holds the set of metrics recorded against one label tuple inside
// a shard. An Entity is itself a MetricManager: when one of its metrics
// becomes empty and unpinned, the entity removes it, and if that leaves
// the entity itself empty and unpinned, the entity asks its shard to drop
// it in turn.
type Entity struct {
	manager EntityManager
	fields  tszval.FieldMap
	hash    uint64

	pinCount atomic.Int64

	mu      sync.RWMutex
	metrics hashIndex[*Metric]
}

// NewEntity constructs an entity owned by manager, identified by fields
// (whose hash the caller supplies, typically from a FieldMapView computed
// once at the call site).
func NewEntity(manager EntityManager, fields tszval.FieldMap, hash uint64) *Entity {
	return &Entity{manager: manager, fields: fields, hash: hash, metrics: newHashIndex[*Metric]()}
}

// Fields returns the entity's immutable label map.
func (e *Entity) Fields() *tszval.FieldMap { return &e.fields }

// Hash returns the cached hash of Fields().
func (e *Entity) Hash() uint64 { return e.hash }

// Pin increments the pin count, keeping the entity alive even if its last
// metric is removed.
func (e *Entity) Pin() { e.pinCount.Add(1) }

// Unpin decrements the pin count and, if the entity is now both unpinned
// and empty, notifies the manager so it can be dropped.
func (e *Entity) Unpin() {
	e.mu.Lock()
	empty := e.unpinLocked()
	e.mu.Unlock()
	if empty {
		e.manager.DeleteEntityInternal(e.fields)
	}
}

func (e *Entity) unpinLocked() bool {
	left := e.pinCount.Add(-1)
	if left < 0 {
		panic("tsz: entity pin count underflow")
	}
	return left == 0 && e.metrics.Len() == 0
}

// GetMetric returns the (unpinned) metric named name, if one exists. It is
// meant for ephemeral, non-mutating reads (spec.md Supplemented Features
// "GetEphemeralMetric"): the returned pointer is only valid while the
// caller can be sure no concurrent DeleteMetric/auto-collection runs,
// which read-only callers get by holding the entity's read lock for the
// duration of their use, not by retaining the pointer.
func (e *Entity) GetMetric(name string) (*Metric, bool) {
	h := fnvString(name)
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.metrics.Find(h, func(m *Metric) bool { return m.Name() == name })
}

// GetOrCreateMetric returns the existing metric named name, or creates one
// using config. It does not pin the metric; pinning is the caller's job,
// typically done by wrapping the returned metric in a ScopedMetricContext
// or ThrowAwayMetricContext.
func (e *Entity) GetOrCreateMetric(name string, config tszval.MetricConfig) *Metric {
	h := fnvString(name)
	e.mu.Lock()
	defer e.mu.Unlock()
	metric, ok := e.metrics.Find(h, func(m *Metric) bool { return m.Name() == name })
	if !ok {
		metric = NewMetric(e, name, config)
		e.metrics.Insert(h, metric)
	}
	return metric
}

// DeleteMetric removes the metric named name outright, regardless of its
// own pin state, returning whether one existed. Used by Shard.DeleteMetric's
// cross-entity sweep and by the cell-reader test surface's Close. Like
// DeleteMetricInternal, this runs the entity's own auto-collection check
// in the same critical section as the removal: an entity left with no
// metrics and no outstanding pin of its own is reported to the manager so
// it can be dropped too.
func (e *Entity) DeleteMetric(name string) bool {
	h := fnvString(name)
	e.mu.Lock()
	removed := e.metrics.Delete(h, func(m *Metric) bool { return m.Name() == name })
	empty := removed && e.pinCount.Load() == 0 && e.metrics.Len() == 0
	e.mu.Unlock()
	if empty {
		e.manager.DeleteEntityInternal(e.fields)
	}
	return removed
}

// DeleteMetricInternal implements MetricManager: it is called by a Metric
// that has just become empty and unpinned, asking this entity to drop it.
func (e *Entity) DeleteMetricInternal(name string) {
	h := fnvString(name)
	e.mu.Lock()
	e.metrics.Delete(h, func(m *Metric) bool { return m.Name() == name })
	empty := e.pinCount.Load() == 0 && e.metrics.Len() == 0
	e.mu.Unlock()
	if empty {
		e.manager.DeleteEntityInternal(e.fields)
	}
}

// MetricCount returns the number of metrics currently recorded for this
// entity.
func (e *Entity) MetricCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.metrics.Len()
}

// ForEachMetric calls fn for every metric currently recorded, in
// unspecified order, while holding the entity's read lock.
func (e *Entity) ForEachMetric(fn func(*Metric)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	e.metrics.ForEach(fn)
}
