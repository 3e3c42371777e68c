package internal

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/aaronlmathis/tsz/tsz/tszerr"
	"github.com/aaronlmathis/tsz/tsz/tszval"
)

// MetricManager is implemented by a Metric's owning Entity so the metric
// can ask to be dropped once it becomes empty and unpinned (spec.md §4.E
// "Auto-collection").
type MetricManager interface {
	DeleteMetricInternal(name string)
}

// MetricContext is either a ScopedMetricContext or a ThrowAwayMetricContext
// (spec.md §4.E): a handle that supplies the wall-clock timestamp for a
// mutation and says whether the metric should auto-unpin itself once that
// mutation finishes.
type MetricContext interface {
	Time() time.Time
	// autoUnpin reports whether Metric should drop one pin and run the
	// auto-collection check as part of the same locked mutation. Scoped
	// contexts return false and unpin later, explicitly, via Release.
	autoUnpin() bool
}

// Metric holds the set of cells for one metric name inside one entity. All
// cell mutation is serialized by mu; cell reads take the same mutex in
// shared mode via Go's sync.RWMutex.
type Metric struct {
	manager MetricManager
	name    string
	hash    uint64
	config  tszval.MetricConfig

	pinCount atomic.Int64

	mu             sync.RWMutex
	cells          hashIndex[*Cell]
	lastUpdateTime time.Time
}

// NewMetric constructs a metric owned by manager.
func NewMetric(manager MetricManager, name string, config tszval.MetricConfig) *Metric {
	return &Metric{
		manager: manager,
		name:    name,
		hash:    fnvString(name),
		config:  config,
		cells:   newHashIndex[*Cell](),
	}
}

// Name returns the metric's name.
func (m *Metric) Name() string { return m.name }

// Hash returns the cached hash of Name().
func (m *Metric) Hash() uint64 { return m.hash }

// Config returns the metric's immutable declaration.
func (m *Metric) Config() *tszval.MetricConfig { return &m.config }

// LastUpdateTime returns the timestamp passed to the most recent
// SetValue/AddToInt/AddToDistribution call, or the zero Time if the metric
// has never been written to. Mirrors the teacher's LastSeen age-tracking
// on agents/containers, one level down at the metric.
func (m *Metric) LastUpdateTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastUpdateTime
}

// Pin increments the pin count, keeping the metric alive across lock
// boundaries even if its last cell is removed.
func (m *Metric) Pin() { m.pinCount.Add(1) }

// IsPinned reports whether the metric currently has an outstanding pin.
func (m *Metric) IsPinned() bool { return m.pinCount.Load() > 0 }

// Unpin decrements the pin count (used by ScopedMetricContext.Release,
// which unpins outside of any mutation) and, if the metric is now both
// unpinned and empty, notifies the manager so it can be dropped.
func (m *Metric) Unpin() {
	m.mu.Lock()
	empty := m.unpinLocked()
	m.mu.Unlock()
	if empty {
		m.manager.DeleteMetricInternal(m.name)
	}
}

func (m *Metric) unpinLocked() bool {
	left := m.pinCount.Add(-1)
	if left < 0 {
		panic("tsz: metric pin count underflow")
	}
	return left == 0 && m.cells.Len() == 0
}

// GetValue returns the value stored for fields, or NotFound.
func (m *Metric) GetValue(fields tszval.FieldMap) (tszval.Value, error) {
	view := tszval.NewFieldMapView(&fields)
	m.mu.RLock()
	defer m.mu.RUnlock()
	cell, ok := m.cells.Find(view.Hash(), func(c *Cell) bool { return view.Equal(*c.Fields()) })
	if !ok {
		return tszval.Value{}, tszerr.NotFound("value not found for metric %q", m.name)
	}
	return cell.Value(), nil
}

// finishLocked applies ctx's auto-unpin, if any, while mu is still held,
// and returns whether the caller should notify manager once mu is
// released. Keeping the unpin and the empty check inside the same
// critical section as the mutation is what makes a ThrowAwayMetricContext
// race-free: no other goroutine can observe the metric between "mutated"
// and "auto-collected".
func (m *Metric) finishLocked(ctx MetricContext) bool {
	if !ctx.autoUnpin() {
		return false
	}
	return m.unpinLocked()
}

// SetValue creates or updates the cell for fields with value.
func (m *Metric) SetValue(ctx MetricContext, fields tszval.FieldMap, value tszval.Value) {
	view := tszval.NewFieldMapView(&fields)
	m.mu.Lock()
	cell, ok := m.cells.Find(view.Hash(), func(c *Cell) bool { return view.Equal(*c.Fields()) })
	if ok {
		cell.SetValue(value, ctx.Time())
	} else {
		m.cells.Insert(view.Hash(), NewCell(fields, view.Hash(), value, ctx.Time()))
	}
	m.lastUpdateTime = ctx.Time()
	empty := m.finishLocked(ctx)
	m.mu.Unlock()
	if empty {
		m.manager.DeleteMetricInternal(m.name)
	}
}

// AddToInt creates (with initial value delta) or updates the integer cell
// for fields by adding delta.
func (m *Metric) AddToInt(ctx MetricContext, fields tszval.FieldMap, delta int64) {
	view := tszval.NewFieldMapView(&fields)
	m.mu.Lock()
	cell, ok := m.cells.Find(view.Hash(), func(c *Cell) bool { return view.Equal(*c.Fields()) })
	if ok {
		cell.AddToInt(delta, ctx.Time())
	} else {
		m.cells.Insert(view.Hash(), NewCell(fields, view.Hash(), tszval.IntValue(delta), ctx.Time()))
	}
	m.lastUpdateTime = ctx.Time()
	empty := m.finishLocked(ctx)
	m.mu.Unlock()
	if empty {
		m.manager.DeleteMetricInternal(m.name)
	}
}

// AddToDistribution creates (with the configured bucketer) or updates the
// distribution cell for fields, recording sample times times.
func (m *Metric) AddToDistribution(ctx MetricContext, fields tszval.FieldMap, sample float64, times uint64) {
	view := tszval.NewFieldMapView(&fields)
	m.mu.Lock()
	cell, ok := m.cells.Find(view.Hash(), func(c *Cell) bool { return view.Equal(*c.Fields()) })
	if !ok {
		cell = NewCell(fields, view.Hash(), tszval.DistributionValue(m.config.Bucketer), ctx.Time())
		m.cells.Insert(view.Hash(), cell)
	}
	cell.AddToDistribution(sample, times, ctx.Time())
	m.lastUpdateTime = ctx.Time()
	empty := m.finishLocked(ctx)
	m.mu.Unlock()
	if empty {
		m.manager.DeleteMetricInternal(m.name)
	}
}

// DeleteValue removes the cell for fields, returning whether one existed.
func (m *Metric) DeleteValue(ctx MetricContext, fields tszval.FieldMap) bool {
	view := tszval.NewFieldMapView(&fields)
	m.mu.Lock()
	removed := m.cells.Delete(view.Hash(), func(c *Cell) bool { return view.Equal(*c.Fields()) })
	empty := m.finishLocked(ctx)
	m.mu.Unlock()
	if empty {
		m.manager.DeleteMetricInternal(m.name)
	}
	return removed
}

// Clear removes every cell, returning whether any existed.
func (m *Metric) Clear(ctx MetricContext) bool {
	m.mu.Lock()
	n := m.cells.Clear()
	empty := m.finishLocked(ctx)
	m.mu.Unlock()
	if empty {
		m.manager.DeleteMetricInternal(m.name)
	}
	return n > 0
}

// ResetIfCumulative resets every cell to its zero value at t iff the
// metric's config is cumulative, returning whether it did so.
func (m *Metric) ResetIfCumulative(t time.Time) bool {
	if !m.config.Cumulative {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cells.ForEach(func(c *Cell) { c.Reset(t) })
	return true
}

func fnvString(s string) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}
