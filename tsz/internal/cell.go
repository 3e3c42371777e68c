package internal

import (
	"time"

	"github.com/aaronlmathis/tsz/tsz/tszval"
)

// Cell is one live value bound to a metric-field tuple. It is not
// thread-safe by itself; callers must hold the owning Metric's mutex
// before touching a Cell (spec.md §4.D: "No cell operation takes a lock;
// locking is the metric's responsibility").
type Cell struct {
	fields         tszval.FieldMap
	hash           uint64
	value          tszval.Value
	startTime      time.Time
	lastUpdateTime time.Time
}

// NewCell creates a cell bound to fields (whose hash must already be
// known, typically from a FieldMapView computed once by the caller) with
// the given initial value, stamping both timestamps with now.
func NewCell(fields tszval.FieldMap, hash uint64, value tszval.Value, now time.Time) *Cell {
	return &Cell{fields: fields, hash: hash, value: value, startTime: now, lastUpdateTime: now}
}

// Fields returns the cell's immutable field map.
func (c *Cell) Fields() *tszval.FieldMap { return &c.fields }

// Hash returns the cached hash of Fields().
func (c *Cell) Hash() uint64 { return c.hash }

// Value returns a snapshot of the cell's current value. Distribution-typed
// values are cloned so a caller holding the returned snapshot is unaffected
// by subsequent mutation of this cell (tszval.Value.Clone).
func (c *Cell) Value() tszval.Value { return c.value.Clone() }

// StartTime returns when the cell was created (or last Reset).
func (c *Cell) StartTime() time.Time { return c.startTime }

// LastUpdateTime returns the timestamp of the most recent mutation.
func (c *Cell) LastUpdateTime() time.Time { return c.lastUpdateTime }

// SetValue replaces the cell's value (same variant) and bumps
// LastUpdateTime to now.
func (c *Cell) SetValue(value tszval.Value, now time.Time) {
	c.value = value
	c.lastUpdateTime = now
}

// AddToInt adds delta (with wrap-around, matching Go's native int64
// overflow semantics) to an integer-variant cell's value.
func (c *Cell) AddToInt(delta int64, now time.Time) {
	i, ok := c.value.Int()
	if !ok {
		panic("tsz: AddToInt on a non-integer cell")
	}
	c.value = tszval.IntValue(i + delta)
	c.lastUpdateTime = now
}

// AddToDistribution records sample, times times, into a
// distribution-variant cell's value.
func (c *Cell) AddToDistribution(sample float64, times uint64, now time.Time) {
	dist, ok := c.value.Distribution()
	if !ok {
		panic("tsz: AddToDistribution on a non-distribution cell")
	}
	dist.RecordMany(sample, times)
	c.lastUpdateTime = now
}

// Reset zeros the cell's value in-variant and sets both timestamps to t.
func (c *Cell) Reset(t time.Time) {
	c.value = c.value.ZeroOf()
	c.startTime = t
	c.lastUpdateTime = t
}
