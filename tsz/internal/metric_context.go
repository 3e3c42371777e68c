package internal

import "time"

// ScopedMetricContext pins a metric for the lifetime of a longer-lived
// handle (spec.md §4.E: "a caller that intends to perform many mutations
// against the same metric may pin it once up front"). The pin is released
// exactly once by Release; mutations performed through a ScopedMetricContext
// never auto-unpin.
type ScopedMetricContext struct {
	metric *Metric
	now    time.Time
	closed bool
}

// NewScopedMetricContext pins metric and returns a context stamped with
// now for every mutation performed through it until Release.
func NewScopedMetricContext(metric *Metric, now time.Time) *ScopedMetricContext {
	metric.Pin()
	return &ScopedMetricContext{metric: metric, now: now}
}

// Time returns the timestamp this context stamps mutations with.
func (c *ScopedMetricContext) Time() time.Time { return c.now }

func (c *ScopedMetricContext) autoUnpin() bool { return false }

// Release drops the context's pin. Only the first call unpins; later calls
// are no-ops.
func (c *ScopedMetricContext) Release() {
	if c.closed {
		return
	}
	c.closed = true
	c.metric.Unpin()
}

// ThrowAwayMetricContext pins a metric for exactly one mutation and
// auto-unpins as part of that same mutation's locked critical section, so
// a metric with no other referents is collected immediately after a
// single write (spec.md §4.E "fire and forget").
type ThrowAwayMetricContext struct {
	now time.Time
}

// NewThrowAwayMetricContext pins metric and returns a one-shot context
// stamped with now. The caller must use it for exactly one Metric mutation.
func NewThrowAwayMetricContext(metric *Metric, now time.Time) *ThrowAwayMetricContext {
	metric.Pin()
	return &ThrowAwayMetricContext{now: now}
}

// Time returns the timestamp this context stamps its one mutation with.
func (c *ThrowAwayMetricContext) Time() time.Time { return c.now }

func (c *ThrowAwayMetricContext) autoUnpin() bool { return true }
