// Package tsztest provides the read-only test surface for tsz metrics
// (spec.md Supplemented Features "CellReader test surface", grounded on
// the original implementation's tsz/cell_reader.h). Unlike the hot write
// path, which drops and rate-limit-logs any error, CellReader surfaces
// tszerr.NotFound / tszerr.FailedPrecondition as real errors so tests can
// assert on them directly.
package tsztest

import (
	"fmt"
	"sync"

	"github.com/aaronlmathis/tsz/tsz"
	"github.com/aaronlmathis/tsz/tsz/internal"
	"github.com/aaronlmathis/tsz/tsz/tszerr"
)

// CellReaderOptions configures a CellReader.
type CellReaderOptions struct {
	// ClearMetricOnClose deletes every cell of the reader's metric, across
	// every entity, when Close is called. This keeps one test's recorded
	// values from leaking into the next, since the store is process-wide
	// global state. Defaults to true; set false to inspect state a
	// previous test left behind.
	ClearMetricOnClose bool
}

// CellReader reads arbitrary cells of one metric by name, bypassing the
// silent-drop semantics of the ordinary write path. It is the standard way
// to assert on tsz metric values from tests.
type CellReader struct {
	metricName string
	clearOnClose bool

	mu       sync.Mutex
	snapshot map[string]int64 // entity+field key -> last-observed int value, for Delta
}

// NewCellReader returns a reader bound to metricName. Pass no options to
// get the default behaviour (clear the metric on Close).
func NewCellReader(metricName string, opts ...CellReaderOptions) *CellReader {
	clear := true
	if len(opts) > 0 {
		clear = opts[0].ClearMetricOnClose
	}
	return &CellReader{metricName: metricName, clearOnClose: clear, snapshot: make(map[string]int64)}
}

func (r *CellReader) shard() (*internal.Shard, bool) {
	return internal.GlobalExporter().GetShardForMetric(r.metricName)
}

// Read returns the value recorded for the given entity labels and metric
// fields, or tszerr.FailedPrecondition if the metric was never defined, or
// tszerr.NotFound if no cell has been recorded for that key yet.
func (r *CellReader) Read(entityLabels, fields tsz.FieldMap) (tsz.Value, error) {
	shard, ok := r.shard()
	if !ok {
		return tsz.Value{}, tszerr.FailedPrecondition("metric %q is not defined", r.metricName)
	}
	view := tsz.NewFieldMapView(&entityLabels)
	return shard.GetValue(view, r.metricName, fields)
}

func cellKey(entityLabels, fields tsz.FieldMap) string {
	view := tsz.NewFieldMapView(&entityLabels)
	fview := tsz.NewFieldMapView(&fields)
	return fmt.Sprintf("%x:%x", view.Hash(), fview.Hash())
}

// Delta returns the change in an integer cell's value since the last call
// to Delta for the same (entityLabels, fields) key. The first call on a
// given key returns the cell's current absolute value (spec.md §8
// scenario 2: "First Delta returns 46").
func (r *CellReader) Delta(entityLabels, fields tsz.FieldMap) (int64, error) {
	v, err := r.Read(entityLabels, fields)
	if err != nil {
		return 0, err
	}
	current, ok := v.Int()
	if !ok {
		return 0, tszerr.FailedPrecondition("metric %q is not an integer metric", r.metricName)
	}
	key := cellKey(entityLabels, fields)
	r.mu.Lock()
	defer r.mu.Unlock()
	previous := r.snapshot[key]
	r.snapshot[key] = current
	return current - previous, nil
}

// DeltaOrZero is Delta with errors collapsed to zero, mirroring the
// original's DeltaOrZero convenience wrapper for call sites that only care
// about a best-effort count.
func (r *CellReader) DeltaOrZero(entityLabels, fields tsz.FieldMap) int64 {
	d, err := r.Delta(entityLabels, fields)
	if err != nil {
		return 0
	}
	return d
}

// Close deletes every recorded cell of the reader's metric across every
// entity, if ClearMetricOnClose was left at its default of true, so the
// next test starts from a clean slate.
func (r *CellReader) Close() error {
	if !r.clearOnClose {
		return nil
	}
	shard, ok := r.shard()
	if !ok {
		return nil
	}
	var entities []*internal.Entity
	shard.ForEachEntity(func(e *internal.Entity) { entities = append(entities, e) })
	for _, e := range entities {
		e.DeleteMetric(r.metricName)
	}
	return nil
}
