package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/tsz/tsz/tszval"
)

type spyMetricManager struct {
	deleted []string
}

func (s *spyMetricManager) DeleteMetricInternal(name string) {
	s.deleted = append(s.deleted, name)
}

func TestMetricSetValueCreatesAndUpdatesCell(t *testing.T) {
	mgr := &spyMetricManager{}
	m := NewMetric(mgr, "/foo/bar", tszval.NewMetricConfig(tszval.ValueInt, tszval.Options{}))

	fields := tszval.NewFieldMap([]string{"k"}, []tszval.FieldValue{tszval.IntField(1)})
	now := time.Now()
	ctx := NewThrowAwayMetricContext(m, now)
	m.SetValue(ctx, fields, tszval.IntValue(42))

	v, err := m.GetValue(fields)
	require.NoError(t, err)
	got, _ := v.Int()
	require.Equal(t, int64(42), got)
}

func TestMetricGetValueNotFound(t *testing.T) {
	mgr := &spyMetricManager{}
	m := NewMetric(mgr, "/foo/bar", tszval.NewMetricConfig(tszval.ValueInt, tszval.Options{}))
	_, err := m.GetValue(tszval.EmptyFieldMap())
	require.Error(t, err)
}

func TestMetricAddToIntAccumulates(t *testing.T) {
	mgr := &spyMetricManager{}
	m := NewMetric(mgr, "/c/n", tszval.NewMetricConfig(tszval.ValueInt, tszval.Options{Cumulative: true}))
	fields := tszval.EmptyFieldMap()
	now := time.Now()

	m.AddToInt(NewThrowAwayMetricContext(m, now), fields, 12)
	m.AddToInt(NewThrowAwayMetricContext(m, now), fields, 34)

	v, err := m.GetValue(fields)
	require.NoError(t, err)
	got, _ := v.Int()
	require.Equal(t, int64(46), got)
}

func TestMetricResetIfCumulative(t *testing.T) {
	mgr := &spyMetricManager{}
	cfg := tszval.NewMetricConfig(tszval.ValueInt, tszval.Options{Cumulative: true})
	m := NewMetric(mgr, "/c/n", cfg)
	fields := tszval.EmptyFieldMap()
	start := time.Now()
	m.AddToInt(NewThrowAwayMetricContext(m, start), fields, 46)

	resetAt := start.Add(time.Minute)
	did := m.ResetIfCumulative(resetAt)
	require.True(t, did)

	v, err := m.GetValue(fields)
	require.NoError(t, err)
	got, _ := v.Int()
	require.Equal(t, int64(0), got)
}

func TestMetricResetIfCumulativeNoOpWhenNotCumulative(t *testing.T) {
	mgr := &spyMetricManager{}
	m := NewMetric(mgr, "/g/x", tszval.NewMetricConfig(tszval.ValueInt, tszval.Options{}))
	require.False(t, m.ResetIfCumulative(time.Now()))
}

func TestMetricAutoCollectionAfterThrowAwayContextDeletesLastCell(t *testing.T) {
	mgr := &spyMetricManager{}
	m := NewMetric(mgr, "/a/b", tszval.NewMetricConfig(tszval.ValueInt, tszval.Options{}))
	fields := tszval.EmptyFieldMap()
	now := time.Now()

	m.SetValue(NewThrowAwayMetricContext(m, now), fields, tszval.IntValue(1))
	require.Empty(t, mgr.deleted, "a metric with a live cell must not be auto-collected")

	removed := m.DeleteValue(NewThrowAwayMetricContext(m, now), fields)
	require.True(t, removed)
	require.Equal(t, []string{"/a/b"}, mgr.deleted, "an unpinned, empty metric must notify its manager exactly once")
}

func TestMetricNotAutoCollectedWhileScopedContextHoldsAPin(t *testing.T) {
	mgr := &spyMetricManager{}
	m := NewMetric(mgr, "/a/b", tszval.NewMetricConfig(tszval.ValueInt, tszval.Options{}))
	fields := tszval.EmptyFieldMap()
	now := time.Now()

	scoped := NewScopedMetricContext(m, now)
	m.SetValue(scoped, fields, tszval.IntValue(1))
	m.DeleteValue(scoped, fields)
	require.Empty(t, mgr.deleted, "a scoped context's pin must keep the metric alive even with no cells")

	scoped.Release()
	require.Equal(t, []string{"/a/b"}, mgr.deleted, "releasing the last pin over an empty metric must auto-collect it")
}

func TestMetricPinCountUnderflowPanics(t *testing.T) {
	mgr := &spyMetricManager{}
	m := NewMetric(mgr, "/a/b", tszval.NewMetricConfig(tszval.ValueInt, tszval.Options{}))
	require.Panics(t, func() { m.Unpin() })
}

func TestMetricClearRemovesAllCells(t *testing.T) {
	mgr := &spyMetricManager{}
	m := NewMetric(mgr, "/a/b", tszval.NewMetricConfig(tszval.ValueInt, tszval.Options{}))
	now := time.Now()
	for i := 0; i < 5; i++ {
		fields := tszval.NewFieldMap([]string{"k"}, []tszval.FieldValue{tszval.IntField(int64(i))})
		m.SetValue(NewThrowAwayMetricContext(m, now), fields, tszval.IntValue(1))
	}
	scoped := NewScopedMetricContext(m, now)
	had := m.Clear(scoped)
	require.True(t, had)
	scoped.Release()
	require.Equal(t, []string{"/a/b"}, mgr.deleted)
}

func TestMetricAddToDistributionCreatesCellWithConfiguredBucketer(t *testing.T) {
	mgr := &spyMetricManager{}
	bucketer := tszval.PowersOfBucketer(2)
	cfg := tszval.NewMetricConfig(tszval.ValueDistribution, tszval.Options{Bucketer: bucketer})
	m := NewMetric(mgr, "/e/m", cfg)
	fields := tszval.EmptyFieldMap()
	now := time.Now()

	m.AddToDistribution(NewThrowAwayMetricContext(m, now), fields, 1, 1)
	m.AddToDistribution(NewThrowAwayMetricContext(m, now), fields, 1, 1)
	m.AddToDistribution(NewThrowAwayMetricContext(m, now), fields, 3, 1)

	v, err := m.GetValue(fields)
	require.NoError(t, err)
	dist, ok := v.Distribution()
	require.True(t, ok)
	require.Equal(t, uint64(3), dist.Count())
	require.Equal(t, 5.0, dist.Sum())
	require.True(t, dist.Bucketer().Equal(bucketer))
}
