package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/tsz/tsz/tszval"
)

type spyEntityManager struct {
	deleted []tszval.FieldMap
}

func (s *spyEntityManager) DeleteEntityInternal(fields tszval.FieldMap) {
	s.deleted = append(s.deleted, fields)
}

func TestEntityGetOrCreateMetricIsIdempotent(t *testing.T) {
	mgr := &spyEntityManager{}
	e := NewEntity(mgr, tszval.EmptyFieldMap(), tszval.EmptyFieldMap().Hash())
	cfg := tszval.NewMetricConfig(tszval.ValueInt, tszval.Options{})

	a := e.GetOrCreateMetric("/foo/bar", cfg)
	b := e.GetOrCreateMetric("/foo/bar", cfg)
	require.Same(t, a, b)
	require.Equal(t, 1, e.MetricCount())
}

func TestEntityAutoCollectionWhenLastMetricDropped(t *testing.T) {
	mgr := &spyEntityManager{}
	fields := tszval.EmptyFieldMap()
	e := NewEntity(mgr, fields, fields.Hash())
	cfg := tszval.NewMetricConfig(tszval.ValueInt, tszval.Options{})
	now := time.Now()

	metric := e.GetOrCreateMetric("/foo/bar", cfg)
	ctx := NewThrowAwayMetricContext(metric, now)
	metric.SetValue(ctx, tszval.EmptyFieldMap(), tszval.IntValue(1))
	metric.DeleteValue(NewThrowAwayMetricContext(metric, now), tszval.EmptyFieldMap())

	require.Equal(t, 0, e.MetricCount(), "empty, unpinned metric must be removed from its entity")
	require.Len(t, mgr.deleted, 1, "the entity itself must become eligible for auto-collection once its metric set is empty")
}

func TestEntityPinKeepsItAliveEvenWhenEmpty(t *testing.T) {
	mgr := &spyEntityManager{}
	fields := tszval.EmptyFieldMap()
	e := NewEntity(mgr, fields, fields.Hash())

	ec := NewScopedEntityContext(e)
	require.Empty(t, mgr.deleted)
	ec.Release()
	require.Len(t, mgr.deleted, 1)
}

func TestEntityDeleteMetricRemovesRegardlessOfPin(t *testing.T) {
	mgr := &spyEntityManager{}
	fields := tszval.EmptyFieldMap()
	e := NewEntity(mgr, fields, fields.Hash())
	cfg := tszval.NewMetricConfig(tszval.ValueInt, tszval.Options{})
	metric := e.GetOrCreateMetric("/foo/bar", cfg)
	metric.Pin()

	require.True(t, e.DeleteMetric("/foo/bar"))
	require.False(t, e.DeleteMetric("/foo/bar"), "deleting twice reports no removal the second time")
	require.Len(t, mgr.deleted, 1, "a forced DeleteMetric that leaves the entity empty and unpinned must still trigger its own auto-collection")
}

func TestEntityGetMetricDoesNotCreate(t *testing.T) {
	mgr := &spyEntityManager{}
	e := NewEntity(mgr, tszval.EmptyFieldMap(), tszval.EmptyFieldMap().Hash())
	_, ok := e.GetMetric("/not/declared")
	require.False(t, ok)
	require.Equal(t, 0, e.MetricCount())
}
