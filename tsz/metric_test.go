package tsz_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/tsz/tsz"
	"github.com/aaronlmathis/tsz/tsz/tsztest"
)

// uniqueName returns a metric name scoped to the test, so tests that
// declare metrics against the shared global exporter never collide.
func uniqueName(t *testing.T, suffix string) string {
	t.Helper()
	return "/tszmetrictest/" + t.Name() + suffix
}

func TestGaugeSetGet(t *testing.T) {
	name := uniqueName(t, "/foo/bar")
	entity := tsz.NewEntity([]string{"lorem"}, []tsz.FieldValue{tsz.StringField("x")})
	gauge := tsz.NewGauge(entity, name, []string{"k"}, tsz.ValueIntKind, tsz.Options{})

	gauge.SetValue(tsz.IntValue(42), tsz.IntField(1))

	v, err := gauge.GetValue(tsz.IntField(1))
	require.NoError(t, err)
	got, ok := v.Int()
	require.True(t, ok)
	require.Equal(t, int64(42), got)
}

func TestCounterDeltaAcrossReads(t *testing.T) {
	name := uniqueName(t, "/c/n")
	counter := tsz.NewCounter(nil, name, nil, tsz.Options{})
	reader := tsztest.NewCellReader(name)
	defer reader.Close()

	counter.AddToInt(12)
	counter.AddToInt(34)

	d, err := reader.Delta(tsz.EmptyFieldMap(), tsz.EmptyFieldMap())
	require.NoError(t, err)
	require.Equal(t, int64(46), d)

	d, err = reader.Delta(tsz.EmptyFieldMap(), tsz.EmptyFieldMap())
	require.NoError(t, err)
	require.Equal(t, int64(0), d, "a second Delta with no intervening writes returns zero")

	counter.AddToInt(7)
	counter.AddToInt(8)

	d, err = reader.Delta(tsz.EmptyFieldMap(), tsz.EmptyFieldMap())
	require.NoError(t, err)
	require.Equal(t, int64(15), d)
}

func TestDistributionMetricRecordsSumCountBuckets(t *testing.T) {
	name := uniqueName(t, "/e/m")
	bucketer := tsz.PowersOfBucketer(2)
	metric := tsz.NewDistributionMetric(nil, name, nil, bucketer, tsz.Options{})

	metric.RecordDistribution(1)
	metric.RecordDistribution(1)
	metric.RecordDistribution(3)

	v, err := metric.GetValue()
	require.NoError(t, err)
	dist, ok := v.Distribution()
	require.True(t, ok)
	require.Equal(t, uint64(3), dist.Count())
	require.Equal(t, 5.0, dist.Sum())

	oneIdx := bucketer.BucketIndex(1)
	threeIdx := bucketer.BucketIndex(3)
	require.Equal(t, uint64(2), dist.BucketCount(oneIdx))
	require.Equal(t, uint64(1), dist.BucketCount(threeIdx))
}

func TestDeleteThenGetReturnsNotFound(t *testing.T) {
	name := uniqueName(t, "/a/b")
	gauge := tsz.NewGauge(nil, name, nil, tsz.ValueIntKind, tsz.Options{})

	gauge.SetValue(tsz.IntValue(1))
	require.True(t, gauge.Delete())

	_, err := gauge.GetValue()
	require.Error(t, err, "after the only cell is deleted, the next lookup must miss")
}

func TestRecordDistributionManyZeroTimesIsNoOp(t *testing.T) {
	// Per spec.md's AddToDistribution contract, the cell is created (if
	// absent) unconditionally and only the record itself is a no-op for
	// zero samples, so the resulting cell holds an empty distribution
	// rather than being absent outright.
	name := uniqueName(t, "/e/zero")
	metric := tsz.NewDistributionMetric(nil, name, nil, tsz.DefaultBucketer(), tsz.Options{})
	metric.RecordDistributionMany(5, 0)

	v, err := metric.GetValue()
	require.NoError(t, err)
	dist, ok := v.Distribution()
	require.True(t, ok)
	require.True(t, dist.Empty(), "RecordMany(x, 0) must not register any samples")
}

func TestEntityMetricSetGetAcrossDynamicEntities(t *testing.T) {
	name := uniqueName(t, "/entity/gauge")
	metric := tsz.NewEntityGauge(name, []string{"host"}, []string{"k"}, tsz.ValueIntKind, tsz.Options{})

	metric.SetValue(tsz.IntValue(1), []tsz.FieldValue{tsz.StringField("a")}, []tsz.FieldValue{tsz.IntField(1)})
	metric.SetValue(tsz.IntValue(2), []tsz.FieldValue{tsz.StringField("b")}, []tsz.FieldValue{tsz.IntField(1)})

	va, err := metric.GetValue([]tsz.FieldValue{tsz.StringField("a")}, []tsz.FieldValue{tsz.IntField(1)})
	require.NoError(t, err)
	gotA, _ := va.Int()
	require.Equal(t, int64(1), gotA)

	vb, err := metric.GetValue([]tsz.FieldValue{tsz.StringField("b")}, []tsz.FieldValue{tsz.IntField(1)})
	require.NoError(t, err)
	gotB, _ := vb.Int()
	require.Equal(t, int64(2), gotB)
}

func TestPackageLevelMetricsAreRedundantAndIdempotent(t *testing.T) {
	// Package-level metric declarations route through the exporter's
	// redundant form (tsz.Metric.define/tsz.EntityMetric.define), the same
	// way the original's static BaseMetric objects across translation
	// units tolerate being "declared" more than once: whichever
	// configuration is installed first wins, and later declarations of
	// the same name reuse it instead of erroring.
	name := uniqueName(t, "/redundant/reuse")
	a := tsz.NewGauge(nil, name, nil, tsz.ValueIntKind, tsz.Options{Description: "first"})
	a.SetValue(tsz.IntValue(1))

	b := tsz.NewEntityGauge(name, nil, nil, tsz.ValueDoubleKind, tsz.Options{Description: "second"})
	v, err := b.GetValue(nil, nil)
	require.NoError(t, err)
	got, ok := v.Int()
	require.True(t, ok, "the first declaration's int config wins; the second declaration's mismatched kind is ignored")
	require.Equal(t, int64(1), got)
}

func TestCounterIncrementVocabulary(t *testing.T) {
	name := uniqueName(t, "/counter/inc")
	counter := tsz.NewCounterMetric(nil, name, nil, tsz.Options{})

	counter.Increment()
	counter.IncrementBy(41)

	v, err := counter.GetValue()
	require.NoError(t, err)
	got, _ := v.Int()
	require.Equal(t, int64(42), got)
}

func TestEntityCounterIncrementAcrossDynamicEntities(t *testing.T) {
	name := uniqueName(t, "/entity/counter")
	counter := tsz.NewEntityCounterMetric(name, []string{"host"}, nil, tsz.Options{})

	host := []tsz.FieldValue{tsz.StringField("a")}
	counter.Increment(host, nil)
	counter.IncrementBy(9, host, nil)

	v, err := counter.GetValue(host, nil)
	require.NoError(t, err)
	got, _ := v.Int()
	require.Equal(t, int64(10), got)
}

func TestEntityMetricAddToIntCreatesCellAtDelta(t *testing.T) {
	name := uniqueName(t, "/entity/addtoint")
	metric := tsz.NewEntityGauge(name, []string{"host"}, nil, tsz.ValueIntKind, tsz.Options{})
	host := []tsz.FieldValue{tsz.StringField("a")}

	metric.AddToInt(5, host, nil)
	v, err := metric.GetValue(host, nil)
	require.NoError(t, err)
	got, _ := v.Int()
	require.Equal(t, int64(5), got)
}

func TestMetricLastUpdateTimeTracksMostRecentWrite(t *testing.T) {
	name := uniqueName(t, "/gauge/lastupdate")
	gauge := tsz.NewGauge(nil, name, nil, tsz.ValueIntKind, tsz.Options{})

	require.True(t, gauge.LastUpdateTime().IsZero(), "never written, no last update time yet")

	gauge.SetValue(tsz.IntValue(1))
	first := gauge.LastUpdateTime()
	require.False(t, first.IsZero())

	gauge.SetValue(tsz.IntValue(2))
	second := gauge.LastUpdateTime()
	require.False(t, second.Before(first), "a later write must not move LastUpdateTime backward")
}

func TestEntityDistributionMetricRecordsAcrossDynamicEntities(t *testing.T) {
	name := uniqueName(t, "/entity/dist")
	bucketer := tsz.PowersOfBucketer(2)
	metric := tsz.NewEntityDistributionMetric(name, []string{"host"}, nil, bucketer, tsz.Options{})
	host := []tsz.FieldValue{tsz.StringField("a")}

	metric.RecordDistribution(1, host, nil)
	metric.RecordDistributionMany(3, 2, host, nil)

	v, err := metric.GetValue(host, nil)
	require.NoError(t, err)
	dist, ok := v.Distribution()
	require.True(t, ok)
	require.Equal(t, uint64(3), dist.Count())
	require.Equal(t, 7.0, dist.Sum())
}
