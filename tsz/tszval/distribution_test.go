package tszval

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistributionRecordCountAndSum(t *testing.T) {
	d := NewDistribution(PowersOfBucketer(2))
	d.Record(1)
	d.Record(1)
	d.Record(3)

	require.Equal(t, uint64(3), d.Count())
	require.Equal(t, 5.0, d.Sum())
	require.Equal(t, 5.0/3.0, d.Mean())

	b := d.Bucketer()
	oneIdx := b.BucketIndex(1)
	threeIdx := b.BucketIndex(3)
	require.Equal(t, uint64(2), d.BucketCount(oneIdx))
	require.Equal(t, uint64(1), d.BucketCount(threeIdx))
}

func TestDistributionRecordManyZeroTimesIsNoOp(t *testing.T) {
	d := NewDistribution(DefaultBucketer())
	d.RecordMany(5, 0)
	require.True(t, d.Empty())
	require.Equal(t, uint64(0), d.Count())
}

func TestDistributionCountEqualsSumOfBuckets(t *testing.T) {
	d := NewDistribution(PowersOfBucketer(2))
	for _, s := range []float64{1, 2, 4, 4, 100, -1} {
		d.Record(s)
	}
	var total uint64
	for i := 0; i < d.Bucketer().NumFiniteBuckets()+1; i++ {
		total += d.BucketCount(i)
	}
	require.Equal(t, d.Count(), total)
}

func TestDistributionClearPreservesBucketer(t *testing.T) {
	b := PowersOfBucketer(2)
	d := NewDistribution(b)
	d.Record(3)
	d.Clear()

	require.True(t, d.Empty())
	require.Equal(t, 0.0, d.Sum())
	require.True(t, d.Bucketer().Equal(b))
}

func TestDistributionCloneIsIndependent(t *testing.T) {
	d := NewDistribution(PowersOfBucketer(2))
	d.Record(1)
	clone := d.Clone()
	d.Record(1)

	require.Equal(t, uint64(2), d.Count())
	require.Equal(t, uint64(1), clone.Count(), "mutating the original after Clone must not affect the clone")
}

func TestBucketerEqualityIsValueBased(t *testing.T) {
	a := CustomBucketer(1, 2, 3)
	b := CustomBucketer(3, 2, 1) // unsorted input, same boundary set
	require.True(t, a.Equal(b))
}

func TestBucketerInterningReturnsSamePointerForCanonicalBucketers(t *testing.T) {
	a := PowersOfBucketer(2)
	b := PowersOfBucketer(2)
	require.True(t, a == b, "canonical bucketers with identical construction args should be interned")
}

func TestBucketerBucketIndexUnderflowOverflow(t *testing.T) {
	b := FixedWidthBucketer(10, 3) // boundaries: 10, 20, 30
	require.Equal(t, 0, b.BucketIndex(-5))
	require.Equal(t, 0, b.BucketIndex(5))
	require.Equal(t, 1, b.BucketIndex(15))
	require.Equal(t, 3, b.BucketIndex(1000), "values past the last boundary fall into the overflow bucket")
}
