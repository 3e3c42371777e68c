package tszval

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldMapOrderIndependentHashAndEqual(t *testing.T) {
	a := NewFieldMap([]string{"lorem", "foo"}, []FieldValue{StringField("ipsum"), IntField(1)})
	b := NewFieldMap([]string{"foo", "lorem"}, []FieldValue{IntField(1), StringField("ipsum")})

	require.True(t, a.Equal(b), "field maps built from the same pairs in a different order must compare equal")
	require.Equal(t, a.Hash(), b.Hash(), "hash must be independent of insertion order")
}

func TestFieldMapSetOverwritesExistingKey(t *testing.T) {
	fm := EmptyFieldMap()
	fm.Set("k", IntField(1))
	fm.Set("k", IntField(2))

	require.Equal(t, 1, fm.Len())
	v, ok := fm.Get("k")
	require.True(t, ok)
	got, _ := v.Int()
	require.Equal(t, int64(2), got)
}

func TestFieldMapGetMissing(t *testing.T) {
	fm := EmptyFieldMap()
	_, ok := fm.Get("missing")
	require.False(t, ok)
}

func TestFieldMapViewEqualShortCircuitsOnHash(t *testing.T) {
	fm := NewFieldMap([]string{"a"}, []FieldValue{IntField(1)})
	other := NewFieldMap([]string{"a"}, []FieldValue{IntField(2)})
	view := NewFieldMapView(&fm)

	require.True(t, view.Equal(fm))
	require.False(t, view.Equal(other))
}

func TestFieldValueEqualAcrossVariants(t *testing.T) {
	require.True(t, BoolField(true).Equal(BoolField(true)))
	require.False(t, BoolField(true).Equal(BoolField(false)))
	require.False(t, IntField(1).Equal(StringField("1")), "different variants never compare equal")
}

func TestValueZeroOfPreservesVariant(t *testing.T) {
	require.Equal(t, ValueBool, BoolValue(true).ZeroOf().Kind())
	b, _ := BoolValue(true).ZeroOf().Bool()
	require.False(t, b)

	i, _ := IntValue(42).ZeroOf().Int()
	require.Equal(t, int64(0), i)

	d, _ := DoubleValue(1.5).ZeroOf().Double()
	require.Equal(t, 0.0, d)

	s, _ := StringValue("x").ZeroOf().String()
	require.Equal(t, "", s)
}

func TestDistributionValueZeroOfClearsButKeepsBucketer(t *testing.T) {
	b := PowersOfBucketer(2)
	v := DistributionValue(b)
	dist, _ := v.Distribution()
	dist.Record(3)
	require.False(t, dist.Empty())

	zeroed := v.ZeroOf()
	zdist, _ := zeroed.Distribution()
	require.True(t, zdist.Empty())
	require.True(t, zdist.Bucketer().Equal(b))
}
