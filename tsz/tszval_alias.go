package tsz

import "github.com/aaronlmathis/tsz/tsz/tszval"

// The spec's data model (FieldValue, FieldMap, FieldMapView, Value,
// Bucketer, Distribution) is implemented in tszval so that both this
// package and tsz/internal can depend on it without an import cycle
// (tsz/internal needs the data model, and this package needs
// tsz/internal for the store). These aliases are what callers actually
// see; the tszval import above never leaks into their code.

type (
	// FieldValueKind identifies which alternative of a FieldValue is populated.
	FieldValueKind = tszval.FieldValueKind
	// FieldValue is a tagged union of { bool, int64, string }.
	FieldValue = tszval.FieldValue
	// FieldMap is an ordered mapping from field/label name to FieldValue.
	FieldMap = tszval.FieldMap
	// FieldMapView is a non-owning, pre-hashed reference to a FieldMap.
	FieldMapView = tszval.FieldMapView
	// ValueKind identifies which alternative of a Value is populated.
	ValueKind = tszval.ValueKind
	// Value is the tagged union of metric value variants a Cell can hold.
	Value = tszval.Value
	// Bucketer is an immutable histogram bucketing scheme.
	Bucketer = tszval.Bucketer
	// Distribution records sample count, sum and per-bucket counts.
	Distribution = tszval.Distribution
	// Options configures a metric declaration.
	Options = tszval.Options
)

const (
	FieldBool   = tszval.FieldBool
	FieldInt    = tszval.FieldInt
	FieldString = tszval.FieldString

	ValueBoolKind         = tszval.ValueBool
	ValueIntKind          = tszval.ValueInt
	ValueDoubleKind       = tszval.ValueDouble
	ValueStringKind       = tszval.ValueString
	ValueDistributionKind = tszval.ValueDistribution
)

var (
	BoolField   = tszval.BoolField
	IntField    = tszval.IntField
	StringField = tszval.StringField

	NewFieldMap     = tszval.NewFieldMap
	EmptyFieldMap   = tszval.EmptyFieldMap
	NewFieldMapView = tszval.NewFieldMapView

	BoolValue         = tszval.BoolValue
	IntValue          = tszval.IntValue
	DoubleValue       = tszval.DoubleValue
	StringValue       = tszval.StringValue
	DistributionValue = tszval.DistributionValue

	DefaultBucketer    = tszval.DefaultBucketer
	PowersOfBucketer   = tszval.PowersOfBucketer
	FixedWidthBucketer = tszval.FixedWidthBucketer
	CustomBucketer     = tszval.CustomBucketer

	NewDistribution = tszval.NewDistribution
)
