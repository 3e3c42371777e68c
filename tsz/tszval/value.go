package tszval

// ValueKind identifies which alternative of a Value is populated.
type ValueKind int

const (
	// ValueBool holds a boolean metric value.
	ValueBool ValueKind = iota
	// ValueInt holds a signed 64-bit integer metric value.
	ValueInt
	// ValueDouble holds a float64 metric value.
	ValueDouble
	// ValueString holds a string metric value.
	ValueString
	// ValueDistribution holds a Distribution metric value.
	ValueDistribution
)

// Value is the tagged union of metric value variants a Cell can hold. Each
// metric fixes its value variant at declaration time; mutating a cell with
// the wrong operation for its variant is a programming error guarded by
// the internal package, not a runtime-recoverable condition.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	d    float64
	s    string
	dist Distribution
}

// BoolValue constructs a boolean metric value.
func BoolValue(b bool) Value { return Value{kind: ValueBool, b: b} }

// IntValue constructs an integer metric value.
func IntValue(i int64) Value { return Value{kind: ValueInt, i: i} }

// DoubleValue constructs a float64 metric value.
func DoubleValue(d float64) Value { return Value{kind: ValueDouble, d: d} }

// StringValue constructs a string metric value.
func StringValue(s string) Value { return Value{kind: ValueString, s: s} }

// DistributionValue constructs a distribution metric value bucketed by b.
func DistributionValue(b *Bucketer) Value {
	return Value{kind: ValueDistribution, dist: NewDistribution(b)}
}

// Kind reports which alternative is populated.
func (v Value) Kind() ValueKind { return v.kind }

// Bool returns the boolean alternative and whether v holds one.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == ValueBool }

// Int returns the integer alternative and whether v holds one.
func (v Value) Int() (int64, bool) { return v.i, v.kind == ValueInt }

// Double returns the float64 alternative and whether v holds one.
func (v Value) Double() (float64, bool) { return v.d, v.kind == ValueDouble }

// String returns the string alternative and whether v holds one.
func (v Value) String() (string, bool) { return v.s, v.kind == ValueString }

// Distribution returns a pointer to the embedded distribution and whether v
// holds one. The pointer aliases v, so copying a Value by value after
// calling Distribution and mutating through the pointer is unsafe; callers
// that need a stable distribution value should Clone it (a plain copy of
// *v.Distribution() still shares the bucket-count array).
func (v *Value) Distribution() (*Distribution, bool) {
	return &v.dist, v.kind == ValueDistribution
}

// ZeroOf returns the in-variant zero value for v's kind (bool -> false,
// int -> 0, double -> 0.0, string -> "", distribution -> cleared).
// The distribution case clones before clearing so it never reaches back
// into v's backing bucket array (see Clone).
func (v Value) ZeroOf() Value {
	switch v.kind {
	case ValueBool:
		return BoolValue(false)
	case ValueInt:
		return IntValue(0)
	case ValueDouble:
		return DoubleValue(0)
	case ValueString:
		return StringValue("")
	default:
		zeroed := v.Clone()
		zeroed.dist.Clear()
		return zeroed
	}
}

// Clone returns a copy of v that shares no mutable state with it. Plain
// Go value copies of a Value alias the same backing bucket-count array for
// the distribution variant (a Go slice header copy does not copy the
// underlying array), so any caller that retains a Value read from a Cell
// across a subsequent mutation of that cell must Clone it first.
func (v Value) Clone() Value {
	if v.kind == ValueDistribution {
		v.dist = v.dist.Clone()
	}
	return v
}
