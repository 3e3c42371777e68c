// Package tszval holds the tsz data model's leaf value types: field
// values, field maps, bucketers, distributions and metric values. It has
// no dependency on the store (tsz/internal) or on the public tsz package,
// which both depend on it instead — tsz re-exports these types under
// their spec names (FieldMap, Value, Bucketer, ...) via type aliases so
// callers never see the tszval import.
package tszval

import (
	"fmt"
	"sort"
)

// FieldValueKind identifies which alternative of a FieldValue is populated.
type FieldValueKind int

const (
	// FieldBool holds a boolean field value.
	FieldBool FieldValueKind = iota
	// FieldInt holds a signed 64-bit integer field value.
	FieldInt
	// FieldString holds an owned string field value.
	FieldString
)

// FieldValue is a tagged union of { bool, int64, string }. FieldValue never
// holds a float or a distribution; those only ever appear as metric
// values, never as entity-label or metric-field values.
type FieldValue struct {
	kind FieldValueKind
	b    bool
	i    int64
	s    string
}

// BoolField constructs a boolean field value.
func BoolField(b bool) FieldValue { return FieldValue{kind: FieldBool, b: b} }

// IntField constructs an integer field value.
func IntField(i int64) FieldValue { return FieldValue{kind: FieldInt, i: i} }

// StringField constructs a string field value.
func StringField(s string) FieldValue { return FieldValue{kind: FieldString, s: s} }

// Kind reports which alternative is populated.
func (v FieldValue) Kind() FieldValueKind { return v.kind }

// Bool returns the boolean alternative and whether v actually holds one.
func (v FieldValue) Bool() (bool, bool) { return v.b, v.kind == FieldBool }

// Int returns the integer alternative and whether v actually holds one.
func (v FieldValue) Int() (int64, bool) { return v.i, v.kind == FieldInt }

// String returns the string alternative and whether v actually holds one.
func (v FieldValue) String() (string, bool) { return v.s, v.kind == FieldString }

// Equal reports whether v and other hold the same variant and value.
func (v FieldValue) Equal(other FieldValue) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case FieldBool:
		return v.b == other.b
	case FieldInt:
		return v.i == other.i
	default:
		return v.s == other.s
	}
}

// GoString renders the field value for debugging and log lines.
func (v FieldValue) GoString() string {
	switch v.kind {
	case FieldBool:
		return fmt.Sprintf("%t", v.b)
	case FieldInt:
		return fmt.Sprintf("%d", v.i)
	default:
		return v.s
	}
}

type fieldEntry struct {
	name  string
	value FieldValue
}

// FieldMap is an ordered mapping from field/label name to FieldValue. The
// visible order is the sorted key order regardless of insertion order, so
// two FieldMaps built from the same (name, value) pairs in any order
// compare and hash identically.
type FieldMap struct {
	entries []fieldEntry
}

// NewFieldMap builds a FieldMap from the given names, positionally paired
// with values. len(names) must equal len(values); NewFieldMap does not
// check it: a shorter values slice panics with an index out of range, and
// extra values are ignored.
func NewFieldMap(names []string, values []FieldValue) FieldMap {
	fm := FieldMap{entries: make([]fieldEntry, 0, len(names))}
	for i, name := range names {
		fm.Set(name, values[i])
	}
	return fm
}

// EmptyFieldMap returns a FieldMap with no entries, used for the default
// entity and for metrics declared with no fields.
func EmptyFieldMap() FieldMap { return FieldMap{} }

func (fm *FieldMap) indexOf(name string) (int, bool) {
	i := sort.Search(len(fm.entries), func(i int) bool { return fm.entries[i].name >= name })
	if i < len(fm.entries) && fm.entries[i].name == name {
		return i, true
	}
	return i, false
}

// Set inserts or overwrites the value for name, keeping entries in sorted
// key order.
func (fm *FieldMap) Set(name string, value FieldValue) {
	i, found := fm.indexOf(name)
	if found {
		fm.entries[i].value = value
		return
	}
	fm.entries = append(fm.entries, fieldEntry{})
	copy(fm.entries[i+1:], fm.entries[i:])
	fm.entries[i] = fieldEntry{name: name, value: value}
}

// Get returns the value for name and whether it was present.
func (fm FieldMap) Get(name string) (FieldValue, bool) {
	i, found := fm.indexOf(name)
	if !found {
		return FieldValue{}, false
	}
	return fm.entries[i].value, true
}

// Len returns the number of entries.
func (fm FieldMap) Len() int { return len(fm.entries) }

// ForEach calls fn for every (name, value) pair in sorted key order.
func (fm FieldMap) ForEach(fn func(name string, value FieldValue)) {
	for _, e := range fm.entries {
		fn(e.name, e.value)
	}
}

// Equal reports whether fm and other contain the same set of (name, value)
// pairs, independent of how each was built.
func (fm FieldMap) Equal(other FieldMap) bool {
	if len(fm.entries) != len(other.entries) {
		return false
	}
	for i, e := range fm.entries {
		o := other.entries[i]
		if e.name != o.name || !e.value.Equal(o.value) {
			return false
		}
	}
	return true
}

// Hash returns a hash of fm defined over its sorted key sequence, so two
// field maps built with the same pairs in a different insertion order hash
// identically.
func (fm FieldMap) Hash() uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	h := uint64(offset64)
	mix := func(s string) {
		for i := 0; i < len(s); i++ {
			h ^= uint64(s[i])
			h *= prime64
		}
		h ^= 0xff
		h *= prime64
	}
	for _, e := range fm.entries {
		mix(e.name)
		switch e.value.kind {
		case FieldBool:
			if e.value.b {
				mix("b:1")
			} else {
				mix("b:0")
			}
		case FieldInt:
			mix(fmt.Sprintf("i:%d", e.value.i))
		default:
			mix("s:" + e.value.s)
		}
	}
	return h
}

// FieldMapView is a non-owning reference to a FieldMap paired with its
// precomputed hash, used to perform zero-copy lookups against both owned
// field maps and other views without rehashing.
type FieldMapView struct {
	fields *FieldMap
	hash   uint64
}

// NewFieldMapView bundles fields with its precomputed hash. fields must
// outlive the returned view.
func NewFieldMapView(fields *FieldMap) FieldMapView {
	return FieldMapView{fields: fields, hash: fields.Hash()}
}

// Hash returns the precomputed hash.
func (v FieldMapView) Hash() uint64 { return v.hash }

// Fields returns the referenced field map.
func (v FieldMapView) Fields() *FieldMap { return v.fields }

// Equal reports whether the view's field map equals other, short-circuiting
// on the cached hash before comparing the field maps themselves.
func (v FieldMapView) Equal(other FieldMap) bool {
	if v.hash != other.Hash() {
		return false
	}
	return v.fields.Equal(other)
}
