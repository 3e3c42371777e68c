package tszval

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Bucketer is an immutable description of a histogram bucketing scheme.
// Bucketers are shared by reference: two Bucketers constructed with the
// same boundary sequence compare equal by value even if they are different
// objects, but every constructor (Default, PowersOf, FixedWidth, Custom)
// interns its result so == can be used as a fast path, mirroring the teacher
// corpus's read-through-then-populate cache idiom (internal/cache) applied
// here to bucketer construction instead of request data.
type Bucketer struct {
	boundaries []float64 // upper bound of bucket i, excluding the final overflow bucket
}

var (
	internMu    sync.RWMutex
	internTable = map[string]*Bucketer{}
)

func internKey(boundaries []float64) string {
	// Boundaries fully determine equality, so the intern key is just the
	// hex rendering of each boundary's IEEE-754 bits, which is exact.
	key := ""
	for _, b := range boundaries {
		key += fmt.Sprintf("%x,", math.Float64bits(b))
	}
	return key
}

func intern(boundaries []float64) *Bucketer {
	key := internKey(boundaries)

	internMu.RLock()
	if b, ok := internTable[key]; ok {
		internMu.RUnlock()
		return b
	}
	internMu.RUnlock()

	internMu.Lock()
	defer internMu.Unlock()
	if b, ok := internTable[key]; ok {
		return b
	}
	b := &Bucketer{boundaries: boundaries}
	internTable[key] = b
	return b
}

var defaultBucketer = intern(powersOfBoundaries(2, 32))

// DefaultBucketer returns the process-wide default bucketer (powers of 2,
// 32 buckets), used when a distribution metric is declared without an
// explicit bucketer.
func DefaultBucketer() *Bucketer { return defaultBucketer }

func powersOfBoundaries(base float64, count int) []float64 {
	boundaries := make([]float64, count)
	v := 1.0
	for i := 0; i < count; i++ {
		boundaries[i] = v
		v *= base
	}
	return boundaries
}

// PowersOfBucketer returns a bucketer whose bucket i has upper bound
// base^i (so bucket 0 holds values below 1), with 32 finite buckets before
// the overflow bucket.
func PowersOfBucketer(base float64) *Bucketer {
	return intern(powersOfBoundaries(base, 32))
}

// FixedWidthBucketer returns a bucketer with count equal-width buckets of
// the given width, starting at zero.
func FixedWidthBucketer(width float64, count int) *Bucketer {
	boundaries := make([]float64, count)
	for i := 0; i < count; i++ {
		boundaries[i] = width * float64(i+1)
	}
	return intern(boundaries)
}

// CustomBucketer returns a bucketer with the given explicit, ascending
// upper bounds.
func CustomBucketer(boundaries ...float64) *Bucketer {
	cp := append([]float64(nil), boundaries...)
	sort.Float64s(cp)
	return intern(cp)
}

// NumFiniteBuckets returns the number of finite (non-overflow) buckets.
func (b *Bucketer) NumFiniteBuckets() int { return len(b.boundaries) }

// LowerBound returns the inclusive lower bound of bucket i.
func (b *Bucketer) LowerBound(i int) float64 {
	if i <= 0 {
		return math.Inf(-1)
	}
	if i-1 < len(b.boundaries) {
		return b.boundaries[i-1]
	}
	return b.boundaries[len(b.boundaries)-1]
}

// UpperBound returns the exclusive upper bound of bucket i. The overflow
// bucket's upper bound is +Inf.
func (b *Bucketer) UpperBound(i int) float64 {
	if i < len(b.boundaries) {
		return b.boundaries[i]
	}
	return math.Inf(1)
}

// BucketIndex returns the index of the bucket that value falls into,
// including the underflow bucket (index 0, for values below the first
// boundary when the first boundary is itself greater than -Inf) and the
// overflow bucket (index NumFiniteBuckets()).
func (b *Bucketer) BucketIndex(value float64) int {
	// sort.Search finds the first boundary strictly greater than value.
	return sort.Search(len(b.boundaries), func(i int) bool { return b.boundaries[i] > value })
}

// Equal reports whether b and other describe the same boundary sequence.
// Interned bucketers can use pointer identity as a fast path, but Equal
// always falls back to a value comparison so two independently constructed
// custom bucketers with identical boundaries still compare equal.
func (b *Bucketer) Equal(other *Bucketer) bool {
	if b == other {
		return true
	}
	if b == nil || other == nil {
		return false
	}
	if len(b.boundaries) != len(other.boundaries) {
		return false
	}
	for i, v := range b.boundaries {
		if v != other.boundaries[i] {
			return false
		}
	}
	return true
}
