package internal

// hashIndex is a separate-chaining hash set bucketed by a precomputed
// hash, used to index cells by metric fields, metrics by name within an
// entity, and entities by label map within a shard. It is always guarded
// by the owning object's mutex (metric/entity/shard respectively), so it
// does not synchronize internally — unlike tsz/internal/lockfree, this is
// not the lock-free container from spec.md §4.B, just the ordinary
// mutex-protected bookkeeping spec.md §4.D-§4.G describe each level as
// using ("cells is a set indexed by metric_fields with custom hash and
// equality that short-circuit on the cached hash").
//
// Every value stored in a hashIndex must expose its own cached hash, which
// is how this type gets the "short-circuit on cached hash before a full
// comparison" behaviour the spec calls for without needing distinct
// owned/view key types the way the C++ original does (Go's cheap string
// and value-type copies make that distinction unnecessary here).
type hashIndex[V any] struct {
	buckets map[uint64][]V
	size    int
}

func newHashIndex[V any]() hashIndex[V] {
	return hashIndex[V]{buckets: make(map[uint64][]V)}
}

// Find returns the first stored value for which match returns true among
// those sharing hash h.
func (idx *hashIndex[V]) Find(h uint64, match func(V) bool) (V, bool) {
	for _, v := range idx.buckets[h] {
		if match(v) {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// Insert appends v to the bucket for hash h without checking for an
// existing match; callers that need upsert semantics should Find first.
func (idx *hashIndex[V]) Insert(h uint64, v V) {
	idx.buckets[h] = append(idx.buckets[h], v)
	idx.size++
}

// Delete removes the first stored value for which match returns true among
// those sharing hash h. Returns true if a value was removed.
func (idx *hashIndex[V]) Delete(h uint64, match func(V) bool) bool {
	bucket := idx.buckets[h]
	for i, v := range bucket {
		if match(v) {
			bucket = append(bucket[:i], bucket[i+1:]...)
			if len(bucket) == 0 {
				delete(idx.buckets, h)
			} else {
				idx.buckets[h] = bucket
			}
			idx.size--
			return true
		}
	}
	return false
}

// Len returns the number of stored values.
func (idx *hashIndex[V]) Len() int { return idx.size }

// Clear removes every stored value and returns how many there were.
func (idx *hashIndex[V]) Clear() int {
	n := idx.size
	idx.buckets = make(map[uint64][]V)
	idx.size = 0
	return n
}

// ForEach calls fn for every stored value, in unspecified order.
func (idx *hashIndex[V]) ForEach(fn func(V)) {
	for _, bucket := range idx.buckets {
		for _, v := range bucket {
			fn(v)
		}
	}
}

// Values returns a snapshot slice of every stored value.
func (idx *hashIndex[V]) Values() []V {
	out := make([]V, 0, idx.size)
	idx.ForEach(func(v V) { out = append(out, v) })
	return out
}
