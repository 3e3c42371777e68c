// Package lockfree implements a concurrent, read-optimised hash map with
// quadratic open addressing, pre-hashed nodes and amortised-growth
// rehashing. It is the Go translation of common/lock_free_hash_map.h /
// common/raw_lock_free_hash.h from the original implementation: any number
// of goroutines may call Find concurrently without blocking each other or a
// writer, while writers (Insert/Delete/GetOrInsert) are serialised by an
// internal mutex.
//
// The C++ original additionally hand-rolls a monotonic node/slot arena so
// that erased nodes are never freed until the whole container is destroyed,
// which is what makes the lock-free reads safe from ABA and use-after-free
// in a language with manual memory management. In Go that safety already
// falls out of the garbage collector: a node is never mutated in place
// after it is published (its fields are set once, before the slot store
// that makes it visible to readers), and erasure only flips a tombstone bit
// rather than freeing anything, so any reader holding a pointer to a node
// keeps it alive for as long as it needs it. Reusing that guarantee instead
// of reimplementing arena bookkeeping is the idiomatic Go rendition of the
// same invariant.
package lockfree

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/aaronlmathis/gosight-shared/utils"

	"github.com/aaronlmathis/tsz/tsz/internal/ratelimit"
)

// rehashLogWindow bounds how often a single Map logs a rehash, so a process
// with many short-lived maps growing in lockstep does not flood the log.
const rehashLogWindow = 10 * time.Second

var rehashLimiter = ratelimit.New(rehashLogWindow)

const (
	minCapacity   = 32
	maxLoadFactor = 2 // load factor ceiling of 1/2 expressed as "capacity / maxLoadFactor"
)

// node is allocated once per key and never mutated after it is published
// into a slot, except for the deleted flag which transitions monotonically
// from false to true (an erased key is never "un-erased" in place; a
// subsequent insert of the same key allocates a fresh node).
type node[V any] struct {
	hash    uint64
	key     string
	value   V
	deleted atomic.Bool
}

type table[V any] struct {
	slots []atomic.Pointer[node[V]]
}

func newTable[V any](capacity int) *table[V] {
	return &table[V]{slots: make([]atomic.Pointer[node[V]], capacity)}
}

// probe returns the i-th slot index in the quadratic probe sequence for
// hash h over a power-of-two-sized table, using the standard triangular
// step (i*(i+1)/2) that visits every slot of a power-of-two table exactly
// once before repeating.
func probe(h uint64, i int, capacity int) int {
	mask := uint64(capacity - 1)
	step := uint64(i)
	return int((h + step*(step+1)/2) & mask)
}

// Map is a concurrent string-keyed hash map. Create one with New; the zero
// value has no table and is not usable. Map must not be copied after first
// use.
type Map[V any] struct {
	name string // diagnostic label only, e.g. "shard.metric_configs"
	mu   sync.Mutex // serialises writers; readers never take it
	tbl  atomic.Pointer[table[V]]
	size atomic.Int64
}

// New returns an empty Map labelled name for rehash diagnostics. name may be
// empty, in which case growth is never logged.
func New[V any](name string) *Map[V] {
	m := &Map[V]{name: name}
	m.tbl.Store(newTable[V](minCapacity))
	return m
}

func hashString(s string) uint64 {
	// FNV-1a, matching the pre-hashing contract (cache the hash once per
	// node so probe sequences short-circuit without rehashing).
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}

// Find performs a lock-free lookup. It never blocks on a writer and never
// blocks other readers.
func (m *Map[V]) Find(key string) (V, bool) {
	tbl := m.tbl.Load()
	h := hashString(key)
	capacity := len(tbl.slots)
	for i := 0; i < capacity; i++ {
		idx := probe(h, i, capacity)
		n := tbl.slots[idx].Load()
		if n == nil {
			var zero V
			return zero, false
		}
		if n.hash == h && n.key == key && !n.deleted.Load() {
			return n.value, true
		}
		// A deleted node does not terminate the probe chain for other
		// keys; probing continues past it.
	}
	var zero V
	return zero, false
}

// Size returns the advisory number of live entries. As with the original,
// this is a best-effort count: readers racing a concurrent rehash may
// observe a transient over- or under-count.
func (m *Map[V]) Size() int {
	return int(m.size.Load())
}

// Capacity returns the advisory number of slots in the current generation
// of the backing array.
func (m *Map[V]) Capacity() int {
	return len(m.tbl.Load().slots)
}

// GetOrInsert returns the existing value for key if present, otherwise
// inserts value and returns it. The returned bool is true when the value
// was newly inserted by this call.
func (m *Map[V]) GetOrInsert(key string, value V) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.size.Load()+1 > int64(len(m.tbl.Load().slots)/maxLoadFactor) {
		m.growLocked()
	}

	tbl := m.tbl.Load()
	h := hashString(key)
	capacity := len(tbl.slots)
	tombstone := -1
	for i := 0; i < capacity; i++ {
		idx := probe(h, i, capacity)
		n := tbl.slots[idx].Load()
		if n == nil {
			target := idx
			if tombstone >= 0 {
				target = tombstone
			}
			nn := &node[V]{hash: h, key: key, value: value}
			tbl.slots[target].Store(nn)
			m.size.Add(1)
			return value, true
		}
		if n.hash == h && n.key == key {
			if !n.deleted.Load() {
				return n.value, false
			}
			if tombstone < 0 {
				tombstone = idx
			}
		} else if n.deleted.Load() && tombstone < 0 {
			tombstone = idx
		}
	}

	// The table was entirely full of live/tombstoned nodes without a
	// matching key or a free slot: grow and retry. This can happen because
	// the load-factor check above counts only live entries, so a long run
	// of insert/delete pairs can fill the table with tombstones; growing
	// drops them and guarantees forward progress.
	m.growLocked()
	return m.GetOrInsert(key, value)
}

// Delete marks key as erased. Returns true if a live node for key existed.
func (m *Map[V]) Delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	tbl := m.tbl.Load()
	h := hashString(key)
	capacity := len(tbl.slots)
	for i := 0; i < capacity; i++ {
		idx := probe(h, i, capacity)
		n := tbl.slots[idx].Load()
		if n == nil {
			return false
		}
		if n.hash == h && n.key == key && !n.deleted.Load() {
			n.deleted.Store(true)
			m.size.Add(-1)
			return true
		}
	}
	return false
}

// growLocked doubles the table's capacity and re-probes every live node
// into the new array. Must be called with mu held. Nodes are reused as-is
// (no copy of the payload); only the slot that points at them changes.
func (m *Map[V]) growLocked() {
	old := m.tbl.Load()
	newCap := len(old.slots) * 2
	nt := newTable[V](newCap)
	for i := range old.slots {
		n := old.slots[i].Load()
		if n == nil || n.deleted.Load() {
			continue
		}
		capacity := newCap
		for j := 0; j < capacity; j++ {
			idx := probe(n.hash, j, capacity)
			if nt.slots[idx].Load() == nil {
				nt.slots[idx].Store(n)
				break
			}
		}
	}
	m.tbl.Store(nt)

	if m.name != "" && rehashLimiter.Allow(m.name, time.Now()) {
		utils.Debug("tsz: %s grew to %d slots", m.name, newCap)
	}
}

// Iterator walks a loosely-consistent snapshot of the map: if a rehash
// happens mid-iteration, elements may be visited zero, one or two times,
// but every value returned came from a valid, fully-constructed node.
type Iterator[V any] struct {
	tbl *table[V]
	idx int
}

// Iterate returns an iterator over the map's current table generation.
func (m *Map[V]) Iterate() *Iterator[V] {
	return &Iterator[V]{tbl: m.tbl.Load()}
}

// Next advances the iterator and returns the next live (key, value) pair.
// The second return value is false once the snapshot is exhausted.
func (it *Iterator[V]) Next() (string, V, bool) {
	for it.idx < len(it.tbl.slots) {
		n := it.tbl.slots[it.idx].Load()
		it.idx++
		if n == nil || n.deleted.Load() {
			continue
		}
		return n.key, n.value, true
	}
	var zero V
	return "", zero, false
}

// ForEach calls fn for every live (key, value) pair reachable from a single
// table snapshot, in the same loosely-consistent sense as Iterator.
func (m *Map[V]) ForEach(fn func(key string, value V) bool) {
	it := m.Iterate()
	for {
		k, v, ok := it.Next()
		if !ok {
			return
		}
		if !fn(k, v) {
			return
		}
	}
}
