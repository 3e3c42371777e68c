package tszval

// Distribution records sample count, running sum and per-bucket counts
// against a referenced Bucketer. An empty distribution has count == 0.
type Distribution struct {
	bucketer *Bucketer
	sum      float64
	count    uint64
	buckets  []uint64 // len == bucketer.NumFiniteBuckets()+1, last slot is overflow
}

// NewDistribution returns an empty distribution bucketed by b. If b is
// nil, DefaultBucketer is used.
func NewDistribution(b *Bucketer) Distribution {
	if b == nil {
		b = DefaultBucketer()
	}
	return Distribution{
		bucketer: b,
		buckets:  make([]uint64, b.NumFiniteBuckets()+1),
	}
}

// Bucketer returns the distribution's bucketer.
func (d *Distribution) Bucketer() *Bucketer { return d.bucketer }

// Sum returns the running sum of all recorded samples.
func (d *Distribution) Sum() float64 { return d.sum }

// Count returns the number of recorded samples.
func (d *Distribution) Count() uint64 { return d.count }

// Mean returns Sum()/Count(), or 0 if the distribution is empty.
func (d *Distribution) Mean() float64 {
	if d.count == 0 {
		return 0
	}
	return d.sum / float64(d.count)
}

// BucketCount returns the sample count of bucket i.
func (d *Distribution) BucketCount(i int) uint64 {
	if i < 0 || i >= len(d.buckets) {
		return 0
	}
	return d.buckets[i]
}

// Empty reports whether the distribution has recorded any samples.
func (d *Distribution) Empty() bool { return d.count == 0 }

// Record records one occurrence of sample.
func (d *Distribution) Record(sample float64) { d.RecordMany(sample, 1) }

// RecordMany records sample as having occurred times times. A times of
// zero is a no-op, per spec.md's boundary behaviours.
func (d *Distribution) RecordMany(sample float64, times uint64) {
	if times == 0 {
		return
	}
	idx := d.bucketer.BucketIndex(sample)
	d.buckets[idx] += times
	d.count += times
	d.sum += sample * float64(times)
}

// Clone returns a copy of d whose bucket-count slice does not alias d's.
func (d Distribution) Clone() Distribution {
	d.buckets = append([]uint64(nil), d.buckets...)
	return d
}

// Clear zeros sum, count and every bucket count but preserves the
// bucketer reference.
func (d *Distribution) Clear() {
	d.sum = 0
	d.count = 0
	for i := range d.buckets {
		d.buckets[i] = 0
	}
}
