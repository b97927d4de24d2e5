package bucket

import "fmt"

// ErrCompleteHashOverflow is returned when a candidate bucket has no free
// capacity left for an element (spec §4.2: "the algorithm fails; caller
// retries with fresh seeds or raises C").
var ErrCompleteHashOverflow = fmt.Errorf("bucket: complete hashing bucket capacity exceeded")

// CompleteTable is the sender-side bucket table: every inserted element is
// placed into all Nhash of its candidate buckets (spec §3, "Bucket table
// (sender)"), each bucket holding up to capacity entries.
type CompleteTable struct {
	capacity uint64
	buckets  [][]Slot
	hs       hashSet
}

// NewCompleteTable allocates bucketCount buckets, each with room for
// capacity entries (spec §4.1's per-bucket capacity C).
func NewCompleteTable(bucketCount, capacity uint64, hs hashSet) *CompleteTable {
	buckets := make([][]Slot, bucketCount)
	for i := range buckets {
		buckets[i] = make([]Slot, 0, capacity)
	}
	return &CompleteTable{capacity: capacity, buckets: buckets, hs: hs}
}

// Len returns B, the number of buckets.
func (t *CompleteTable) Len() uint64 {
	return uint64(len(t.buckets))
}

// Capacity returns C, the per-bucket slot capacity.
func (t *CompleteTable) Capacity() uint64 {
	return t.capacity
}

// Bucket returns the (possibly partially filled) slots of bucket i.
func (t *CompleteTable) Bucket(i uint64) []Slot {
	return t.buckets[i]
}

// Insert places element into all of its Nhash candidate buckets. Every
// candidate is checked for room (counting candidates that share a bucket)
// before anything is appended, so if any candidate bucket would exceed its
// capacity the table is left unchanged and ErrCompleteHashOverflow is
// returned.
func (t *CompleteTable) Insert(element uint64) error {
	n := t.hs.N()
	candidates := make([]uint64, n)
	pending := make(map[uint64]uint64, n)
	for i := 0; i < n; i++ {
		bIdx := t.hs.Index(i, element, t.Len())
		pending[bIdx]++
		if uint64(len(t.buckets[bIdx]))+pending[bIdx] > t.capacity {
			return fmt.Errorf("%w: bucket %d is full", ErrCompleteHashOverflow, bIdx)
		}
		candidates[i] = bIdx
	}

	for hIdx, bIdx := range candidates {
		t.buckets[bIdx] = append(t.buckets[bIdx], Slot{Element: element, HashIndex: uint8(hIdx), Occupied: true})
	}
	return nil
}

// Occupancy returns, for diagnostics, the fraction of total slot capacity
// (B*C) currently filled (SPEC_FULL §11.1).
func (t *CompleteTable) Occupancy() float64 {
	filled := 0
	for _, b := range t.buckets {
		filled += len(b)
	}
	return float64(filled) / float64(t.Len()*t.capacity)
}
