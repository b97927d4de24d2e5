package bucket

import (
	"fmt"
	"math/rand"
)

// ReInsertLimit bounds the length of an eviction chain before cuckoo
// insertion is declared a failure (spec §4.2: "Cap the eviction chain at a
// bounded number of steps (e.g., 500)").
const ReInsertLimit = 500

// ErrCuckooOverflow is returned when an eviction chain exceeds
// ReInsertLimit. Per spec §4.2/§7 this is a hashing failure: the caller
// should regenerate seeds and retry, not treat it as a programmer error.
var ErrCuckooOverflow = fmt.Errorf("bucket: cuckoo eviction chain exceeded %d steps", ReInsertLimit)

// CuckooTable is the receiver-side bucket table: every inserted element
// occupies exactly one of its Nhash candidate buckets (spec §3, "Bucket
// table (receiver)").
type CuckooTable struct {
	slots []Slot
	hs    hashSet
	rng   *rand.Rand
}

// NewCuckooTable allocates a table of bucketCount empty slots. rng drives
// the eviction coin-flips only; it has no bearing on protocol correctness
// across parties (spec §9, "Randomness": the hashing seeds, not the
// eviction order, must agree) and may be seeded non-deterministically.
func NewCuckooTable(bucketCount uint64, hs hashSet, rng *rand.Rand) *CuckooTable {
	return &CuckooTable{
		slots: make([]Slot, bucketCount),
		hs:    hs,
		rng:   rng,
	}
}

// Len returns B, the total number of buckets.
func (c *CuckooTable) Len() uint64 {
	return uint64(len(c.slots))
}

// Slot returns the slot at bucket index i.
func (c *CuckooTable) Slot(i uint64) Slot {
	return c.slots[i]
}

// Insert places element into the table, evicting and re-homing an occupant
// if all of its candidate buckets are full. Returns ErrCuckooOverflow if the
// eviction chain does not terminate within ReInsertLimit steps.
func (c *CuckooTable) Insert(element uint64) error {
	candidates := c.candidates(element)

	if hIdx, ok := c.tryPlace(candidates, false, 0); ok {
		c.slots[candidates[hIdx]] = Slot{Element: element, HashIndex: uint8(hIdx), Occupied: true}
		return nil
	}

	// force insertion via eviction: repeatedly knock a random occupant out
	// of one of the homeless item's candidate buckets, install the homeless
	// item there, and try to re-home the evicted occupant (forbidden from
	// bouncing straight back into the bucket it was just evicted from).
	homeless := element
	homelessCandidates := candidates
	for step := 0; step < ReInsertLimit; step++ {
		evictedHIdx := c.rng.Intn(c.hs.N())
		evictedBucket := homelessCandidates[evictedHIdx]

		evicted := c.slots[evictedBucket]
		c.slots[evictedBucket] = Slot{Element: homeless, HashIndex: uint8(evictedHIdx), Occupied: true}

		if !evicted.Occupied {
			return nil
		}

		homeless = evicted.Element
		homelessCandidates = c.candidates(homeless)
		if hIdx, ok := c.tryPlace(homelessCandidates, true, evictedBucket); ok {
			c.slots[homelessCandidates[hIdx]] = Slot{Element: homeless, HashIndex: uint8(hIdx), Occupied: true}
			return nil
		}
	}

	return ErrCuckooOverflow
}

// candidates returns element's H candidate bucket indices.
func (c *CuckooTable) candidates(element uint64) []uint64 {
	n := c.hs.N()
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		out[i] = c.hs.Index(i, element, c.Len())
	}
	return out
}

// tryPlace looks for a free candidate slot. If ignoreBucket is set, the
// bucket index exceptBucket is skipped (used to forbid evicting straight
// back into the bucket an item was just kicked out of). Returns the hash
// index of the free slot found, if any.
func (c *CuckooTable) tryPlace(candidates []uint64, ignoreBucket bool, exceptBucket uint64) (int, bool) {
	for hIdx, bIdx := range candidates {
		if ignoreBucket && bIdx == exceptBucket {
			continue
		}
		if !c.slots[bIdx].Occupied {
			return hIdx, true
		}
	}
	return 0, false
}

// LoadFactor returns the fraction of occupied buckets, a diagnostic
// supplementing the original's bare hash-table implementation (SPEC_FULL §11.1).
func (c *CuckooTable) LoadFactor() float64 {
	occupied := 0
	for _, s := range c.slots {
		if s.Occupied {
			occupied++
		}
	}
	return float64(occupied) / float64(len(c.slots))
}
