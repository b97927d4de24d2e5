package bucket

import (
	"errors"
	"math/rand"
	"testing"
)

// modHash is a trivial, deterministic hashSet stand-in: hash function i maps
// element to (element + i*step) mod bucketCount. It is not a real keyed
// permutation, only good enough to exercise the table bookkeeping in
// isolation from internal/hashfn.
type modHash struct {
	n    int
	step uint64
}

func (m modHash) N() int { return m.n }

func (m modHash) Index(i int, element uint64, bucketCount uint64) uint64 {
	return (element + uint64(i)*m.step) % bucketCount
}

func TestCuckooInsertAndLookup(t *testing.T) {
	hs := modHash{n: 3, step: 7}
	table := NewCuckooTable(16, hs, rand.New(rand.NewSource(1)))

	inputs := []uint64{1, 2, 3, 4, 5}
	for _, v := range inputs {
		if err := table.Insert(v); err != nil {
			t.Fatalf("Insert(%d): %v", v, err)
		}
	}

	seen := make(map[uint64]bool)
	for i := uint64(0); i < table.Len(); i++ {
		if s := table.Slot(i); s.Occupied {
			seen[s.Element] = true
		}
	}
	for _, v := range inputs {
		if !seen[v] {
			t.Fatalf("element %d not found in any bucket after insertion", v)
		}
	}
	if len(seen) != len(inputs) {
		t.Fatalf("expected exactly %d occupied distinct elements, got %d", len(inputs), len(seen))
	}
}

func TestCuckooLoadFactor(t *testing.T) {
	hs := modHash{n: 3, step: 5}
	table := NewCuckooTable(8, hs, rand.New(rand.NewSource(2)))

	if lf := table.LoadFactor(); lf != 0 {
		t.Fatalf("empty table load factor = %v, want 0", lf)
	}
	for _, v := range []uint64{10, 20, 30} {
		if err := table.Insert(v); err != nil {
			t.Fatalf("Insert(%d): %v", v, err)
		}
	}
	if lf, want := table.LoadFactor(), 3.0/8.0; lf != want {
		t.Fatalf("load factor = %v, want %v", lf, want)
	}
}

// constHash maps every element to the same single candidate bucket,
// regardless of its value, so that a second distinct element can never find
// a free slot and the eviction chain can never terminate.
type constHash struct{ bucket uint64 }

func (c constHash) N() int { return 1 }

func (c constHash) Index(i int, element uint64, bucketCount uint64) uint64 { return c.bucket }

func TestCuckooEvictionOverflow(t *testing.T) {
	hs := constHash{bucket: 0}
	table := NewCuckooTable(4, hs, rand.New(rand.NewSource(3)))

	if err := table.Insert(1); err != nil {
		t.Fatalf("first insert should succeed: %v", err)
	}
	err := table.Insert(2)
	if !errors.Is(err, ErrCuckooOverflow) {
		t.Fatalf("Insert(2) error = %v, want ErrCuckooOverflow", err)
	}
}

func TestCuckooRecordsHashIndex(t *testing.T) {
	hs := modHash{n: 3, step: 9}
	table := NewCuckooTable(32, hs, rand.New(rand.NewSource(4)))

	if err := table.Insert(42); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	for i := uint64(0); i < table.Len(); i++ {
		if s := table.Slot(i); s.Occupied {
			if s.Element != 42 {
				t.Fatalf("unexpected element %d in occupied slot", s.Element)
			}
			if int(s.HashIndex) >= hs.N() {
				t.Fatalf("hash index %d out of range [0, %d)", s.HashIndex, hs.N())
			}
			return
		}
	}
	t.Fatal("no occupied slot found after insertion")
}
