package bucket

import (
	"errors"
	"testing"
)

func TestCompleteHashingPlacesAllCandidates(t *testing.T) {
	hs := modHash{n: 3, step: 5}
	table := NewCompleteTable(16, 4, hs)

	if err := table.Insert(7); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	found := 0
	for i := uint64(0); i < table.Len(); i++ {
		for _, s := range table.Bucket(i) {
			if s.Occupied && s.Element == 7 {
				found++
			}
		}
	}
	if found != hs.N() {
		t.Fatalf("element placed in %d buckets, want %d (one per hash function)", found, hs.N())
	}
}

func TestCompleteHashingCapacityOverflowLeavesNoPartialInsert(t *testing.T) {
	// Every candidate collapses onto the same single bucket, so the second
	// element should overflow that bucket's capacity of 1.
	hs := constHash{bucket: 0}
	table := NewCompleteTable(4, 1, hs)

	if err := table.Insert(1); err != nil {
		t.Fatalf("first insert should succeed: %v", err)
	}
	err := table.Insert(2)
	if !errors.Is(err, ErrCompleteHashOverflow) {
		t.Fatalf("Insert(2) error = %v, want ErrCompleteHashOverflow", err)
	}
	if len(table.Bucket(0)) != 1 {
		t.Fatalf("bucket 0 has %d entries after a failed insert, want exactly 1 (no partial insert)", len(table.Bucket(0)))
	}
}

func TestCompleteHashingOccupancy(t *testing.T) {
	hs := modHash{n: 3, step: 3}
	table := NewCompleteTable(8, 4, hs)

	if occ := table.Occupancy(); occ != 0 {
		t.Fatalf("empty table occupancy = %v, want 0", occ)
	}
	if err := table.Insert(1); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	want := float64(hs.N()) / float64(8*4)
	if occ := table.Occupancy(); occ != want {
		t.Fatalf("occupancy = %v, want %v", occ, want)
	}
}

func TestCompleteHashingDuplicateElementAccumulates(t *testing.T) {
	hs := modHash{n: 3, step: 5}
	table := NewCompleteTable(16, 4, hs)

	for i := 0; i < 3; i++ {
		if err := table.Insert(99); err != nil {
			t.Fatalf("Insert #%d: %v", i, err)
		}
	}

	total := 0
	for i := uint64(0); i < table.Len(); i++ {
		for _, s := range table.Bucket(i) {
			if s.Occupied && s.Element == 99 {
				total++
			}
		}
	}
	if total != 3*hs.N() {
		t.Fatalf("found %d copies of the duplicated element, want %d", total, 3*hs.N())
	}
}
