package hashfn

import "testing"

func TestNewRejectsBadInputs(t *testing.T) {
	if _, err := New(nil, 16); err == nil {
		t.Fatal("expected an error for an empty seed list")
	}
	if _, err := New([]uint64{1}, 0); err == nil {
		t.Fatal("expected an error for input_bits == 0")
	}
	if _, err := New([]uint64{1}, 33); err == nil {
		t.Fatal("expected an error for input_bits > 32")
	}
}

func TestNewBuildsOneFunctionPerSeed(t *testing.T) {
	seeds := []uint64{1, 2, 3}
	set, err := New(seeds, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if set.N() != len(seeds) {
		t.Fatalf("N() = %d, want %d", set.N(), len(seeds))
	}
}

func TestIndexIsDeterministic(t *testing.T) {
	seeds := []uint64{42, 43, 44}
	set1, err := New(seeds, 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	set2, err := New(seeds, 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, element := range []uint64{0, 1, 12345, (1 << 20) - 1} {
		for i := 0; i < set1.N(); i++ {
			a := set1.Index(i, element, 256)
			b := set2.Index(i, element, 256)
			if a != b {
				t.Fatalf("two Sets built from identical seeds diverged at hash %d, element %d: %d != %d", i, element, a, b)
			}
		}
	}
}

func TestIndexRespectsBucketCount(t *testing.T) {
	set, err := New([]uint64{7, 8, 9}, 24)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for element := uint64(0); element < 2000; element++ {
		for i := 0; i < set.N(); i++ {
			if idx := set.Index(i, element, 64); idx >= 64 {
				t.Fatalf("Index(%d, %d, 64) = %d, out of range", i, element, idx)
			}
		}
	}
}

func TestDifferentSeedsGiveDifferentPermutations(t *testing.T) {
	setA, err := New([]uint64{1, 2, 3}, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	setB, err := New([]uint64{100, 200, 300}, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	differ := false
	for element := uint64(0); element < 512; element++ {
		if setA.Index(0, element, 1024) != setB.Index(0, element, 1024) {
			differ = true
			break
		}
	}
	if !differ {
		t.Fatal("two Sets built from different seeds produced identical hash-0 output across the whole sample")
	}
}

func TestBucketIndicesMatchesIndex(t *testing.T) {
	set, err := New([]uint64{1, 2, 3}, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	const element, bucketCount = 1234, 128
	got := set.BucketIndices(element, bucketCount)
	if len(got) != set.N() {
		t.Fatalf("len(BucketIndices) = %d, want %d", len(got), set.N())
	}
	for i, idx := range got {
		if want := set.Index(i, element, bucketCount); idx != want {
			t.Fatalf("BucketIndices()[%d] = %d, want %d (from Index)", i, idx, want)
		}
	}
}
