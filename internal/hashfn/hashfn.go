// Package hashfn builds the H keyed hash functions shared by the cuckoo and
// complete hashing algorithms (spec §4.2, "Hash function definition" and
// "Permutation-based hashing").
//
// Each h_i is constructed as a keyed pseudorandom permutation over the full
// element domain [0, 2^input_bits), reduced modulo the bucket count. Using a
// permutation (rather than an arbitrary keyed hash) guarantees the
// injectivity-on-preserved-bits property spec §4.2 requires for the bucket
// encoder's low-bit truncation to be sound. SipHash is used only to turn the
// H shared 64-bit seeds into H independent permutation keys; it plays the
// role of the "keyed PRF" spec §4.2 names as a concrete hash policy.
package hashfn

import (
	"encoding/binary"
	"fmt"

	"github.com/dchest/siphash"
)

// Set holds the H keyed permutations derived from the protocol seeds. The
// receiver's cuckoo hashing and the sender's complete hashing each build
// their own Set; two Sets built from identical seeds and input_bits compute
// identical bucket indices.
type Set struct {
	perms []permutation
}

type permutation interface {
	Shuffle(n uint64) uint64
}

// kenslerFactory lets the hashing layer swap in a deterministic fake during
// tests without importing internal/permute directly into test files outside
// this package's control.
var kenslerFactory = func(domain, key uint64) (permutation, error) {
	return newKensler(domain, key)
}

// New builds a Set of len(seeds) keyed permutations over [0, 2^inputBits).
func New(seeds []uint64, inputBits uint) (*Set, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("hashfn: at least one seed is required")
	}
	if inputBits == 0 || inputBits > 32 {
		return nil, fmt.Errorf("hashfn: input_bits must be in [1, 32], got %d", inputBits)
	}
	domain := uint64(1) << inputBits

	perms := make([]permutation, len(seeds))
	for i, seed := range seeds {
		key := derive(seed, uint64(i))
		p, err := kenslerFactory(domain, key)
		if err != nil {
			return nil, fmt.Errorf("hashfn: building permutation %d: %w", i, err)
		}
		perms[i] = p
	}
	return &Set{perms: perms}, nil
}

// derive turns a shared 64-bit seed and a hash-function index into an
// independent 64-bit permutation key via SipHash-2-4, keyed by the seed
// itself (doubled to fill SipHash's 128-bit key).
func derive(seed, index uint64) uint64 {
	var msg [8]byte
	binary.LittleEndian.PutUint64(msg[:], index)
	return siphash.Hash(seed, seed, msg[:])
}

// N returns the number of hash functions in the set.
func (s *Set) N() int {
	return len(s.perms)
}

// BucketIndices returns, for element, the candidate bucket index under each
// of the H hash functions, reduced modulo bucketCount.
func (s *Set) BucketIndices(element uint64, bucketCount uint64) []uint64 {
	out := make([]uint64, len(s.perms))
	for i, p := range s.perms {
		out[i] = p.Shuffle(element) % bucketCount
	}
	return out
}

// Index returns the candidate bucket index of element under hash function i.
func (s *Set) Index(i int, element uint64, bucketCount uint64) uint64 {
	return s.perms[i].Shuffle(element) % bucketCount
}
