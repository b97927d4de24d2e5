// Package bucket implements the two hashing algorithms of spec §4.2: cuckoo
// hashing (receiver side, one slot per input) and complete hashing (sender
// side, H slots per input). Both operate over the same bucket-index space,
// sized and seeded by the shared Parameter Context.
package bucket

import "github.com/vetonikanika/private-labels/internal/hashfn"

// Nhash is the fixed number of hash functions used throughout the protocol
// (spec §4.1: "H = 3").
const Nhash = 3

// Slot is a single bucket slot: either empty, or an (element, hash index)
// pair recording which of the Nhash hash functions placed the element here
// (spec §3, "Bucket slot").
type Slot struct {
	Element   uint64
	HashIndex uint8
	Occupied  bool
}

// BucketCount returns 2^bucketCountLog, the B of spec §3/§4.1.
func BucketCount(bucketCountLog uint) uint64 {
	return uint64(1) << bucketCountLog
}

// hashSet is the subset of hashfn.Set's behavior the hashing algorithms
// depend on; both CuckooTable and CompleteTable are built against it so
// tests can substitute a trivial stand-in.
type hashSet interface {
	N() int
	Index(i int, element uint64, bucketCount uint64) uint64
}

var _ hashSet = (*hashfn.Set)(nil)
