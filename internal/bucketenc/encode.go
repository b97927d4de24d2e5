// Package bucketenc implements the Bucket Encoder (spec §4.4): it maps a
// bucket slot to a single plaintext-field integer, consistently between the
// receiver and the sender, following the same scheme as
// original_source/src/psi.cpp's encode_bucket_element.
package bucketenc

import "github.com/vetonikanika/private-labels/internal/bucket"

// dummyTag marks an empty slot; receiverBit and senderBit give the receiver
// and the sender two distinct dummy encodings, so a receiver dummy can never
// match a root of a sender bucket's polynomial (spec §3, "Encoded bucket
// value").
const (
	dummyTag    = 3
	receiverBit = 1
	senderBit   = 0
)

// Encode maps slot to its plaintext-field integer, given L = bucketCountLog
// (the number of low bits already captured by the bucket index and
// therefore stripped from the encoded element).
//
//	(element, h)      -> ((element >> L) << 2) | h,  h in {0,1,2}
//	empty, receiver   -> (1 << 2) | 3
//	empty, sender     -> (0 << 2) | 3
func Encode(slot bucket.Slot, bucketCountLog uint, isReceiver bool) uint64 {
	if slot.Occupied {
		return ((slot.Element >> bucketCountLog) << 2) | uint64(slot.HashIndex)
	}
	if isReceiver {
		return (receiverBit << 2) | dummyTag
	}
	return (senderBit << 2) | dummyTag
}

// Decode is the inverse of Encode for occupied slots: it recovers the
// element's high bits (element >> L) and the hash index. ok is false if
// encoded is one of the two dummy encodings.
func Decode(encoded uint64, bucketCountLog uint) (highBits uint64, hashIndex uint8, ok bool) {
	tag := encoded & 0x3
	if tag == dummyTag {
		return 0, 0, false
	}
	return encoded >> 2, uint8(tag), true
}
