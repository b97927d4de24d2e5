// Package psi wires the Receiver Core and Sender Core together into a
// single in-process protocol run, for callers that hold both parties'
// inputs (tests, examples, local benchmarking). A real deployment runs the
// two cores in separate processes and ships the External Interfaces of
// spec §6 over its own transport.
package psi

import (
	"context"
	"math/rand"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"

	"github.com/vetonikanika/private-labels/pkg/psiparams"
	"github.com/vetonikanika/private-labels/pkg/psireceiver"
	"github.com/vetonikanika/private-labels/pkg/psisender"
)

// Result is the outcome of a single in-process protocol run.
type Result struct {
	// MatchedBucketIndices are the bucket indices the receiver decrypted
	// as matches (psireceiver.DecryptMatches's return value).
	MatchedBucketIndices []uint64

	// MatchedElements are the receiver's own input elements occupying
	// those bucket indices, i.e. the actual intersection members.
	MatchedElements []uint64
}

// Keys mirrors the library boundary of spec §6 (receiver-to-sender): the
// public key and relinearization key, both of which implement lattigo's own
// binary serialization for shipping across a real transport.
type Keys struct {
	PublicKey          *rlwe.PublicKey
	RelinearizationKey *rlwe.RelinearizationKey
}

// Run executes one full protocol round over pctx's parameters: receiver key
// generation, receiver hashing and encryption, sender hashing and
// homomorphic evaluation, and receiver decryption. senderOpts may be nil.
func Run(
	ctx context.Context,
	pctx *psiparams.Context,
	receiverInputs []uint64,
	senderInputs []uint64,
	rng *rand.Rand,
	senderOpts *psisender.Options,
) (*Result, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	recv, err := psireceiver.New(pctx)
	if err != nil {
		return nil, err
	}
	send, err := psisender.New(pctx)
	if err != nil {
		return nil, err
	}

	keys, err := recv.GenerateKeys()
	if err != nil {
		return nil, err
	}

	// EncryptInputs rewrites receiverInputs in place: position i becomes
	// the element occupying bucket i.
	bucketed := make([]uint64, len(receiverInputs))
	copy(bucketed, receiverInputs)

	ciphertexts, err := recv.EncryptInputs(ctx, bucketed, keys, rng)
	if err != nil {
		return nil, err
	}

	replies, err := send.ComputeMatches(ctx, senderInputs, ciphertexts, keys.PublicKey, keys.RelinearizationKey, senderOpts)
	if err != nil {
		return nil, err
	}

	matches, err := recv.DecryptMatches(ctx, replies, keys)
	if err != nil {
		return nil, err
	}

	elements := make([]uint64, len(matches))
	for i, idx := range matches {
		elements[i] = bucketed[idx]
	}

	return &Result{MatchedBucketIndices: matches, MatchedElements: elements}, nil
}
