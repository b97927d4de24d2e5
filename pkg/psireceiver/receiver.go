// Package psireceiver implements the Receiver Core (spec §4.5): key
// generation, cuckoo-hashing-then-batch-encrypt of the receiver's inputs,
// and decryption of the sender's reply into matched bucket indices.
package psireceiver

import (
	"context"
	"math/rand"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/schemes/bfv"

	"github.com/vetonikanika/private-labels/internal/bucket"
	"github.com/vetonikanika/private-labels/internal/bucketenc"
	"github.com/vetonikanika/private-labels/internal/hashfn"
	"github.com/vetonikanika/private-labels/internal/telemetry"
	"github.com/vetonikanika/private-labels/pkg/psierrors"
	"github.com/vetonikanika/private-labels/pkg/psiparams"
)

// Keys holds the receiver's key material. PublicKey and RelinearizationKey
// are sent to the sender (spec §6); SecretKey never leaves the receiver.
type Keys struct {
	SecretKey          *rlwe.SecretKey
	PublicKey          *rlwe.PublicKey
	RelinearizationKey *rlwe.RelinearizationKey
}

// Receiver holds a Parameter Context and the BFV parameters derived from it,
// and drives the two receiver-side operations of spec §4.5.
type Receiver struct {
	ctx    *psiparams.Context
	params bfv.Parameters
}

// New builds a Receiver from ctx, which must already carry BFV parameters
// (psiparams.WithBFVParameters).
func New(ctx *psiparams.Context) (*Receiver, error) {
	params, ok := ctx.BFVParameters()
	if !ok {
		return nil, &psierrors.ParameterError{Detail: "parameter context has no BFV parameters configured"}
	}
	return &Receiver{ctx: ctx, params: params}, nil
}

// GenerateKeys produces a fresh public/secret/relinearization key triple
// (spec §4.5, "Generate keys").
func (r *Receiver) GenerateKeys() (*Keys, error) {
	kgen := bfv.NewKeyGenerator(r.params)
	sk := kgen.GenSecretKeyNew()
	pk := kgen.GenPublicKeyNew(sk)

	rlk, err := psiparams.GenRelinearizationKey(r.params, sk, r.ctx.RelinDecompositionCount())
	if err != nil {
		return nil, &psierrors.CryptoError{Stage: "relinearization key generation", Err: err}
	}

	return &Keys{SecretKey: sk, PublicKey: pk, RelinearizationKey: rlk}, nil
}

// EncryptInputs runs cuckoo hashing over inputs to fill the B buckets, then
// packs and encrypts them into ⌈B/N⌉ ciphertexts (spec §4.5, "Encrypt
// inputs"). inputs is rewritten in place: on return, inputs[i] holds the
// element occupying bucket i (or an arbitrary dummy value if bucket i is
// empty, which the caller must not rely on). rng drives the cuckoo
// eviction order only (spec §9, "Randomness") and may be any *rand.Rand.
func (r *Receiver) EncryptInputs(ctx context.Context, inputs []uint64, keys *Keys, rng *rand.Rand) ([]*rlwe.Ciphertext, error) {
	log := telemetry.FromContext(ctx, "receiver")

	if uint64(len(inputs)) != r.ctx.ReceiverSize {
		return nil, &psierrors.ParameterError{Detail: "len(inputs) must equal receiver_size"}
	}

	seeds, ok := r.ctx.Seeds()
	if !ok {
		return nil, &psierrors.ParameterError{Detail: "parameter context has no hash seeds configured"}
	}
	hs, err := hashfn.New(seeds[:], r.ctx.InputBits)
	if err != nil {
		return nil, &psierrors.HashingError{Algorithm: "cuckoo", Inserted: 0, Err: err}
	}

	table := bucket.NewCuckooTable(r.ctx.BucketCount(), hs, rng)
	for i, element := range inputs {
		if err := table.Insert(element); err != nil {
			return nil, &psierrors.HashingError{Algorithm: "cuckoo", Inserted: i, Err: err}
		}
	}
	log.V(1).Info("cuckoo hashing complete", "load_factor", table.LoadFactor())

	// Rewrite the caller's input vector: position i now holds the element
	// occupying bucket i, so match bucket indices translate directly back
	// to the original inputs.
	for i := uint64(0); i < table.Len(); i++ {
		inputs[i] = table.Slot(i).Element
	}

	n := uint64(r.params.N())
	batchCount := (table.Len() + n - 1) / n

	encoder := bfv.NewEncoder(r.params)
	encryptor := bfv.NewEncryptor(r.params, keys.PublicKey)

	ciphertexts := make([]*rlwe.Ciphertext, batchCount)
	for batch := uint64(0); batch < batchCount; batch++ {
		start := batch * n
		end := start + n
		if end > table.Len() {
			end = table.Len()
		}

		values := make([]uint64, end-start)
		for i := start; i < end; i++ {
			values[i-start] = bucketenc.Encode(table.Slot(i), r.ctx.BucketCountLog(), true)
		}

		pt := bfv.NewPlaintext(r.params)
		if err := encoder.Encode(values, pt); err != nil {
			return nil, &psierrors.CryptoError{Stage: "encode receiver batch", Err: err}
		}
		ct, err := encryptor.EncryptNew(pt)
		if err != nil {
			return nil, &psierrors.CryptoError{Stage: "encrypt receiver batch", Err: err}
		}
		ciphertexts[batch] = ct
	}

	log.V(1).Info("receiver inputs encrypted", "batches", batchCount)
	return ciphertexts, nil
}

// DecryptMatches decrypts the sender's reply and returns the bucket indices
// whose decoded slot is zero (spec §4.5, "Decrypt matches"). replies must
// have the same length as the ciphertext list EncryptInputs produced.
func (r *Receiver) DecryptMatches(ctx context.Context, replies []*rlwe.Ciphertext, keys *Keys) ([]uint64, error) {
	log := telemetry.FromContext(ctx, "receiver")

	n := uint64(r.params.N())
	expectedBatches := (r.ctx.BucketCount() + n - 1) / n
	if uint64(len(replies)) != expectedBatches {
		return nil, &psierrors.ParameterError{Detail: "len(replies) does not match the number of batches sent"}
	}

	decryptor := bfv.NewDecryptor(r.params, keys.SecretKey)
	encoder := bfv.NewEncoder(r.params)

	var matches []uint64
	for batch, ct := range replies {
		pt := decryptor.DecryptNew(ct)

		values := make([]uint64, n)
		if err := encoder.Decode(pt, values); err != nil {
			return nil, &psierrors.CryptoError{Stage: "decode sender reply", Err: err}
		}

		for slot, v := range values {
			if v != 0 {
				continue
			}
			bucketIdx := uint64(batch)*n + uint64(slot)
			if bucketIdx >= r.ctx.BucketCount() {
				continue
			}
			matches = append(matches, bucketIdx)
		}
	}

	log.V(1).Info("decrypted reply", "matches", len(matches))
	return matches, nil
}
