// Package psisender implements the Sender Core (spec §4.6): complete
// hashing of the sender's inputs, per-bucket polynomial construction,
// homomorphic power-basis evaluation against the receiver's ciphertexts,
// and masking of the reply.
package psisender

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/schemes/bfv"

	"github.com/vetonikanika/private-labels/internal/bucket"
	"github.com/vetonikanika/private-labels/internal/bucketenc"
	"github.com/vetonikanika/private-labels/internal/hashfn"
	"github.com/vetonikanika/private-labels/internal/polybuild"
	"github.com/vetonikanika/private-labels/internal/telemetry"
	"github.com/vetonikanika/private-labels/pkg/psierrors"
	"github.com/vetonikanika/private-labels/pkg/psiparams"
)

// Observer is an optional debug hook invoked after each homomorphic stage of
// ComputeMatches, replacing the reference implementation's process-global
// secret-key leak (spec §9, "Global debug state"). budget is the standard
// deviation figure rlwe.Norm reports for the ciphertext decrypted with
// Options.DebugDecryptor (a noise-magnitude estimate, not a remaining noise
// budget); it is 0 when no debug decryptor is configured.
type Observer func(batch int, stage string, budget float64)

// Options configures a ComputeMatches call. All fields are optional.
type Options struct {
	// Observer, if set, is called after initialization, after the power
	// basis, after accumulation, and after masking, once per batch.
	Observer Observer

	// DebugDecryptor, if set, is used only to compute the Observer's noise
	// budget figures. It must never be the production secret key path: the
	// sender has no legitimate access to the receiver's secret key outside
	// of test and debug harnesses (spec §9).
	DebugDecryptor *rlwe.Decryptor
}

// Sender holds a Parameter Context and the BFV parameters derived from it,
// and drives the sender-side operation of spec §4.6.
type Sender struct {
	ctx    *psiparams.Context
	params bfv.Parameters
}

// New builds a Sender from ctx, which must already carry BFV parameters.
func New(ctx *psiparams.Context) (*Sender, error) {
	params, ok := ctx.BFVParameters()
	if !ok {
		return nil, &psierrors.ParameterError{Detail: "parameter context has no BFV parameters configured"}
	}
	return &Sender{ctx: ctx, params: params}, nil
}

// ComputeMatches runs the full sender pipeline of spec §4.6 over inputs and
// the receiver's batched ciphertexts, returning a reply ciphertext list of
// the same length as receiverInputs.
func (s *Sender) ComputeMatches(
	ctx context.Context,
	inputs []uint64,
	receiverInputs []*rlwe.Ciphertext,
	publicKey *rlwe.PublicKey,
	relinKey *rlwe.RelinearizationKey,
	opts *Options,
) ([]*rlwe.Ciphertext, error) {
	log := telemetry.FromContext(ctx, "sender")

	if opts == nil {
		opts = &Options{}
	}

	if uint64(len(inputs)) != s.ctx.SenderSize {
		return nil, &psierrors.ParameterError{Detail: "len(inputs) must equal sender_size"}
	}
	n := uint64(s.params.N())
	expectedBatches := (s.ctx.BucketCount() + n - 1) / n
	if uint64(len(receiverInputs)) != expectedBatches {
		return nil, &psierrors.ParameterError{Detail: "len(receiverInputs) does not match the expected batch count"}
	}

	seeds, ok := s.ctx.Seeds()
	if !ok {
		return nil, &psierrors.ParameterError{Detail: "parameter context has no hash seeds configured"}
	}
	hs, err := hashfn.New(seeds[:], s.ctx.InputBits)
	if err != nil {
		return nil, &psierrors.HashingError{Algorithm: "complete", Inserted: 0, Err: err}
	}

	// Step 1: complete hashing.
	capacity := s.ctx.BucketCapacity()
	table := bucket.NewCompleteTable(s.ctx.BucketCount(), capacity, hs)
	for i, element := range inputs {
		if err := table.Insert(element); err != nil {
			return nil, &psierrors.HashingError{Algorithm: "complete", Inserted: i, Err: err}
		}
	}
	log.V(1).Info("complete hashing finished", "occupancy", table.Occupancy())

	encoder := bfv.NewEncoder(s.params)
	evk := rlwe.NewMemEvaluationKeySet(relinKey)
	evaluator := bfv.NewEvaluator(s.params, evk)
	encryptor := bfv.NewEncryptor(s.params, publicKey)
	p := s.params.PlaintextModulus()

	// Step 2: per-bucket polynomial from the C (padded) slots of each
	// bucket, as plaintext-field roots via the bucket encoder.
	coeffs := make([][]uint64, s.ctx.BucketCount()) // coeffs[b][j]
	for b := uint64(0); b < s.ctx.BucketCount(); b++ {
		slots := table.Bucket(b)
		roots := make([]uint64, capacity)
		for i := uint64(0); i < capacity; i++ {
			var slot bucket.Slot
			if i < uint64(len(slots)) {
				slot = slots[i]
			}
			roots[i] = bucketenc.Encode(slot, s.ctx.BucketCountLog(), false)
		}
		coeffs[b] = polybuild.FromRoots(roots, p)
	}

	batchCount := int(expectedBatches)

	// Step 3: batch coefficients across buckets, one plaintext per
	// (batch, degree) pair.
	coeffPlaintexts := make([][]*rlwe.Plaintext, batchCount) // [batch][degree]
	for batch := 0; batch < batchCount; batch++ {
		start := uint64(batch) * n
		end := start + n
		if end > s.ctx.BucketCount() {
			end = s.ctx.BucketCount()
		}
		width := end - start

		coeffPlaintexts[batch] = make([]*rlwe.Plaintext, capacity+1)
		for j := uint64(0); j <= capacity; j++ {
			values := make([]uint64, width)
			allZero := true
			for b := start; b < end; b++ {
				v := coeffs[b][j]
				values[b-start] = v
				if v != 0 {
					allZero = false
				}
			}
			pt := bfv.NewPlaintext(s.params)
			if err := encoder.Encode(values, pt); err != nil {
				return nil, &psierrors.CryptoError{Stage: "encode bucket coefficients", Err: err}
			}
			if allZero {
				pt = nil // sentinel: skip in accumulation (spec §4.6 step 6)
			}
			coeffPlaintexts[batch][j] = pt
		}
	}

	results := make([]*rlwe.Ciphertext, batchCount)
	for batch := 0; batch < batchCount; batch++ {
		// Step 4: initialize the running sum from the degree-0 coefficient.
		constTerm := coeffPlaintexts[batch][0]
		if constTerm == nil {
			constTerm = bfv.NewPlaintext(s.params)
			if err := encoder.Encode(make([]uint64, n), constTerm); err != nil {
				return nil, &psierrors.CryptoError{Stage: "encode zero constant term", Err: err}
			}
		}
		result, err := encryptor.EncryptNew(constTerm)
		if err != nil {
			return nil, &psierrors.CryptoError{Stage: "initialize reply", Err: err}
		}
		reportBudget(opts, batch, "init", result)

		// Step 5: power basis, with the corrected even/odd dispatch
		// ((j & 1) == 0 selects squaring; the reference's "j & 2 == 0"
		// parses as always-false and never squares, spec §9).
		powers := make([]*rlwe.Ciphertext, int(capacity)+1)
		powers[1] = receiverInputs[batch]
		for j := 2; uint64(j) <= capacity; j++ {
			out := bfv.NewCiphertext(s.params, 1)
			if (j & 1) == 0 {
				if err := evaluator.MulRelin(powers[j/2], powers[j/2], out); err != nil {
					return nil, &psierrors.CryptoError{Stage: "square power basis term", Err: err}
				}
			} else {
				if err := evaluator.MulRelin(powers[j-1], powers[1], out); err != nil {
					return nil, &psierrors.CryptoError{Stage: "multiply power basis term", Err: err}
				}
			}
			powers[j] = out
		}
		reportBudget(opts, batch, "power_basis", powers[capacity])

		// Step 6: accumulate non-zero coefficient terms.
		for j := uint64(1); j <= capacity; j++ {
			coeff := coeffPlaintexts[batch][j]
			if coeff == nil {
				continue
			}
			term := bfv.NewCiphertext(s.params, 1)
			if err := evaluator.MulRelin(powers[j], coeff, term); err != nil {
				return nil, &psierrors.CryptoError{Stage: "multiply accumulation term", Err: err}
			}
			if err := evaluator.Add(result, term, result); err != nil {
				return nil, &psierrors.CryptoError{Stage: "accumulate term", Err: err}
			}
		}
		reportBudget(opts, batch, "accumulate", result)

		// Step 7: mask with uniformly random non-zero plaintext-field
		// scalars, drawn from a cryptographically secure source distinct
		// from the hashing RNG (spec §9, "Randomness").
		maskValues, err := randomNonZeroSlots(int(n), p)
		if err != nil {
			return nil, fmt.Errorf("%w: drawing masking scalars: %v", psierrors.ErrRandomSource, err)
		}
		maskPt := bfv.NewPlaintext(s.params)
		if err := encoder.Encode(maskValues, maskPt); err != nil {
			return nil, &psierrors.CryptoError{Stage: "encode masking plaintext", Err: err}
		}
		if err := evaluator.MulRelin(result, maskPt, result); err != nil {
			return nil, &psierrors.CryptoError{Stage: "mask reply", Err: err}
		}
		reportBudget(opts, batch, "mask", result)

		results[batch] = result
	}

	log.V(1).Info("sender reply computed", "batches", batchCount)
	return results, nil
}

// randomNonZeroSlots draws n independent uniformly random values in
// [1, p) using crypto/rand, the masking random source (spec §9 requires
// this be cryptographically secure and distinct from the hashing RNG).
func randomNonZeroSlots(n int, p uint64) ([]uint64, error) {
	out := make([]uint64, n)
	max := new(big.Int).SetUint64(p - 1)
	for i := range out {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			return nil, err
		}
		out[i] = v.Uint64() + 1
	}
	return out, nil
}

// reportBudget invokes opts.Observer, if set, optionally computing a noise
// budget estimate via opts.DebugDecryptor.
func reportBudget(opts *Options, batch int, stage string, ct *rlwe.Ciphertext) {
	if opts == nil || opts.Observer == nil {
		return
	}
	var budget float64
	if opts.DebugDecryptor != nil {
		std, _, _ := rlwe.Norm(ct, opts.DebugDecryptor)
		budget = std
	}
	opts.Observer(batch, stage, budget)
}
