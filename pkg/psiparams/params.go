// Package psiparams implements the Parameter Context (spec §4.1): the
// shared, read-only protocol parameters both the receiver and the sender
// build their cores from.
package psiparams

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/schemes/bfv"

	"github.com/vetonikanika/private-labels/internal/bucket"
	"github.com/vetonikanika/private-labels/pkg/psierrors"
)

// Nhash is the fixed number of hash functions used by both hashing
// algorithms (spec §4.1: "H = 3").
const Nhash = bucket.Nhash

// DefaultBucketCapacity is the sender's per-bucket capacity C. The
// reference implementation hard-codes 10 as a placeholder (spec §4.1,
// §9): "real deployments should look up [CLR17, Table 1]" for the value
// matching their target failure probability. This constant is kept only as
// the fallback when the caller does not supply WithBucketCapacity.
const DefaultBucketCapacity = 10

// DefaultRelinDecompositionCount mirrors the original's keygen.relin_keys(8)
// (spec §4.5: "decomposition count left to caller, default 8").
const DefaultRelinDecompositionCount = 8

// Context holds the public protocol parameters (spec §4.1) plus the BFV
// parameters of the homomorphic-encryption collaborator. It is built once
// and shared, read-only, by both parties.
type Context struct {
	ReceiverSize uint64
	SenderSize   uint64
	InputBits    uint

	bucketCountLog uint
	bucketCapacity uint64

	seeds     [Nhash]uint64
	haveSeeds bool

	bfvParams               bfv.Parameters
	haveBFVParams           bool
	relinDecompositionCount int
}

// Option configures a Context at construction time.
type Option func(*Context)

// WithBucketCapacity overrides DefaultBucketCapacity.
func WithBucketCapacity(c uint64) Option {
	return func(ctx *Context) { ctx.bucketCapacity = c }
}

// WithSeeds pins the H hash-function seeds explicitly. The sender must use
// this (spec §4.1: "required for the sender, which must use the same seeds
// as the receiver"); the receiver may instead call GenerateSeeds.
func WithSeeds(seeds [Nhash]uint64) Option {
	return func(ctx *Context) {
		ctx.seeds = seeds
		ctx.haveSeeds = true
	}
}

// WithBFVParameters supplies the already-constructed BFV parameters of the
// homomorphic-encryption collaborator (spec §6). Parameter Context does not
// construct these itself; it only validates them against the protocol's
// batching and encoding requirements.
func WithBFVParameters(p bfv.Parameters) Option {
	return func(ctx *Context) {
		ctx.bfvParams = p
		ctx.haveBFVParams = true
	}
}

// WithRelinDecompositionCount overrides DefaultRelinDecompositionCount.
func WithRelinDecompositionCount(n int) Option {
	return func(ctx *Context) { ctx.relinDecompositionCount = n }
}

// New builds a Parameter Context for the given set sizes and element
// bit-width (spec §4.1). Derived sizes (bucket_count_log, B) are computed
// immediately; seeds may be supplied via WithSeeds or filled in afterward
// with GenerateSeeds, while BFV parameters can only be supplied here, via
// WithBFVParameters.
func New(receiverSize, senderSize uint64, inputBits uint, opts ...Option) (*Context, error) {
	if receiverSize == 0 || senderSize == 0 {
		return nil, &psierrors.ParameterError{Detail: "receiver_size and sender_size must be positive"}
	}
	if inputBits == 0 || inputBits > 32 {
		return nil, &psierrors.ParameterError{Detail: fmt.Sprintf("input_bits must be in [1, 32], got %d", inputBits)}
	}

	ctx := &Context{
		ReceiverSize:            receiverSize,
		SenderSize:              senderSize,
		InputBits:               inputBits,
		bucketCountLog:          bucketCountLog(receiverSize),
		bucketCapacity:          DefaultBucketCapacity,
		relinDecompositionCount: DefaultRelinDecompositionCount,
	}
	for _, opt := range opts {
		opt(ctx)
	}

	if ctx.haveBFVParams {
		if err := ctx.validateBFVParams(); err != nil {
			return nil, err
		}
	}

	return ctx, nil
}

// bucketCountLog computes ceil(log2(receiverSize)) + 1 (spec §4.1).
func bucketCountLog(receiverSize uint64) uint {
	log := uint(0)
	for (uint64(1) << log) < receiverSize {
		log++
	}
	return log + 1
}

// BucketCountLog returns bucket_count_log.
func (ctx *Context) BucketCountLog() uint {
	return ctx.bucketCountLog
}

// BucketCount returns B = 2^bucket_count_log.
func (ctx *Context) BucketCount() uint64 {
	return bucket.BucketCount(ctx.bucketCountLog)
}

// BucketCapacity returns C.
func (ctx *Context) BucketCapacity() uint64 {
	return ctx.bucketCapacity
}

// RelinDecompositionCount returns the relinearization-key decomposition
// count to use at key generation (spec §4.5).
func (ctx *Context) RelinDecompositionCount() int {
	return ctx.relinDecompositionCount
}

// Seeds returns the H agreed-upon hash seeds, and whether they have been
// set (via GenerateSeeds or WithSeeds).
func (ctx *Context) Seeds() ([Nhash]uint64, bool) {
	return ctx.seeds, ctx.haveSeeds
}

// GenerateSeeds draws H fresh 64-bit seeds from r (crypto/rand.Reader if
// r is nil) and stores them on the Context. The receiver calls this and
// then exposes the seeds to the sender (spec §4.1: "freshly generated from
// a cryptographic random source and exposed to the sender").
func (ctx *Context) GenerateSeeds(r io.Reader) error {
	if r == nil {
		r = rand.Reader
	}
	var buf [8]byte
	for i := 0; i < Nhash; i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return fmt.Errorf("%w: reading hash seed %d: %v", psierrors.ErrRandomSource, i, err)
		}
		ctx.seeds[i] = binary.LittleEndian.Uint64(buf[:])
	}
	ctx.haveSeeds = true
	return nil
}

// BFVParameters returns the configured BFV parameters and whether they have
// been set.
func (ctx *Context) BFVParameters() (bfv.Parameters, bool) {
	return ctx.bfvParams, ctx.haveBFVParams
}

// validateBFVParams checks the invariants of spec §3: the plaintext
// modulus must support batching (p ≡ 1 mod 2N) and must be large enough
// that no encoded bucket value (spec §4.4) can overflow it.
func (ctx *Context) validateBFVParams() error {
	p := ctx.bfvParams
	n := uint64(p.N())
	t := p.PlaintextModulus()

	if t%(2*n) != 1 {
		return &psierrors.ParameterError{Detail: fmt.Sprintf("plaintext modulus %d is not ≡ 1 (mod 2*%d), batching requires it", t, n)}
	}

	// Encoded values occupy (input_bits - bucket_count_log) high bits plus
	// a 2-bit tag (spec §4.4); require the plaintext modulus comfortably
	// exceeds the largest representable encoded value.
	if ctx.bucketCountLog > ctx.InputBits {
		return &psierrors.ParameterError{Detail: "bucket_count_log exceeds input_bits; choose a larger input_bits or smaller receiver_size"}
	}
	highBits := ctx.InputBits - ctx.bucketCountLog
	bound := uint64(1) << uint(math.Min(float64(highBits+2), 63))
	if t <= bound {
		return &psierrors.ParameterError{Detail: fmt.Sprintf("plaintext modulus %d is too small to hold encoded values of up to %d bits", t, highBits+2)}
	}

	return nil
}

// GenRelinearizationKey generates a relinearization key for sk under the
// given decomposition count (callers pass Context.RelinDecompositionCount).
func GenRelinearizationKey(params bfv.Parameters, sk *rlwe.SecretKey, decompositionCount int) (*rlwe.RelinearizationKey, error) {
	kgen := bfv.NewKeyGenerator(params)
	bpw2 := decompositionCount
	rlk := rlwe.NewRelinearizationKey(params, rlwe.EvaluationKeyParameters{BaseTwoDecomposition: &bpw2})
	kgen.GenRelinearizationKey(sk, rlk)
	return rlk, nil
}
