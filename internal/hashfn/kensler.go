package hashfn

import "github.com/vetonikanika/private-labels/internal/permute"

// newKensler adapts internal/permute.Kensler to the permutation interface.
func newKensler(domain, key uint64) (permutation, error) {
	return permute.NewKensler(domain, key)
}
