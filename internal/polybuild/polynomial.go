// Package polybuild computes the coefficients of a monic polynomial given
// its roots over Z_p (spec §4.3), following the shift-and-subtract method of
// original_source/src/psi.cpp's polynomial_from_roots.
package polybuild

// FromRoots returns the n+1 coefficients a_0..a_n of
// f(x) = prod_{j=0}^{n-1} (x - roots[j])  (mod p), with a_n = 1.
// Coefficients are returned in ascending degree order: coeffs[i] is the
// coefficient of x^i. Repeated roots are permitted and simply produce a
// repeated factor (spec §4.3: "correct and intended").
func FromRoots(roots []uint64, p uint64) []uint64 {
	coeffs := make([]uint64, 1, len(roots)+1)
	coeffs[0] = 1 % p

	for _, r := range roots {
		coeffs = mulLinear(coeffs, r, p)
	}
	return coeffs
}

// mulLinear multiplies the polynomial coeffs (ascending degree) by (x - r)
// modulo p, returning a new slice of length len(coeffs)+1.
func mulLinear(coeffs []uint64, r, p uint64) []uint64 {
	out := make([]uint64, len(coeffs)+1)
	for i, c := range coeffs {
		// x * coeffs contributes c to degree i+1.
		out[i+1] = addMod(out[i+1], c, p)
		// -r * coeffs contributes (p - (c*r mod p)) mod p to degree i.
		out[i] = addMod(out[i], negMod(mulMod(c, r, p), p), p)
	}
	return out
}

func addMod(a, b, p uint64) uint64 {
	a %= p
	b %= p
	s := a + b
	if s >= p || s < a {
		s -= p
	}
	return s
}

func negMod(a, p uint64) uint64 {
	a %= p
	if a == 0 {
		return 0
	}
	return p - a
}

// mulMod multiplies a and b modulo p without overflowing uint64, by
// double-and-add: every intermediate value is reduced through addMod, so no
// 128-bit product is ever formed.
func mulMod(a, b, p uint64) uint64 {
	a %= p
	b %= p
	var result uint64
	for b > 0 {
		if b&1 == 1 {
			result = addMod(result, a, p)
		}
		a = addMod(a, a, p)
		b >>= 1
	}
	return result
}
