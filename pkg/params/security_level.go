// Package params bundles the numeric security parameters that size every
// sampled value and zero-knowledge proof bound in this module.
//
// It mirrors the `security_level` module described in the spec and in
// original_source/cggmp21/src/security_level.rs: a single struct threaded
// through every round, rather than a set of global constants, so that
// tests can run against a much smaller (and much faster) profile.
package params

// SecurityLevel bundles (kappa, epsilon, ell, ell', m, q) as described in
// the spec's component B.
type SecurityLevel struct {
	// Kappa is the main computational security parameter, in bits.
	Kappa int
	// Epsilon is the slack added to range proofs to keep them statistically
	// hiding, in bits.
	Epsilon int
	// Ell is the bit-size of the range that honestly-sampled values
	// (gamma, k, x) are proven to lie in.
	Ell int
	// EllPrime is the bit-size of the (larger) range used for the
	// multiplicative parts of the affine-group proof (beta, beta-hat).
	EllPrime int
	// M is the number of repetitions used by Pi_mod, Pi_prm and Pi_fac to
	// reach the target soundness error 2^-M.
	M int
	// QBits is the bit-size of the statistical-security bound q = 2^QBits
	// used inside several range proofs.
	QBits int
}

// ReasonablySecure is the default profile recommended by the CGGMP'21 paper
// and used throughout the reference implementation and its test vectors.
func ReasonablySecure() SecurityLevel {
	return SecurityLevel{
		Kappa:    384,
		Epsilon:  230,
		Ell:      256,
		EllPrime: 848,
		M:        128,
		QBits:    128,
	}
}

// InsecureForTesting trims every parameter down so that Paillier keys and
// zero-knowledge proofs are cheap enough to generate in unit tests. It must
// never be used outside of tests.
func InsecureForTesting() SecurityLevel {
	return SecurityLevel{
		Kappa:    64,
		Epsilon:  32,
		Ell:      128,
		EllPrime: 160,
		M:        8,
		QBits:    32,
	}
}

// RIDBytes is the byte length of a rid/chain-key value: kappa/8.
func (l SecurityLevel) RIDBytes() int {
	return (l.Kappa + 7) / 8
}

// PaillierBitsPerPrime is the bit-length of each of the two safe primes
// making up a Paillier modulus: 4*kappa.
func (l SecurityLevel) PaillierBitsPerPrime() int {
	return 4 * l.Kappa
}

// PaillierModulusBits is the minimum acceptable bit-length of a received
// Paillier modulus N = p*q: 8*kappa - 1.
func (l SecurityLevel) PaillierModulusBits() int {
	return 8*l.Kappa - 1
}

// PedersenBits is the bit length used for ring-Pedersen moduli; identical
// to the Paillier modulus size since they share the same N.
func (l SecurityLevel) PedersenBits() int {
	return l.PaillierModulusBits()
}
