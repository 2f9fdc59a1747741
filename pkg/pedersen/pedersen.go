// Package pedersen implements ring-Pedersen commitment parameters (spec
// component C): a modulus N shared with a party's Paillier key, together
// with generators s, t of a cyclic subgroup of Z_N^* of order dividing
// phi(N). These back every range proof's "equality mod phi(N)" check.
package pedersen

import (
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/pkg/math/sample"
)

// Parameters is the public ring-Pedersen commitment key (N, s, t).
type Parameters struct {
	n    *saferith.Modulus
	nNat *saferith.Nat
	s, t *saferith.Nat
}

// NewParameters wraps a modulus and a pair of generators into Parameters
// without validating them; use Validate to check well-formedness of
// externally received parameters.
func NewParameters(n *saferith.Modulus, s, t *saferith.Nat) *Parameters {
	return &Parameters{n: n, nNat: n.Nat(), s: s, t: t}
}

func (p *Parameters) N() *saferith.Modulus { return p.n }
func (p *Parameters) S() *saferith.Nat     { return p.s }
func (p *Parameters) T() *saferith.Nat     { return p.t }

// Commit computes s^x * t^y mod N, the ring-Pedersen commitment to the pair
// (x, y). x and y are typically large signed integers (e.g. values being
// range-proved), so they're reduced mod phi(N) implicitly by the group
// having order dividing phi(N).
func (p *Parameters) Commit(x, y *saferith.Int) *saferith.Nat {
	sx := expSigned(p.s, x, p.n)
	ty := expSigned(p.t, y, p.n)
	return new(saferith.Nat).ModMul(sx, ty, p.n)
}

// Verify reports whether s^x1 * t^y1 == (s^x2 * t^y2)^e (mod N), the
// equation every Π_prm-style response check reduces to.
func (p *Parameters) Verify(x1, y1, x2, y2 *saferith.Int, e *saferith.Int) bool {
	lhs := p.Commit(x1, y1)
	rhsBase := p.Commit(x2, y2)
	rhs := expSigned(rhsBase, e, p.n)
	return lhs.Eq(rhs) == 1
}

// Validate performs the cheap, publicly-checkable sanity tests on received
// parameters: N is large enough, and s, t are distinct non-trivial units of
// Z_N^*. It cannot verify that s, t actually generate a subgroup of order
// dividing phi(N); that requires the accompanying Π_prm proof.
func (p *Parameters) Validate() error {
	if p.n.BitLen() < 2047 {
		return errInvalid("modulus too small")
	}
	if p.s.Eq(p.t) == 1 {
		return errInvalid("s and t must be distinct")
	}
	nBig := p.nNat.Big()
	for _, v := range []*saferith.Nat{p.s, p.t} {
		vBig := v.Big()
		if vBig.Sign() == 0 {
			return errInvalid("generator is zero")
		}
		if new(big.Int).GCD(nil, nil, vBig, nBig).Cmp(big.NewInt(1)) != 0 {
			return errInvalid("generator is not a unit mod N")
		}
	}
	return nil
}

type validationError string

func (e validationError) Error() string { return "pedersen: " + string(e) }
func errInvalid(msg string) error       { return validationError(msg) }

// expSigned computes base^e mod n for a signed exponent e, inverting base
// first when e is negative.
func expSigned(base *saferith.Nat, e *saferith.Int, n *saferith.Modulus) *saferith.Nat {
	eBig := e.Big()
	b := base
	if eBig.Sign() < 0 {
		b = new(saferith.Nat).ModInverse(base, n)
		eBig = new(big.Int).Abs(eBig)
	}
	exp := new(saferith.Nat).SetBig(eBig, n.BitLen())
	return new(saferith.Nat).Exp(b, exp, n)
}

// GenerateParameters samples a fresh ring-Pedersen key pair over the given
// Paillier-style modulus N with known totient phi: a random tau in Z_N^* is
// squared to land in the subgroup of squares, then raised to a random
// exponent lambda to produce the second generator. lambda is returned so
// the caller can build a Π_prm proof of correct generation.
func GenerateParameters(rnd io.Reader, n *saferith.Modulus, phi *saferith.Nat) (params *Parameters, lambda *saferith.Nat) {
	phiModulus := saferith.ModulusFromNat(phi)
	lambda = sample.UnitModN(rnd, phiModulus)
	tau := sample.UnitModN(rnd, n)
	t := new(saferith.Nat).ModMul(tau, tau, n)
	s := new(saferith.Nat).Exp(t, lambda, n)
	return &Parameters{n: n, nNat: n.Nat(), s: s, t: t}, lambda
}
