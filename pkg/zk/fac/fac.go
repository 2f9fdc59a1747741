// Package fac implements Π_fac, the zero-knowledge proof that a party's
// Paillier modulus N = p*q has both factors of roughly equal, sufficiently
// large bit length, ruling out a cheating party picking a weak N (e.g. one
// with a tiny factor) while still hiding p and q themselves.
package fac

import (
	"crypto/rand"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/math/sample"
	"github.com/cobaltss/cggmp21/pkg/params"
	"github.com/cobaltss/cggmp21/pkg/pedersen"
)

// Public is the statement: N's factors are balanced and large enough.
// Aux is a verifier-owned ring-Pedersen key over a DIFFERENT modulus N_hat,
// used only to blind the commitments below (never N itself).
type Public struct {
	N   *saferith.Modulus
	Aux *pedersen.Parameters
}

// Private is the witness: the factorization of N.
type Private struct {
	P, Q *saferith.Nat
}

// Proof is a non-interactive Π_fac proof: Pedersen commitments to p and q,
// plus a Schnorr-style opening proof that each lies in the expected range.
type Proof struct {
	P, Q   *saferith.Nat
	A, B   *saferith.Nat
	Z1, Z2 *big.Int
	W1, W2 *big.Int
}

func bigAsInt(v *big.Int) *saferith.Int {
	return new(saferith.Int).SetBig(v, v.BitLen()+1)
}

// NewProof builds a Π_fac proof that N's factorization in priv has balanced
// bit length around sl.QBits/2 each.
func NewProof(sl params.SecurityLevel, transcript *hash.Hash, pub Public, priv Private) *Proof {
	rangeBits := sl.Ell + sl.Epsilon + sl.QBits/2

	mu := sample.IntervalPM(rand.Reader, sl.Ell+sl.QBits)
	nu := sample.IntervalPM(rand.Reader, sl.Ell+sl.QBits)
	alpha := sample.IntervalPM(rand.Reader, rangeBits)
	beta := sample.IntervalPM(rand.Reader, rangeBits)
	x := sample.IntervalPM(rand.Reader, sl.Ell+sl.Epsilon+sl.QBits)
	y := sample.IntervalPM(rand.Reader, sl.Ell+sl.Epsilon+sl.QBits)

	P := pub.Aux.Commit(bigAsInt(priv.P.Big()), bigAsInt(mu))
	Q := pub.Aux.Commit(bigAsInt(priv.Q.Big()), bigAsInt(nu))
	A := pub.Aux.Commit(bigAsInt(alpha), bigAsInt(x))
	B := pub.Aux.Commit(bigAsInt(beta), bigAsInt(y))

	e := challenge(transcript, pub, P, Q, A, B)

	z1 := new(big.Int).Mul(e, priv.P.Big())
	z1.Add(z1, alpha)
	z2 := new(big.Int).Mul(e, priv.Q.Big())
	z2.Add(z2, beta)
	w1 := new(big.Int).Mul(e, mu)
	w1.Add(w1, x)
	w2 := new(big.Int).Mul(e, nu)
	w2.Add(w2, y)

	return &Proof{P: P, Q: Q, A: A, B: B, Z1: z1, Z2: z2, W1: w1, W2: w2}
}

// Verify checks the proof against pub.
func (p *Proof) Verify(sl params.SecurityLevel, transcript *hash.Hash, pub Public) bool {
	if p == nil {
		return false
	}
	nHat := pub.Aux.N()
	e := challenge(transcript, pub, p.P, p.Q, p.A, p.B)
	eNat := new(saferith.Nat).SetBig(e, e.BitLen()+1)

	lhs1 := pub.Aux.Commit(bigAsInt(p.Z1), bigAsInt(p.W1))
	rhs1 := new(saferith.Nat).ModMul(p.A, new(saferith.Nat).Exp(p.P, eNat, nHat), nHat)
	if lhs1.Eq(rhs1) != 1 {
		return false
	}

	lhs2 := pub.Aux.Commit(bigAsInt(p.Z2), bigAsInt(p.W2))
	rhs2 := new(saferith.Nat).ModMul(p.B, new(saferith.Nat).Exp(p.Q, eNat, nHat), nHat)
	if lhs2.Eq(rhs2) != 1 {
		return false
	}

	bound := new(big.Int).Lsh(big.NewInt(1), uint(sl.Ell+sl.Epsilon+sl.QBits/2+1))
	if new(big.Int).Abs(p.Z1).Cmp(bound) > 0 || new(big.Int).Abs(p.Z2).Cmp(bound) > 0 {
		return false
	}
	return true
}

func challenge(transcript *hash.Hash, pub Public, items ...*saferith.Nat) *big.Int {
	fork := transcript.Clone()
	_ = fork.WriteAny(&hash.BytesWithDomain{TheDomain: "zkfac/N", Bytes: pub.N.Nat().Big().Bytes()})
	for _, it := range items {
		_ = fork.WriteAny(&hash.BytesWithDomain{TheDomain: "zkfac/item", Bytes: it.Big().Bytes()})
	}
	digest := fork.Sum()
	e := new(big.Int).SetBytes(digest)
	half := new(big.Int).Lsh(big.NewInt(1), 255)
	if e.Cmp(half) >= 0 {
		e.Sub(e, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	return e
}
