// Package logstar implements Π_log*, the zero-knowledge proof that a
// Paillier ciphertext encrypts the discrete logarithm (w.r.t. a given base)
// of a public group element, and that the logarithm lies in a bounded
// range. It backs the proof, built in signing round3, that K_i encrypts the
// k_i behind the public point Delta_i = [k_i]Gamma.
package logstar

import (
	"crypto/rand"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/math/sample"
	"github.com/cobaltss/cggmp21/pkg/paillier"
	"github.com/cobaltss/cggmp21/pkg/params"
	"github.com/cobaltss/cggmp21/pkg/pedersen"
)

// Public is the statement: C encrypts, under Prover's Paillier key, the
// discrete log (base Gen, or the group's own base point if Gen is nil) of
// X, with that log lying in ±2^l.
type Public struct {
	C      *paillier.Ciphertext
	X      curve.Point
	Prover *paillier.PublicKey
	Aux    *pedersen.Parameters
	Group  curve.Curve
	Gen    curve.Point
}

// Private is the witness: the logarithm x and the Paillier randomness rho.
type Private struct {
	X   *saferith.Int
	Rho *saferith.Nat
}

// Proof is a non-interactive Π_log* proof.
type Proof struct {
	S  *saferith.Nat
	A  *paillier.Ciphertext
	Y  curve.Point
	D  *saferith.Nat
	Z1 *big.Int
	Z2 *saferith.Nat
	Z3 *big.Int
}

func bigAsInt(v *big.Int) *saferith.Int {
	return new(saferith.Int).SetBig(v, v.BitLen()+1)
}

func actOnGen(pub Public, s curve.Scalar) curve.Point {
	if pub.Gen == nil {
		return s.ActOnBase()
	}
	return s.Act(pub.Gen)
}

// scalarFromBigInt reduces a (possibly negative) big.Int modulo the
// group's order and lifts it into a Scalar. big.Int.Mod always returns a
// non-negative representative for a positive modulus, even for negative v,
// so no separate sign handling is needed.
func scalarFromBigInt(group curve.Curve, v *big.Int) curve.Scalar {
	orderBig := group.Order().Nat().Big()
	reduced := new(big.Int).Mod(v, orderBig)
	return group.NewScalar().SetNat(new(saferith.Nat).SetBig(reduced, orderBig.BitLen()))
}

// NewProof builds a Π_log* proof.
func NewProof(sl params.SecurityLevel, transcript *hash.Hash, pub Public, priv Private) *Proof {
	alpha := sample.IntervalLEps(rand.Reader, sl.Ell, sl.Epsilon)
	mu := sample.IntervalPM(rand.Reader, sl.Ell+sl.QBits)
	gamma := sample.IntervalPM(rand.Reader, sl.Ell+sl.Epsilon+sl.QBits)
	r := sample.UnitModN(rand.Reader, pub.Prover.N())

	S := pub.Aux.Commit(priv.X, bigAsInt(mu))
	A := pub.Prover.EncWithNonce(bigAsInt(alpha), r)
	Y := actOnGen(pub, scalarFromBigInt(pub.Group, alpha))
	D := pub.Aux.Commit(bigAsInt(alpha), bigAsInt(gamma))

	e := challenge(transcript, pub)

	z1 := new(big.Int).Mul(e, priv.X.Big())
	z1.Add(z1, alpha)

	z2 := new(saferith.Nat).ModMul(
		new(saferith.Nat).Exp(priv.Rho, new(saferith.Nat).SetBig(e, e.BitLen()+1), pub.Prover.N()),
		r,
		pub.Prover.N(),
	)

	z3 := new(big.Int).Mul(e, mu)
	z3.Add(z3, gamma)

	return &Proof{S: S, A: A, Y: Y, D: D, Z1: z1, Z2: z2, Z3: z3}
}

// Verify checks the proof against pub.
func (p *Proof) Verify(sl params.SecurityLevel, transcript *hash.Hash, pub Public) bool {
	if p == nil {
		return false
	}
	bound := new(big.Int).Lsh(big.NewInt(1), uint(sl.Ell+sl.Epsilon+1))
	if new(big.Int).Abs(p.Z1).Cmp(bound) > 0 {
		return false
	}

	e := challenge(transcript, pub)
	z1Int := bigAsInt(p.Z1)

	lhsEnc := pub.Prover.EncWithNonce(z1Int, p.Z2)
	rhsEnc := pub.Prover.Add(p.A, pub.Prover.Mul(pub.C, bigAsInt(e)))
	if !lhsEnc.Equal(rhsEnc) {
		return false
	}

	eScalar := scalarFromBigInt(pub.Group, e)
	z1Scalar := scalarFromBigInt(pub.Group, p.Z1)
	lhsPoint := actOnGen(pub, z1Scalar)
	rhsPoint := p.Y.Add(eScalar.Act(pub.X))
	if !lhsPoint.Equal(rhsPoint) {
		return false
	}

	lhsCommit := pub.Aux.Commit(z1Int, bigAsInt(p.Z3))
	sExpE := new(saferith.Nat).Exp(p.S, new(saferith.Nat).SetBig(e, e.BitLen()+1), pub.Aux.N())
	rhsCommit := new(saferith.Nat).ModMul(p.D, sExpE, pub.Aux.N())
	return lhsCommit.Eq(rhsCommit) == 1
}

func challenge(transcript *hash.Hash, pub Public) *big.Int {
	fork := transcript.Clone()
	cBytes := pub.C.Nat().Big().Bytes()
	xBytes, _ := pub.X.MarshalBinary()
	_ = fork.WriteAny(
		&hash.BytesWithDomain{TheDomain: "zklogstar/C", Bytes: cBytes},
		&hash.BytesWithDomain{TheDomain: "zklogstar/X", Bytes: xBytes},
	)
	digest := fork.Sum()
	e := new(big.Int).SetBytes(digest)
	half := new(big.Int).Lsh(big.NewInt(1), 255)
	if e.Cmp(half) >= 0 {
		e.Sub(e, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	return e
}
