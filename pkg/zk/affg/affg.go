// Package affg implements Π_aff-g, the zero-knowledge proof underlying the
// multiplicative-to-additive (MtA) share conversion at the heart of signing
// round2: given C (an encryption of x under the receiver's key) and
// ciphertexts D, Y the sender produces, the proof shows D = x*C + Enc(y)
// and Y = Enc(y), for y in range, without revealing x, y, or the receiver's
// secret.
package affg

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

// Public is the statement: Receiver's ciphertext C was combined with the
// sender's secret x (whose public commitment is X = x*G) and fresh
// randomness to produce D and Y under Sender's own key.
type Public struct {
	C        *paillier.Ciphertext
	D        *paillier.Ciphertext
	Y        *paillier.Ciphertext
	X        curve.Point
	Receiver *paillier.PublicKey
	Sender   *paillier.PublicKey
	Aux      *pedersen.Parameters
	Group    curve.Curve
}

// Private is the witness: x (the multiplier, range-bounded), y (the
// additive term, range-bounded), and the Paillier randomness used for D
// and Y respectively.
type Private struct {
	X    *saferith.Int
	Y    *saferith.Int
	RhoD *saferith.Nat
	RhoY *saferith.Nat
}

// Proof is a non-interactive Π_aff-g proof.
type Proof struct {
	A  *paillier.Ciphertext
	Bx curve.Point
	By *paillier.Ciphertext
	E  *saferith.Nat
	S  *saferith.Nat
	F  *saferith.Nat
	T  *saferith.Nat
	Z1 *big.Int
	Z2 *big.Int
	Z3 *big.Int
	Z4 *big.Int
	W  *saferith.Nat
	Wy *saferith.Nat
}

func bigAsInt(v *big.Int) *saferith.Int {
	return new(saferith.Int).SetBig(v, v.BitLen()+1)
}

func scalarFromBigInt(group curve.Curve, v *big.Int) curve.Scalar {
	orderBig := group.Order().Nat().Big()
	reduced := new(big.Int).Mod(v, orderBig)
	return group.NewScalar().SetNat(new(saferith.Nat).SetBig(reduced, orderBig.BitLen()))
}

// NewProof builds a Π_aff-g proof. x is range-bounded by ±2^l, y by
// ±2^l' (sl.EllPrime).
func NewProof(sl params.SecurityLevel, transcript *hash.Hash, pub Public, priv Private) *Proof {
	alpha := sample.IntervalLEps(rand.Reader, sl.Ell, sl.Epsilon)
	beta := sample.IntervalLEps(rand.Reader, sl.EllPrime, sl.Epsilon)
	r := sample.UnitModN(rand.Reader, pub.Receiver.N())
	rY := sample.UnitModN(rand.Reader, pub.Sender.N())
	gamma := sample.IntervalPM(rand.Reader, sl.Ell+sl.Epsilon+sl.QBits)
	m := sample.IntervalPM(rand.Reader, sl.Ell+sl.QBits)
	delta := sample.IntervalPM(rand.Reader, sl.Ell+sl.Epsilon+sl.QBits)
	mu := sample.IntervalPM(rand.Reader, sl.Ell+sl.QBits)

	A := pub.Receiver.Add(
		pub.Receiver.Mul(pub.C, bigAsInt(alpha)),
		pub.Receiver.EncWithNonce(bigAsInt(beta), r),
	)
	Bx := actOnBase(pub.Group, alpha)
	By := pub.Sender.EncWithNonce(bigAsInt(beta), rY)
	E := pub.Aux.Commit(bigAsInt(alpha), bigAsInt(gamma))
	S := pub.Aux.Commit(priv.X, bigAsInt(m))
	F := pub.Aux.Commit(bigAsInt(beta), bigAsInt(delta))
	T := pub.Aux.Commit(priv.Y, bigAsInt(mu))

	e := challenge(transcript, pub)

	z1 := new(big.Int).Mul(e, priv.X.Big())
	z1.Add(z1, alpha)
	z2 := new(big.Int).Mul(e, priv.Y.Big())
	z2.Add(z2, beta)
	z3 := new(big.Int).Mul(e, m)
	z3.Add(z3, gamma)
	z4 := new(big.Int).Mul(e, mu)
	z4.Add(z4, delta)

	w := new(saferith.Nat).ModMul(
		new(saferith.Nat).Exp(priv.RhoD, new(saferith.Nat).SetBig(e, e.BitLen()+1), pub.Receiver.N()),
		r,
		pub.Receiver.N(),
	)
	wy := new(saferith.Nat).ModMul(
		new(saferith.Nat).Exp(priv.RhoY, new(saferith.Nat).SetBig(e, e.BitLen()+1), pub.Sender.N()),
		rY,
		pub.Sender.N(),
	)

	return &Proof{A: A, Bx: Bx, By: By, E: E, S: S, F: F, T: T, Z1: z1, Z2: z2, Z3: z3, Z4: z4, W: w, Wy: wy}
}

func actOnBase(group curve.Curve, v *big.Int) curve.Point {
	return scalarFromBigInt(group, v).ActOnBase()
}

// Verify checks the proof against pub.
func (p *Proof) Verify(sl params.SecurityLevel, transcript *hash.Hash, pub Public) bool {
	if p == nil {
		return false
	}
	boundX := new(big.Int).Lsh(big.NewInt(1), uint(sl.Ell+sl.Epsilon+1))
	if new(big.Int).Abs(p.Z1).Cmp(boundX) > 0 {
		return false
	}
	boundY := new(big.Int).Lsh(big.NewInt(1), uint(sl.EllPrime+sl.Epsilon+1))
	if new(big.Int).Abs(p.Z2).Cmp(boundY) > 0 {
		return false
	}

	e := challenge(transcript, pub)
	z1Int := bigAsInt(p.Z1)
	z2Int := bigAsInt(p.Z2)

	lhs1 := pub.Receiver.Add(
		pub.Receiver.Mul(pub.C, z1Int),
		pub.Receiver.EncWithNonce(z2Int, p.W),
	)
	rhs1 := pub.Receiver.Add(p.A, pub.Receiver.Mul(pub.D, bigAsInt(e)))
	if !lhs1.Equal(rhs1) {
		return false
	}

	lhs2 := actOnBase(pub.Group, p.Z1)
	rhs2 := p.Bx.Add(scalarFromBigInt(pub.Group, e).Act(pub.X))
	if !lhs2.Equal(rhs2) {
		return false
	}

	lhs3 := pub.Sender.EncWithNonce(z2Int, p.Wy)
	rhs3 := pub.Sender.Add(p.By, pub.Sender.Mul(pub.Y, bigAsInt(e)))
	if !lhs3.Equal(rhs3) {
		return false
	}

	eNat := new(saferith.Nat).SetBig(e, e.BitLen()+1)
	if !commitCheck(pub.Aux, z1Int, bigAsInt(p.Z3), p.E, p.S, eNat) {
		return false
	}
	if !commitCheck(pub.Aux, z2Int, bigAsInt(p.Z4), p.F, p.T, eNat) {
		return false
	}
	return true
}

func commitCheck(aux *pedersen.Parameters, z, zAux *saferith.Int, base, power *saferith.Nat, e *saferith.Nat) bool {
	lhs := aux.Commit(z, zAux)
	rhs := new(saferith.Nat).ModMul(base, new(saferith.Nat).Exp(power, e, aux.N()), aux.N())
	return lhs.Eq(rhs) == 1
}

func challenge(transcript *hash.Hash, pub Public) *big.Int {
	fork := transcript.Clone()
	cBytes := pub.C.Nat().Big().Bytes()
	dBytes := pub.D.Nat().Big().Bytes()
	yBytes := pub.Y.Nat().Big().Bytes()
	xBytes, _ := pub.X.MarshalBinary()
	_ = fork.WriteAny(
		&hash.BytesWithDomain{TheDomain: "zkaffg/C", Bytes: cBytes},
		&hash.BytesWithDomain{TheDomain: "zkaffg/D", Bytes: dBytes},
		&hash.BytesWithDomain{TheDomain: "zkaffg/Y", Bytes: yBytes},
		&hash.BytesWithDomain{TheDomain: "zkaffg/X", Bytes: xBytes},
	)
	digest := fork.Sum()
	e := new(big.Int).SetBytes(digest)
	half := new(big.Int).Lsh(big.NewInt(1), 255)
	if e.Cmp(half) >= 0 {
		e.Sub(e, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	return e
}
