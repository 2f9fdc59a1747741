// Package enc implements Π_enc, the zero-knowledge proof that a Paillier
// ciphertext encrypts a plaintext lying in a bounded range, without
// revealing the plaintext. It backs the proof that a party's encrypted
// nonce share k_i lies in the field (spec component E, round1 of signing).
package enc

import (
	"crypto/rand"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/math/sample"
	"github.com/cobaltss/cggmp21/pkg/paillier"
	"github.com/cobaltss/cggmp21/pkg/params"
	"github.com/cobaltss/cggmp21/pkg/pedersen"
)

// Public is the statement being proven: that K is a valid encryption under
// Prover's key of some value in ±2^l, and Aux is the verifier's own
// ring-Pedersen parameters used to blind that claim.
type Public struct {
	K      *paillier.Ciphertext
	Prover *paillier.PublicKey
	Aux    *pedersen.Parameters
}

// Private is the witness: the plaintext k and the Paillier randomness rho
// used to produce K.
type Private struct {
	K   *saferith.Int
	Rho *saferith.Nat
}

// Proof is a non-interactive Π_enc proof.
type Proof struct {
	S  *saferith.Nat
	A  *paillier.Ciphertext
	C  *saferith.Nat
	Z1 *big.Int
	Z2 *saferith.Nat
	Z3 *big.Int
}

func bigAsInt(v *big.Int) *saferith.Int {
	return new(saferith.Int).SetBig(v, v.BitLen()+1)
}

// NewProof builds a Π_enc proof using the given security level for the
// range bound and blinding slack.
func NewProof(sl params.SecurityLevel, transcript *hash.Hash, pub Public, priv Private) *Proof {
	alpha := sample.IntervalLEps(rand.Reader, sl.Ell, sl.Epsilon)
	mu := sample.IntervalPM(rand.Reader, sl.Ell+sl.QBits)
	gamma := sample.IntervalPM(rand.Reader, sl.Ell+sl.Epsilon+sl.QBits)
	r := sample.UnitModN(rand.Reader, pub.Prover.N())

	S := pub.Aux.Commit(priv.K, bigAsInt(mu))
	A := pub.Prover.EncWithNonce(bigAsInt(alpha), r)
	C := pub.Aux.Commit(bigAsInt(alpha), bigAsInt(gamma))

	e := challenge(transcript, pub)

	z1 := new(big.Int).Mul(e, priv.K.Big())
	z1.Add(z1, alpha)

	z2 := new(saferith.Nat).ModMul(
		new(saferith.Nat).Exp(priv.Rho, new(saferith.Nat).SetBig(e, e.BitLen()+1), pub.Prover.N()),
		r,
		pub.Prover.N(),
	)

	z3 := new(big.Int).Mul(e, mu)
	z3.Add(z3, gamma)

	return &Proof{S: S, A: A, C: C, Z1: z1, Z2: z2, Z3: z3}
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
	rhsEnc := pub.Prover.Add(p.A, pub.Prover.Mul(pub.K, bigAsInt(e)))
	if !lhsEnc.Equal(rhsEnc) {
		return false
	}

	lhsCommit := pub.Aux.Commit(z1Int, bigAsInt(p.Z3))
	sExpE := new(saferith.Nat).Exp(p.S, new(saferith.Nat).SetBig(e, e.BitLen()+1), pub.Aux.N())
	rhsCommit := new(saferith.Nat).ModMul(p.C, sExpE, pub.Aux.N())
	return lhsCommit.Eq(rhsCommit) == 1
}

// challenge derives the proof's Fiat-Shamir scalar from the ciphertext
// being proven about. The challenge space is ±2^255, matching the other
// proofs' "full-size" challenges.
func challenge(transcript *hash.Hash, pub Public) *big.Int {
	fork := transcript.Clone()
	kBytes := pub.K.Nat().Big().Bytes()
	_ = fork.WriteAny(&hash.BytesWithDomain{TheDomain: "zkenc/K", Bytes: kBytes})
	digest := fork.Sum()
	e := new(big.Int).SetBytes(digest)
	half := new(big.Int).Lsh(big.NewInt(1), 255)
	if e.Cmp(half) >= 0 {
		e.Sub(e, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	return e
}
