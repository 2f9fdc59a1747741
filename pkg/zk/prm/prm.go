// Package prm implements Π_prm, the zero-knowledge proof that ring-Pedersen
// parameters (N, s, t) were generated correctly: s = t^lambda mod N for a
// known lambda, which is exactly the relation GenerateParameters produces.
// This lets every other party trust (s, t) enough to use them as the base
// of a Π_enc/Π_aff-g/Π_log* blinding commitment.
package prm

import (
	"crypto/rand"

	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/math/sample"
	"github.com/cobaltss/cggmp21/pkg/params"
	"github.com/cobaltss/cggmp21/pkg/pedersen"
)

// Public is the statement: the given ring-Pedersen parameters are
// well-formed.
type Public struct {
	Aux *pedersen.Parameters
}

// Private is the witness: lambda such that s = t^lambda mod N, and phi(N)
// needed to sample commitment exponents correctly mod the group order.
type Private struct {
	Lambda *saferith.Nat
	Phi    *saferith.Nat
}

// Proof is a non-interactive Π_prm proof, one (A_i, Z_i) pair per round.
type Proof struct {
	As []*saferith.Nat
	Zs []*saferith.Nat
}

// NewProof builds a Π_prm proof running sl.M parallel rounds.
func NewProof(sl params.SecurityLevel, transcript *hash.Hash, pub Public, priv Private) *Proof {
	phiModulus := saferith.ModulusFromNat(priv.Phi)
	as := make([]*saferith.Nat, sl.M)
	alphas := make([]*saferith.Nat, sl.M)
	for i := 0; i < sl.M; i++ {
		alpha := sample.UnitModN(rand.Reader, phiModulus)
		alphas[i] = alpha
		as[i] = new(saferith.Nat).Exp(pub.Aux.T(), alpha, pub.Aux.N())
	}

	es := challenge(transcript, pub, as, sl.M)

	zs := make([]*saferith.Nat, sl.M)
	for i := 0; i < sl.M; i++ {
		if es[i] {
			zs[i] = new(saferith.Nat).ModAdd(alphas[i], priv.Lambda, phiModulus)
		} else {
			zs[i] = alphas[i]
		}
	}
	return &Proof{As: as, Zs: zs}
}

// Verify checks the proof against pub.
func (p *Proof) Verify(sl params.SecurityLevel, transcript *hash.Hash, pub Public) bool {
	if p == nil || len(p.As) != sl.M || len(p.Zs) != sl.M {
		return false
	}
	es := challenge(transcript, pub, p.As, sl.M)
	for i := 0; i < sl.M; i++ {
		lhs := new(saferith.Nat).Exp(pub.Aux.T(), p.Zs[i], pub.Aux.N())
		rhs := p.As[i]
		if es[i] {
			rhs = new(saferith.Nat).ModMul(p.As[i], pub.Aux.S(), pub.Aux.N())
		}
		if lhs.Eq(rhs) != 1 {
			return false
		}
	}
	return true
}

// challenge derives one bit per round from the transcript and the A_i
// commitments.
func challenge(transcript *hash.Hash, pub Public, as []*saferith.Nat, m int) []bool {
	fork := transcript.Clone()
	_ = fork.WriteAny(
		&hash.BytesWithDomain{TheDomain: "zkprm/N", Bytes: pub.Aux.N().Nat().Big().Bytes()},
		&hash.BytesWithDomain{TheDomain: "zkprm/S", Bytes: pub.Aux.S().Big().Bytes()},
		&hash.BytesWithDomain{TheDomain: "zkprm/T", Bytes: pub.Aux.T().Big().Bytes()},
	)
	for _, a := range as {
		_ = fork.WriteAny(&hash.BytesWithDomain{TheDomain: "zkprm/A", Bytes: a.Big().Bytes()})
	}
	// The transcript digest is 256 bits, enough for every SecurityLevel's M
	// (at most 128); extending further is not needed.
	digest := fork.Sum()
	bits := make([]bool, m)
	for i := 0; i < m; i++ {
		bits[i] = digest[i/8]&(1<<uint(i%8)) != 0
	}
	return bits
}
