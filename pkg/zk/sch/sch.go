// Package sch implements a Schnorr proof of knowledge of a discrete
// logarithm, the basic building block used (among other things) to prove
// knowledge of an ECDSA secret share and of a Paillier modulus's secret
// exponent commitments.
package sch

import (
	"io"

	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/math/sample"
)

// Randomness is the prover's ephemeral secret a, committed to as A = a*G
// (or a*gen for an arbitrary generator). It is sampled once and consumed by
// exactly one Proof; reusing it leaks the secret.
type Randomness struct {
	group curve.Curve
	gen   curve.Point
	a     curve.Scalar
	A     curve.Point
}

// NewRandomness samples a fresh commitment. gen may be nil to mean the
// group's standard base point.
func NewRandomness(rnd io.Reader, group curve.Curve, gen curve.Point) *Randomness {
	a := sample.Scalar(rnd, group)
	var A curve.Point
	if gen == nil {
		A = a.ActOnBase()
	} else {
		A = a.Act(gen)
	}
	return &Randomness{group: group, gen: gen, a: a, A: A}
}

// Commitment returns the public commitment A = a*gen.
func (r *Randomness) Commitment() curve.Point { return r.A }

// Proof is a non-interactive Schnorr proof of knowledge of x such that
// public = x*gen.
type Proof struct {
	A curve.Point
	Z curve.Scalar
}

// NewProof builds a proof that the prover knows x, the discrete log of
// public w.r.t. gen (nil meaning the standard base point), using r as the
// ephemeral randomness and transcript as the Fiat-Shamir challenge source.
func NewProof(transcript *hash.Hash, r *Randomness, public curve.Point, x curve.Scalar) *Proof {
	e := challenge(transcript, r.group, r.A, public)
	z := r.a.Add(e.Mul(x))
	return &Proof{A: r.A, Z: z}
}

// Verify checks the proof against public (and gen, nil meaning base point).
func (p *Proof) Verify(transcript *hash.Hash, group curve.Curve, gen, public curve.Point) bool {
	if p == nil || p.A == nil || p.Z == nil {
		return false
	}
	e := challenge(transcript, group, p.A, public)
	var lhs curve.Point
	if gen == nil {
		lhs = p.Z.ActOnBase()
	} else {
		lhs = p.Z.Act(gen)
	}
	rhs := p.A.Add(e.Act(public))
	return lhs.Equal(rhs)
}

// challenge derives the Fiat-Shamir scalar e from the commitment and the
// statement being proven.
func challenge(transcript *hash.Hash, group curve.Curve, A, public curve.Point) curve.Scalar {
	fork := transcript.Clone()
	aBytes, _ := A.MarshalBinary()
	pBytes, _ := public.MarshalBinary()
	_ = fork.WriteAny(
		&hash.BytesWithDomain{TheDomain: "Schnorr/Commitment", Bytes: aBytes},
		&hash.BytesWithDomain{TheDomain: "Schnorr/Public", Bytes: pBytes},
	)
	digest := fork.Sum()
	return group.NewScalar().SetNat(new(saferith.Nat).SetBytes(digest))
}
