// Package sample implements the uniform-sampling primitives described in
// the spec's big-integer adapter component: scalars, invertible elements of
// Z_N^*, signed integers in [-J, J], and safe (Blum) primes for Paillier
// moduli. Every routine here loops until it gets a value with the right
// property instead of ever returning a weaker distribution.
package sample

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
)

// Scalar returns a uniformly random element of the curve's scalar field.
func Scalar(rnd io.Reader, group curve.Curve) curve.Scalar {
	bytes := make([]byte, group.ScalarBytes()+8)
	if _, err := io.ReadFull(rnd, bytes); err != nil {
		panic(err)
	}
	n := new(saferith.Nat).SetBytes(bytes)
	return group.NewScalar().SetNat(n)
}

// ScalarPointPair samples a random scalar x and returns (x, [x]G).
func ScalarPointPair(rnd io.Reader, group curve.Curve) (curve.Scalar, curve.Point) {
	x := Scalar(rnd, group)
	return x, x.ActOnBase()
}

// UnitModN samples a uniformly random element of Z_N^*, i.e. an integer in
// [0, N) coprime to N, by rejection sampling.
func UnitModN(rnd io.Reader, n *saferith.Modulus) *saferith.Nat {
	nBig := n.Nat().Big()
	bits := n.BitLen()
	for {
		buf := make([]byte, (bits+7)/8+8)
		if _, err := io.ReadFull(rnd, buf); err != nil {
			panic(err)
		}
		candidate := new(big.Int).SetBytes(buf)
		candidate.Mod(candidate, nBig)
		if candidate.Sign() == 0 {
			continue
		}
		if new(big.Int).GCD(nil, nil, candidate, nBig).Cmp(big.NewInt(1)) == 0 {
			return new(saferith.Nat).SetBig(candidate, bits)
		}
	}
}

// Invertible is an alias for UnitModN: a sample from Z_N^* that is
// guaranteed to have a multiplicative inverse.
func Invertible(rnd io.Reader, n *saferith.Modulus) *saferith.Nat {
	return UnitModN(rnd, n)
}

// IntervalPM samples a uniform signed integer in [-2^bits, 2^bits], returned
// as a big.Int since the result can be negative (unlike saferith.Nat, which
// only represents non-negative values).
func IntervalPM(rnd io.Reader, bits int) *big.Int {
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits+1))
	limit.Add(limit, big.NewInt(1))
	n, err := rand.Int(rnd, limit)
	if err != nil {
		panic(err)
	}
	bound := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	n.Sub(n, bound)
	return n
}

// IntervalLEps samples an integer used to blind a value living in
// [0, 2^l) against a verifier, i.e. a uniform signed value in
// [-2^(l+eps), 2^(l+eps)].
func IntervalLEps(rnd io.Reader, l, eps int) *big.Int {
	return IntervalPM(rnd, l+eps)
}

// Bytes samples n uniformly random bytes.
func Bytes(rnd io.Reader, n int) []byte {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rnd, buf); err != nil {
		panic(err)
	}
	return buf
}
