// Package ecdsa implements the final, curve-agnostic ECDSA signature type
// produced by the signing protocol, along with verification and the
// low-S canonicalization malleability fix.
package ecdsa

import (
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
)

// Signature is a standard ECDSA signature (r, s), represented as scalars
// of the group it was produced over.
type Signature struct {
	R curve.Scalar
	S curve.Scalar
}

// ScalarFromHash reduces a message digest modulo the group order, as
// ECDSA's signing/verification equations require. Digests longer than the
// scalar field are truncated per FIPS 186-4's bit-length rule; since every
// curve this module supports has a scalar field at least as large as the
// digests it signs, a plain byte reduction is equivalent.
func ScalarFromHash(group curve.Curve, digest []byte) curve.Scalar {
	n := new(saferith.Nat).SetBytes(digest)
	return group.NewScalar().SetNat(n)
}

// NormalizeS returns a copy of sig with S replaced by min(S, order-S), the
// canonical low-S form. ECDSA signatures are malleable in S; propagating
// only the low-S representative prevents a signature from being re-encoded
// by a third party without invalidating anything that binds to its exact
// bytes.
func (sig *Signature) NormalizeS() *Signature {
	group := sig.S.Curve()
	order := group.Order().Nat().Big()
	half := new(big.Int).Rsh(order, 1)
	s := sig.S
	if s.Nat().Big().Cmp(half) > 0 {
		s = group.NewScalar().Set(s).Negate()
	}
	return &Signature{R: sig.R, S: s}
}

// Verify checks sig against the given public key and message digest.
func (sig *Signature) Verify(public curve.Point, digest []byte) bool {
	if sig.R.IsZero() || sig.S.IsZero() {
		return false
	}
	group := public.Curve()
	m := ScalarFromHash(group, digest)
	sInv := group.NewScalar().Set(sig.S).Invert()
	u1 := m.Mul(sInv)
	u2 := sig.R.Mul(sInv)
	R := u1.ActOnBase().Add(u2.Act(public))
	if R.IsIdentity() {
		return false
	}
	return R.XScalar().Equal(sig.R)
}
