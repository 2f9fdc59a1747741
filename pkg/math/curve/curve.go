// Package curve provides a small, curve-agnostic abstraction over group and
// scalar-field arithmetic, so that the rest of this module (polynomials,
// Paillier/Pedersen glue, zero-knowledge proofs, the protocol rounds
// themselves) never imports a concrete elliptic-curve library directly.
//
// The only concrete implementation provided is Secp256k1, backed by
// github.com/decred/dcrd/dcrec/secp256k1/v4. Scalars are represented as
// saferith.Nat values reduced modulo the group order, so that the same
// big-integer machinery used for Paillier/Pedersen arithmetic (component A
// of the spec) also backs curve scalars.
package curve

import (
	"github.com/cronokirby/saferith"
)

// Curve is a prime-order group together with its scalar field.
type Curve interface {
	// Name uniquely identifies the curve (used for domain separation and
	// for routing (de)serialization of generic values).
	Name() string
	// NewScalar returns the additive identity (0) of the scalar field.
	NewScalar() Scalar
	// NewPoint returns the identity element of the group.
	NewPoint() Point
	// NewBasePoint returns the group's distinguished generator G.
	NewBasePoint() Point
	// Order returns the (prime) order of the group, as a Modulus so it can
	// be used directly in saferith modular arithmetic.
	Order() *saferith.Modulus
	// ScalarBytes is the canonical fixed encoded length of a scalar.
	ScalarBytes() int
	// PointBytes is the canonical fixed encoded length of a compressed
	// point.
	PointBytes() int
}

// Scalar is an element of a Curve's scalar field, i.e. Z/qZ where q is the
// group order.
type Scalar interface {
	Curve() Curve
	// Set copies the value of other into the receiver and returns it.
	Set(other Scalar) Scalar
	// SetNat reduces n modulo the group order and stores the result.
	SetNat(n *saferith.Nat) Scalar
	// Nat returns the canonical representative of this scalar in [0, q).
	Nat() *saferith.Nat
	Add(other Scalar) Scalar
	Sub(other Scalar) Scalar
	Negate() Scalar
	Mul(other Scalar) Scalar
	Invert() Scalar
	Equal(other Scalar) bool
	IsZero() bool
	// Act returns other scaled by this scalar, i.e. [this]*other.
	Act(other Point) Point
	// ActOnBase returns [this]*G.
	ActOnBase() Point
	MarshalBinary() ([]byte, error)
	UnmarshalBinary(data []byte) error
}

// Point is an element of a Curve's group.
type Point interface {
	Curve() Curve
	Add(other Point) Point
	Negate() Point
	Equal(other Point) bool
	IsIdentity() bool
	// XScalar returns the point's affine X coordinate, reduced modulo the
	// group order (used to build the ECDSA r component from R).
	XScalar() Scalar
	MarshalBinary() ([]byte, error)
	UnmarshalBinary(data []byte) error
}

// NonZeroScalar is a documentation-only alias: callers must check IsZero()
// themselves, the type system does not enforce it (mirrors the spec's
// NonZeroScalar/NonZeroPoint, which likewise are runtime-checked subsets).
type NonZeroScalar = Scalar

// NonZeroPoint = Point, see NonZeroScalar.
type NonZeroPoint = Point
