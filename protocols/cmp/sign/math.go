package sign

import (
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/party"
)

// intFromScalar lifts a scalar's canonical non-negative representative
// into a saferith.Int, for use as a Paillier plaintext.
func intFromScalar(s curve.Scalar) *saferith.Int {
	n := s.Nat()
	return new(saferith.Int).SetBig(n.Big(), n.Big().BitLen()+1)
}

// scalarFromInt reduces a (possibly negative) signed integer modulo the
// group order and lifts it into a Scalar.
func scalarFromInt(group curve.Curve, v *saferith.Int) curve.Scalar {
	orderBig := group.Order().Nat().Big()
	reduced := new(big.Int).Mod(v.Big(), orderBig)
	return group.NewScalar().SetNat(new(saferith.Nat).SetBig(reduced, orderBig.BitLen()))
}

// sumPoints adds together every point in a per-party collection, starting
// from the group identity.
func sumPoints(group curve.Curve, points map[party.ID]curve.Point) curve.Point {
	sum := group.NewPoint()
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum
}

// bigAsSignedInt wraps a (possibly negative) big.Int as a saferith.Int of
// matching bit length, the representation sample.IntervalLEps/IntervalPM
// results need before they can be used as Paillier plaintexts.
func bigAsSignedInt(v *big.Int) *saferith.Int {
	return new(saferith.Int).SetBig(v, v.BitLen()+1)
}

// negateInt returns -v.
func negateInt(v *saferith.Int) *saferith.Int {
	neg := new(big.Int).Neg(v.Big())
	return new(saferith.Int).SetBig(neg, neg.BitLen()+1)
}

// sumScalars adds together every scalar in a per-party collection.
func sumScalars(group curve.Curve, scalars map[party.ID]curve.Scalar) curve.Scalar {
	sum := group.NewScalar()
	for _, s := range scalars {
		sum = sum.Add(s)
	}
	return sum
}
