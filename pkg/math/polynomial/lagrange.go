package polynomial

import (
	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/party"
)

// Lagrange computes, for every id in ids, the Lagrange basis coefficient
// lambda_id = prod_{j in ids, j != id} (-I_j) / (I_id - I_j), evaluated at
// X = 0. Summing coeff[id]*f(I_id) over all ids reconstructs f(0).
//
// This must be recomputed for every signing session: the coefficients
// depend on exactly which subset of parties is interpolating (see spec
// open question on re-deriving lambda per session).
func Lagrange(group curve.Curve, ids []party.ID) map[party.ID]curve.Scalar {
	scalars := make(map[party.ID]curve.Scalar, len(ids))
	for _, id := range ids {
		scalars[id] = id.Scalar(group)
	}

	one := new(saferith.Nat).SetUint64(1)
	coefficients := make(map[party.ID]curve.Scalar, len(ids))
	for _, id := range ids {
		numerator := group.NewScalar().SetNat(one)
		denominator := group.NewScalar().SetNat(one)
		xI := scalars[id]
		for _, j := range ids {
			if j == id {
				continue
			}
			xJ := scalars[j]
			numerator = numerator.Mul(xJ.Negate())
			denominator = denominator.Mul(xI.Sub(xJ))
		}
		coefficients[id] = numerator.Mul(denominator.Invert())
	}
	return coefficients
}
