// Package polynomial implements the Shamir/Feldman-VSS machinery used by
// threshold DKG (spec component G): secret polynomials, their public
// "exponent" commitments, and Lagrange interpolation coefficients.
package polynomial

import (
	"crypto/rand"
	"errors"

	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/math/sample"
)

// Polynomial is f(X) = a_0 + a_1*X + ... + a_d*X^d over a curve's scalar
// field, with a_0 the shared secret.
type Polynomial struct {
	group        curve.Curve
	coefficients []curve.Scalar
}

// NewPolynomial samples a random polynomial of the given degree whose
// constant term is the provided secret. Passing a degree of 0 models the
// full (t=n) DKG variant, where each party's "polynomial" is simply its own
// secret.
func NewPolynomial(group curve.Curve, degree int, constant curve.Scalar) *Polynomial {
	coefficients := make([]curve.Scalar, degree+1)
	coefficients[0] = group.NewScalar().Set(constant)
	for i := 1; i <= degree; i++ {
		coefficients[i] = sample.Scalar(rand.Reader, group)
	}
	return &Polynomial{group: group, coefficients: coefficients}
}

// Degree returns the polynomial's degree.
func (p *Polynomial) Degree() int { return len(p.coefficients) - 1 }

// Constant returns f(0), the secret shared by this polynomial.
func (p *Polynomial) Constant() curve.Scalar {
	return p.group.NewScalar().Set(p.coefficients[0])
}

// Coefficients returns the polynomial's coefficients, lowest degree first.
func (p *Polynomial) Coefficients() []curve.Scalar {
	return p.coefficients
}

// Evaluate computes f(x) using Horner's method.
func (p *Polynomial) Evaluate(x curve.Scalar) curve.Scalar {
	result := p.group.NewScalar()
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		result = result.Mul(x).Add(p.coefficients[i])
	}
	return result
}

// Exponent is the public commitment to a Polynomial: F(X) = f(X)*G,
// represented by the per-coefficient points a_i*G. It lets every party
// verify an evaluation f(x)*G against the committed polynomial without
// learning f's coefficients.
type Exponent struct {
	group        curve.Curve
	coefficients []curve.Point
}

// NewPolynomialExponent commits to every coefficient of p.
func NewPolynomialExponent(p *Polynomial) *Exponent {
	coefficients := make([]curve.Point, len(p.coefficients))
	for i, c := range p.coefficients {
		coefficients[i] = c.ActOnBase()
	}
	return &Exponent{group: p.group, coefficients: coefficients}
}

// NewExponentFromCoefficients rebuilds an Exponent from coefficient points
// received over the wire, lowest degree first.
func NewExponentFromCoefficients(group curve.Curve, coefficients []curve.Point) *Exponent {
	return &Exponent{group: group, coefficients: coefficients}
}

// Coefficients returns the committed polynomial's per-coefficient points,
// lowest degree first.
func (e *Exponent) Coefficients() []curve.Point { return e.coefficients }

// Evaluate computes F(x) = f(x)*G from the committed coefficients alone,
// using Horner's method adapted to the group: acc = [x]*acc + coeff_i.
func (e *Exponent) Evaluate(x curve.Scalar) curve.Point {
	acc := e.group.NewPoint()
	for i := len(e.coefficients) - 1; i >= 0; i-- {
		acc = x.Act(acc).Add(e.coefficients[i])
	}
	return acc
}

// Constant returns F(0) = f(0)*G.
func (e *Exponent) Constant() curve.Point {
	return e.coefficients[0]
}

// Degree returns the committed polynomial's degree.
func (e *Exponent) Degree() int { return len(e.coefficients) - 1 }

// Sum combines every party's Feldman commitment into the group's single
// public Shamir polynomial, F(X) = sum_j F_j(X). Every exponent must share
// the same degree; the DKG round that calls this has already checked that
// every party committed to a degree-threshold polynomial.
func Sum(exponents []*Exponent) (*Exponent, error) {
	if len(exponents) == 0 {
		return nil, errors.New("polynomial: Sum requires at least one exponent")
	}
	degree := exponents[0].Degree()
	group := exponents[0].group
	coefficients := make([]curve.Point, degree+1)
	for i := range coefficients {
		coefficients[i] = group.NewPoint()
	}
	for _, e := range exponents {
		if e.Degree() != degree {
			return nil, errors.New("polynomial: Sum requires every exponent to share a degree")
		}
		for i, c := range e.coefficients {
			coefficients[i] = coefficients[i].Add(c)
		}
	}
	return &Exponent{group: group, coefficients: coefficients}, nil
}
