package curve

import (
	"errors"
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// secp256k1Order is the order of the secp256k1 group, as defined by the
// curve's standard parameters.
var secp256k1Order = saferith.ModulusFromBytes([]byte{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfe,
	0xba, 0xae, 0xdc, 0xe6, 0xaf, 0x48, 0xa0, 0x3b,
	0xbf, 0xd2, 0x5e, 0x8c, 0xd0, 0x36, 0x41, 0x41,
})

// Secp256k1 is the curve used by standard ECDSA (and Bitcoin/Ethereum).
type Secp256k1 struct{}

var _ Curve = Secp256k1{}

func (Secp256k1) Name() string { return "secp256k1" }

// ByName resolves a curve.Curve from the name returned by its Name method,
// used when deserializing a Config without structurally encoding the
// curve implementation itself.
func ByName(name string) (Curve, error) {
	switch name {
	case "secp256k1":
		return Secp256k1{}, nil
	default:
		return nil, fmt.Errorf("curve: unknown curve %q", name)
	}
}

func (Secp256k1) NewScalar() Scalar {
	return &Secp256k1Scalar{value: new(saferith.Nat).SetUint64(0)}
}

func (Secp256k1) NewPoint() Point {
	return &Secp256k1Point{identity: true}
}

func (Secp256k1) NewBasePoint() Point {
	var p secp256k1.JacobianPoint
	one := new(secp256k1.ModNScalar).SetInt(1)
	secp256k1.ScalarBaseMultNonConst(one, &p)
	p.ToAffine()
	return &Secp256k1Point{point: p}
}

func (Secp256k1) Order() *saferith.Modulus { return secp256k1Order }

func (Secp256k1) ScalarBytes() int { return 32 }

func (Secp256k1) PointBytes() int { return 33 }

// Secp256k1Scalar is an element of Z/qZ, represented canonically as a
// saferith.Nat in [0, q).
type Secp256k1Scalar struct {
	value *saferith.Nat
}

var _ Scalar = (*Secp256k1Scalar)(nil)

func (s *Secp256k1Scalar) Curve() Curve { return Secp256k1{} }

func (s *Secp256k1Scalar) Set(other Scalar) Scalar {
	o := other.(*Secp256k1Scalar)
	s.value = new(saferith.Nat).SetNat(o.value)
	return s
}

func (s *Secp256k1Scalar) SetNat(n *saferith.Nat) Scalar {
	s.value = new(saferith.Nat).Mod(n, secp256k1Order)
	return s
}

func (s *Secp256k1Scalar) Nat() *saferith.Nat {
	if s.value == nil {
		return new(saferith.Nat).SetUint64(0)
	}
	return s.value
}

func (s *Secp256k1Scalar) Add(other Scalar) Scalar {
	o := other.(*Secp256k1Scalar)
	out := new(saferith.Nat).ModAdd(s.Nat(), o.Nat(), secp256k1Order)
	return &Secp256k1Scalar{value: out}
}

func (s *Secp256k1Scalar) Sub(other Scalar) Scalar {
	o := other.(*Secp256k1Scalar)
	out := new(saferith.Nat).ModSub(s.Nat(), o.Nat(), secp256k1Order)
	return &Secp256k1Scalar{value: out}
}

func (s *Secp256k1Scalar) Negate() Scalar {
	out := new(saferith.Nat).ModNeg(s.Nat(), secp256k1Order)
	return &Secp256k1Scalar{value: out}
}

func (s *Secp256k1Scalar) Mul(other Scalar) Scalar {
	o := other.(*Secp256k1Scalar)
	out := new(saferith.Nat).ModMul(s.Nat(), o.Nat(), secp256k1Order)
	return &Secp256k1Scalar{value: out}
}

func (s *Secp256k1Scalar) Invert() Scalar {
	out := new(saferith.Nat).ModInverse(s.Nat(), secp256k1Order)
	return &Secp256k1Scalar{value: out}
}

func (s *Secp256k1Scalar) Equal(other Scalar) bool {
	o := other.(*Secp256k1Scalar)
	return s.Nat().Eq(o.Nat()) == 1
}

func (s *Secp256k1Scalar) IsZero() bool {
	return s.Nat().EqZero() == 1
}

func (s *Secp256k1Scalar) toModN() *secp256k1.ModNScalar {
	var buf [32]byte
	s.Nat().FillBytes(buf[:])
	var out secp256k1.ModNScalar
	out.SetBytes(&buf)
	return &out
}

func (s *Secp256k1Scalar) Act(other Point) Point {
	o := other.(*Secp256k1Point)
	if o.identity {
		return Secp256k1{}.NewPoint()
	}
	var result secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(s.toModN(), &o.point, &result)
	result.ToAffine()
	if result.X.IsZero() && result.Y.IsZero() {
		return &Secp256k1Point{identity: true}
	}
	return &Secp256k1Point{point: result}
}

func (s *Secp256k1Scalar) ActOnBase() Point {
	var result secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(s.toModN(), &result)
	result.ToAffine()
	if result.X.IsZero() && result.Y.IsZero() {
		return &Secp256k1Point{identity: true}
	}
	return &Secp256k1Point{point: result}
}

func (s *Secp256k1Scalar) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 32)
	s.Nat().FillBytes(buf)
	return buf, nil
}

func (s *Secp256k1Scalar) UnmarshalBinary(data []byte) error {
	if len(data) != 32 {
		return fmt.Errorf("curve: invalid scalar length %d", len(data))
	}
	s.value = new(saferith.Nat).Mod(new(saferith.Nat).SetBytes(data), secp256k1Order)
	return nil
}

// Secp256k1Point is a point on the secp256k1 curve, stored affine.
type Secp256k1Point struct {
	point    secp256k1.JacobianPoint
	identity bool
}

var _ Point = (*Secp256k1Point)(nil)

func (p *Secp256k1Point) Curve() Curve { return Secp256k1{} }

func (p *Secp256k1Point) Add(other Point) Point {
	o := other.(*Secp256k1Point)
	if p.identity {
		return o
	}
	if o.identity {
		return p
	}
	var result secp256k1.JacobianPoint
	secp256k1.AddNonConst(&p.point, &o.point, &result)
	result.ToAffine()
	if result.X.IsZero() && result.Y.IsZero() {
		return &Secp256k1Point{identity: true}
	}
	return &Secp256k1Point{point: result}
}

func (p *Secp256k1Point) Negate() Point {
	if p.identity {
		return p
	}
	np := p.point
	np.Y.Negate(1)
	np.Y.Normalize()
	return &Secp256k1Point{point: np}
}

func (p *Secp256k1Point) Equal(other Point) bool {
	o := other.(*Secp256k1Point)
	if p.identity || o.identity {
		return p.identity == o.identity
	}
	return p.point.X.Equals(&o.point.X) && p.point.Y.Equals(&o.point.Y)
}

func (p *Secp256k1Point) IsIdentity() bool { return p.identity }

func (p *Secp256k1Point) XScalar() Scalar {
	if p.identity {
		return Secp256k1{}.NewScalar()
	}
	xBytes := p.point.X.Bytes()
	n := new(saferith.Nat).SetBytes(xBytes[:])
	return &Secp256k1Scalar{value: new(saferith.Nat).Mod(n, secp256k1Order)}
}

func (p *Secp256k1Point) MarshalBinary() ([]byte, error) {
	if p.identity {
		return make([]byte, 33), nil
	}
	pub := secp256k1.NewPublicKey(&p.point.X, &p.point.Y)
	return pub.SerializeCompressed(), nil
}

func (p *Secp256k1Point) UnmarshalBinary(data []byte) error {
	if len(data) == 33 && allZero(data) {
		p.identity = true
		p.point = secp256k1.JacobianPoint{}
		return nil
	}
	pub, err := secp256k1.ParsePubKey(data)
	if err != nil {
		return errors.New("curve: invalid point encoding: " + err.Error())
	}
	pub.AsJacobian(&p.point)
	p.identity = false
	return nil
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
