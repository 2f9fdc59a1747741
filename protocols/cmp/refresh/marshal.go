package refresh

import (
	"encoding/binary"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/math/polynomial"
	"github.com/cobaltss/cggmp21/pkg/paillier"
	"github.com/cobaltss/cggmp21/pkg/pedersen"
	"github.com/cobaltss/cggmp21/pkg/zk/fac"
	"github.com/cobaltss/cggmp21/pkg/zk/prm"
)

// Same rationale as protocols/cmp/sign/marshal.go and
// protocols/cmp/keygen/marshal.go: flatten the values fxamacker/cbor can't
// serialize by reflection into plain bytes here, once.

func natBytes(n *saferith.Nat) []byte     { return n.Big().Bytes() }
func natFromBytes(b []byte) *saferith.Nat { return new(saferith.Nat).SetBytes(b) }

func pointBytes(p curve.Point) []byte {
	b, _ := p.MarshalBinary()
	return b
}

func pointFromBytes(group curve.Curve, b []byte) (curve.Point, error) {
	p := group.NewPoint()
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return p, nil
}

// exponentWire flattens a polynomial.Exponent's coefficient points.
type exponentWire struct {
	Coefficients [][]byte
}

func wireFromExponent(e *polynomial.Exponent) exponentWire {
	coeffs := e.Coefficients()
	w := exponentWire{Coefficients: make([][]byte, len(coeffs))}
	for i, c := range coeffs {
		w.Coefficients[i] = pointBytes(c)
	}
	return w
}

func (w exponentWire) toExponent(group curve.Curve) (*polynomial.Exponent, error) {
	coeffs := make([]curve.Point, len(w.Coefficients))
	for i, b := range w.Coefficients {
		p, err := pointFromBytes(group, b)
		if err != nil {
			return nil, err
		}
		coeffs[i] = p
	}
	return polynomial.NewExponentFromCoefficients(group, coeffs), nil
}

// prmProofWire flattens a zk/prm.Proof's saferith.Nat slices.
type prmProofWire struct {
	As [][]byte
	Zs [][]byte
}

func wireFromPrmProof(p *prm.Proof) prmProofWire {
	w := prmProofWire{As: make([][]byte, len(p.As)), Zs: make([][]byte, len(p.Zs))}
	for i, a := range p.As {
		w.As[i] = natBytes(a)
	}
	for i, z := range p.Zs {
		w.Zs[i] = natBytes(z)
	}
	return w
}

func (w prmProofWire) toProof() *prm.Proof {
	p := &prm.Proof{As: make([]*saferith.Nat, len(w.As)), Zs: make([]*saferith.Nat, len(w.Zs))}
	for i, a := range w.As {
		p.As[i] = natFromBytes(a)
	}
	for i, z := range w.Zs {
		p.Zs[i] = natFromBytes(z)
	}
	return p
}

// facProofWire flattens a zk/fac.Proof's saferith.Nat fields; the *big.Int
// fields are already safe for fxamacker/cbor to encode directly.
type facProofWire struct {
	P, Q, A, B     []byte
	Z1, Z2, W1, W2 *big.Int
}

func wireFromFacProof(p *fac.Proof) facProofWire {
	return facProofWire{
		P: natBytes(p.P), Q: natBytes(p.Q), A: natBytes(p.A), B: natBytes(p.B),
		Z1: p.Z1, Z2: p.Z2, W1: p.W1, W2: p.W2,
	}
}

func (w facProofWire) toProof() *fac.Proof {
	return &fac.Proof{
		P: natFromBytes(w.P), Q: natFromBytes(w.Q), A: natFromBytes(w.A), B: natFromBytes(w.B),
		Z1: w.Z1, Z2: w.Z2, W1: w.W1, W2: w.W2,
	}
}

// deltaExponentBytes flattens a zero-constant Exponent's coefficient points
// into a single length-framed byte string, used only to fold the
// commitment into the round1 hash commitment.
func deltaExponentBytes(e *polynomial.Exponent) []byte {
	var buf []byte
	for _, c := range e.Coefficients() {
		b := pointBytes(c)
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, b...)
	}
	return buf
}

// commitmentItems lists, in a fixed order, everything round1 commits to and
// round2 later reveals: the new Paillier modulus, the new ring-Pedersen
// parameters, and the Feldman commitment to this party's zero-constant
// rerandomization polynomial. Both the committing and decommitting side
// must build this list identically.
func commitmentItems(
	paillierPublic *paillier.PublicKey,
	pedersenPublic *pedersen.Parameters,
	deltaExponent *polynomial.Exponent,
) []hash.WriterToWithDomain {
	return []hash.WriterToWithDomain{
		&hash.BytesWithDomain{TheDomain: "Refresh/PaillierN", Bytes: paillierPublic.N().Nat().Big().Bytes()},
		&hash.BytesWithDomain{TheDomain: "Refresh/PedersenS", Bytes: natBytes(pedersenPublic.S())},
		&hash.BytesWithDomain{TheDomain: "Refresh/PedersenT", Bytes: natBytes(pedersenPublic.T())},
		&hash.BytesWithDomain{TheDomain: "Refresh/DeltaExponent", Bytes: deltaExponentBytes(deltaExponent)},
	}
}
