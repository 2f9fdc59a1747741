package keygen

import (
	"encoding/binary"

	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/math/polynomial"
	"github.com/cobaltss/cggmp21/pkg/paillier"
	"github.com/cobaltss/cggmp21/pkg/pedersen"
	"github.com/cobaltss/cggmp21/internal/types"
	"github.com/cobaltss/cggmp21/pkg/zk/prm"
	"github.com/cobaltss/cggmp21/pkg/zk/sch"
)

// Same rationale as protocols/cmp/sign/marshal.go: flatten the values
// fxamacker/cbor can't serialize by reflection (saferith Nats, curve
// points, the committed polynomial) into plain bytes here, once, so the
// round files only ever juggle real domain types.

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
	out := make([][]byte, len(coeffs))
	for i, c := range coeffs {
		out[i] = pointBytes(c)
	}
	return exponentWire{Coefficients: out}
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
	as := make([][]byte, len(p.As))
	for i, a := range p.As {
		as[i] = natBytes(a)
	}
	zs := make([][]byte, len(p.Zs))
	for i, z := range p.Zs {
		zs[i] = natBytes(z)
	}
	return prmProofWire{As: as, Zs: zs}
}

func (w prmProofWire) toProof() *prm.Proof {
	as := make([]*saferith.Nat, len(w.As))
	for i, a := range w.As {
		as[i] = natFromBytes(a)
	}
	zs := make([]*saferith.Nat, len(w.Zs))
	for i, z := range w.Zs {
		zs[i] = natFromBytes(z)
	}
	return &prm.Proof{As: as, Zs: zs}
}

// schProofWire flattens a zk/sch.Proof's curve point and scalar.
type schProofWire struct {
	A []byte
	Z []byte
}

func wireFromSchProof(p *sch.Proof) schProofWire {
	zBytes, _ := p.Z.MarshalBinary()
	return schProofWire{A: pointBytes(p.A), Z: zBytes}
}

func (w schProofWire) toProof(group curve.Curve) (*sch.Proof, error) {
	a, err := pointFromBytes(group, w.A)
	if err != nil {
		return nil, err
	}
	z := group.NewScalar()
	if err := z.UnmarshalBinary(w.Z); err != nil {
		return nil, err
	}
	return &sch.Proof{A: a, Z: z}, nil
}

// vssPolynomialBytes flattens an Exponent's coefficient points into a single
// length-framed byte string, used only to fold the polynomial into a hash
// commitment (the wire format proper is exponentWire, above).
func vssPolynomialBytes(e *polynomial.Exponent) []byte {
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
// round2 later reveals: the rid/chain-key contribution, the Feldman
// exponent-commitment, the Paillier/ring-Pedersen/ElGamal public material,
// and the Schnorr commitment A_i. Both the committing and decommitting side
// must build this list identically.
func commitmentItems(
	rid, chainKey types.RID,
	vssPolynomial *polynomial.Exponent,
	paillierPublic *paillier.PublicKey,
	pedersenPublic *pedersen.Parameters,
	elgamalPublic curve.Point,
	schnorrCommitment curve.Point,
) []hash.WriterToWithDomain {
	return []hash.WriterToWithDomain{
		rid,
		chainKey,
		&hash.BytesWithDomain{TheDomain: "Keygen/VSSPolynomial", Bytes: vssPolynomialBytes(vssPolynomial)},
		&hash.BytesWithDomain{TheDomain: "Keygen/PaillierN", Bytes: paillierPublic.N().Nat().Big().Bytes()},
		&hash.BytesWithDomain{TheDomain: "Keygen/PedersenS", Bytes: natBytes(pedersenPublic.S())},
		&hash.BytesWithDomain{TheDomain: "Keygen/PedersenT", Bytes: natBytes(pedersenPublic.T())},
		&hash.BytesWithDomain{TheDomain: "Keygen/ElGamalPublic", Bytes: pointBytes(elgamalPublic)},
		&hash.BytesWithDomain{TheDomain: "Keygen/SchnorrCommitment", Bytes: pointBytes(schnorrCommitment)},
	}
}
