package sign

import (
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/paillier"
	"github.com/cobaltss/cggmp21/pkg/zk/affg"
	"github.com/cobaltss/cggmp21/pkg/zk/enc"
	"github.com/cobaltss/cggmp21/pkg/zk/logstar"
)

// The round content broadcast and sent over the wire is CBOR-encoded, and
// every field fxamacker/cbor can't serialize directly by reflection
// (saferith values, curve points, zero-knowledge proofs holding either)
// is flattened into plain bytes/*big.Int here and rebuilt on the other
// end. Keeping this conversion in one place means the round files
// themselves only ever juggle the real domain types.

func natBytes(n *saferith.Nat) []byte { return n.Big().Bytes() }
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

type encProofWire struct {
	S  []byte
	A  []byte
	C  []byte
	Z1 *big.Int
	Z2 []byte
	Z3 *big.Int
}

func wireFromEncProof(p *enc.Proof) encProofWire {
	return encProofWire{S: natBytes(p.S), A: p.A.Bytes(), C: natBytes(p.C), Z1: p.Z1, Z2: natBytes(p.Z2), Z3: p.Z3}
}

func (w encProofWire) toProof() *enc.Proof {
	return &enc.Proof{
		S:  natFromBytes(w.S),
		A:  paillier.CiphertextFromBytes(w.A),
		C:  natFromBytes(w.C),
		Z1: w.Z1,
		Z2: natFromBytes(w.Z2),
		Z3: w.Z3,
	}
}

type affgProofWire struct {
	A  []byte
	Bx []byte
	By []byte
	E  []byte
	S  []byte
	F  []byte
	T  []byte
	Z1 *big.Int
	Z2 *big.Int
	Z3 *big.Int
	Z4 *big.Int
	W  []byte
	Wy []byte
}

func wireFromAffgProof(p *affg.Proof) affgProofWire {
	return affgProofWire{
		A: p.A.Bytes(), Bx: pointBytes(p.Bx), By: p.By.Bytes(),
		E: natBytes(p.E), S: natBytes(p.S), F: natBytes(p.F), T: natBytes(p.T),
		Z1: p.Z1, Z2: p.Z2, Z3: p.Z3, Z4: p.Z4,
		W: natBytes(p.W), Wy: natBytes(p.Wy),
	}
}

func (w affgProofWire) toProof(group curve.Curve) (*affg.Proof, error) {
	bx, err := pointFromBytes(group, w.Bx)
	if err != nil {
		return nil, err
	}
	return &affg.Proof{
		A: paillier.CiphertextFromBytes(w.A), Bx: bx, By: paillier.CiphertextFromBytes(w.By),
		E: natFromBytes(w.E), S: natFromBytes(w.S), F: natFromBytes(w.F), T: natFromBytes(w.T),
		Z1: w.Z1, Z2: w.Z2, Z3: w.Z3, Z4: w.Z4,
		W: natFromBytes(w.W), Wy: natFromBytes(w.Wy),
	}, nil
}

type logstarProofWire struct {
	S  []byte
	A  []byte
	Y  []byte
	D  []byte
	Z1 *big.Int
	Z2 []byte
	Z3 *big.Int
}

func wireFromLogstarProof(p *logstar.Proof) logstarProofWire {
	return logstarProofWire{S: natBytes(p.S), A: p.A.Bytes(), Y: pointBytes(p.Y), D: natBytes(p.D), Z1: p.Z1, Z2: natBytes(p.Z2), Z3: p.Z3}
}

func (w logstarProofWire) toProof(group curve.Curve) (*logstar.Proof, error) {
	y, err := pointFromBytes(group, w.Y)
	if err != nil {
		return nil, err
	}
	return &logstar.Proof{
		S: natFromBytes(w.S), A: paillier.CiphertextFromBytes(w.A), Y: y, D: natFromBytes(w.D),
		Z1: w.Z1, Z2: natFromBytes(w.Z2), Z3: w.Z3,
	}, nil
}
