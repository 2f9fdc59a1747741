package pedersen

import (
	"encoding/json"

	"github.com/cronokirby/saferith"
)

type parametersJSON struct {
	N []byte `json:"n"`
	S []byte `json:"s"`
	T []byte `json:"t"`
}

// MarshalJSON implements json.Marshaler.
func (p *Parameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(parametersJSON{
		N: p.nNat.Big().Bytes(),
		S: p.s.Big().Bytes(),
		T: p.t.Big().Bytes(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Parameters) UnmarshalJSON(data []byte) error {
	var raw parametersJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n := new(saferith.Nat).SetBytes(raw.N)
	s := new(saferith.Nat).SetBytes(raw.S)
	t := new(saferith.Nat).SetBytes(raw.T)
	*p = *NewParameters(saferith.ModulusFromNat(n), s, t)
	return nil
}
