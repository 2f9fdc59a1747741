package paillier

import (
	"encoding/json"

	"github.com/cronokirby/saferith"
)

type publicKeyJSON struct {
	N []byte `json:"n"`
}

// MarshalJSON implements json.Marshaler.
func (pk *PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(publicKeyJSON{N: pk.nNat.Big().Bytes()})
}

// UnmarshalJSON implements json.Unmarshaler.
func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	var raw publicKeyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n := new(saferith.Nat).SetBytes(raw.N)
	*pk = *NewPublicKey(n)
	return nil
}

type secretKeyJSON struct {
	P []byte `json:"p"`
	Q []byte `json:"q"`
}

// MarshalJSON implements json.Marshaler.
func (sk *SecretKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(secretKeyJSON{P: sk.p.Big().Bytes(), Q: sk.q.Big().Bytes()})
}

// UnmarshalJSON implements json.Unmarshaler.
func (sk *SecretKey) UnmarshalJSON(data []byte) error {
	var raw secretKeyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p := new(saferith.Nat).SetBytes(raw.P)
	q := new(saferith.Nat).SetBytes(raw.Q)
	*sk = *NewSecretKeyFromPrimes(p, q)
	return nil
}
