package config

import (
	"encoding/json"
	"fmt"

	"github.com/cobaltss/cggmp21/internal/types"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/paillier"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/pedersen"
)

type configJSON struct {
	Group     string                 `json:"group"`
	ID        party.ID               `json:"id"`
	Threshold int                    `json:"threshold"`
	RID       types.RID              `json:"rid"`
	ChainKey  types.RID              `json:"chain_key"`
	ECDSA     []byte                 `json:"ecdsa"`
	Paillier  *paillier.SecretKey    `json:"paillier"`
	Public    map[party.ID]publicJSON `json:"public"`
}

type publicJSON struct {
	ECDSA    []byte               `json:"ecdsa"`
	Paillier *paillier.PublicKey  `json:"paillier"`
	Pedersen *pedersen.Parameters `json:"pedersen"`
}

// MarshalJSON implements json.Marshaler. Group is restricted to secp256k1
// today (the only curve.Curve implementation this module ships), so it is
// encoded by name and re-resolved on unmarshal rather than serialized
// structurally.
func (c *Config) MarshalJSON() ([]byte, error) {
	ecdsaBytes, err := c.ECDSA.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("config: marshal ECDSA share: %w", err)
	}
	public := make(map[party.ID]publicJSON, len(c.Public))
	for id, pub := range c.Public {
		pointBytes, err := pub.ECDSA.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("config: marshal public share for %q: %w", id, err)
		}
		public[id] = publicJSON{ECDSA: pointBytes, Paillier: pub.Paillier, Pedersen: pub.Pedersen}
	}
	return json.Marshal(configJSON{
		Group:     c.Group.Name(),
		ID:        c.ID,
		Threshold: c.Threshold,
		RID:       c.RID,
		ChainKey:  c.ChainKey,
		ECDSA:     ecdsaBytes,
		Paillier:  c.Paillier,
		Public:    public,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Config) UnmarshalJSON(data []byte) error {
	var raw configJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	group, err := curve.ByName(raw.Group)
	if err != nil {
		return fmt.Errorf("config: unmarshal: %w", err)
	}
	ecdsa := group.NewScalar()
	if err := ecdsa.UnmarshalBinary(raw.ECDSA); err != nil {
		return fmt.Errorf("config: unmarshal ECDSA share: %w", err)
	}
	public := make(map[party.ID]*Public, len(raw.Public))
	for id, pub := range raw.Public {
		point := group.NewPoint()
		if err := point.UnmarshalBinary(pub.ECDSA); err != nil {
			return fmt.Errorf("config: unmarshal public share for %q: %w", id, err)
		}
		public[id] = &Public{ECDSA: point, Paillier: pub.Paillier, Pedersen: pub.Pedersen}
	}
	c.Group = group
	c.ID = raw.ID
	c.Threshold = raw.Threshold
	c.RID = raw.RID
	c.ChainKey = raw.ChainKey
	c.ECDSA = ecdsa
	c.Paillier = raw.Paillier
	c.Public = public
	return nil
}
