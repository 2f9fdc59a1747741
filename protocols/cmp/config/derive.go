package config

import (
	"github.com/cobaltss/cggmp21/internal/types"
	"github.com/cobaltss/cggmp21/pkg/bip32"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/party"
)

// Derive adjusts every party's share (and the aggregate public key) by
// adding adjust, non-interactively: since every share and the public key
// are additive in the secret, shifting them all by the same scalar (and
// G*adjust respectively) produces a valid sharing of x+adjust without any
// party ever reconstructing a secret. If newChainKey is the zero value,
// the existing chain key is kept.
func (c *Config) Derive(adjust curve.Scalar, newChainKey types.RID) *Config {
	var zero types.RID
	if newChainKey == zero {
		newChainKey = c.ChainKey
	}
	adjustG := adjust.ActOnBase()

	public := make(map[party.ID]*Public, len(c.Public))
	for id, pub := range c.Public {
		public[id] = &Public{
			ECDSA:    pub.ECDSA.Add(adjustG),
			Paillier: pub.Paillier,
			Pedersen: pub.Pedersen,
		}
	}

	return &Config{
		Group:     c.Group,
		ID:        c.ID,
		Threshold: c.Threshold,
		RID:       c.RID,
		ChainKey:  newChainKey,
		ECDSA:     c.Group.NewScalar().Set(c.ECDSA).Add(adjust),
		Paillier:  c.Paillier,
		Public:    public,
	}
}

// DeriveBIP32 derives the sharing of this key's ith unhardened BIP-32
// child, adjusting both the secret share and every public share.
func (c *Config) DeriveBIP32(i uint32) (*Config, error) {
	tweak, newChainKey, err := bip32.DeriveScalar(c.Group, c.PublicPoint(), c.ChainKey, i)
	if err != nil {
		return nil, err
	}
	return c.Derive(tweak, newChainKey), nil
}
