// Package config defines the persisted output of key generation: each
// party's secret key share plus the public data needed to verify and
// combine every other party's share during signing and refresh.
package config

import (
	"fmt"
	"io"

	"github.com/cobaltss/cggmp21/internal/types"
	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/math/polynomial"
	"github.com/cobaltss/cggmp21/pkg/paillier"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/pedersen"
)

// Public is the public half of a single party's key material: its ECDSA
// share point, Paillier public key, and ring-Pedersen parameters.
type Public struct {
	// ECDSA is this party's share of the public key, x_j*G, where x_j is its
	// Shamir share of the secret key.
	ECDSA curve.Point
	// Paillier is this party's Paillier public key, used by everyone else
	// to encrypt MtA terms addressed to it.
	Paillier *paillier.PublicKey
	// Pedersen is this party's ring-Pedersen parameters, used by everyone
	// else as the blinding base of a range proof addressed to it.
	Pedersen *pedersen.Parameters
}

// Config is the full result of a successful key generation (or refresh),
// held privately by a single party.
type Config struct {
	// Group is the curve this key was generated over.
	Group curve.Curve
	// ID is this party's own identifier.
	ID party.ID
	// Threshold is t: t+1 signers are required to produce a signature.
	// Threshold == 0 means every one of the N parties must sign (spec's
	// full, non-threshold DKG mode).
	Threshold int
	// RID is the session's combined random identifier, mixed into every
	// Fiat-Shamir transcript derived from this key.
	RID types.RID
	// ChainKey is the combined BIP-32 chain code, if this key supports
	// hierarchical derivation.
	ChainKey types.RID
	// ECDSA is this party's Shamir secret share x_i.
	ECDSA curve.Scalar
	// Paillier is this party's Paillier secret key.
	Paillier *paillier.SecretKey
	// Public holds every party's public data, keyed by ID (including this
	// party's own).
	Public map[party.ID]*Public
}

// PartyIDs returns every party with a share in this key, sorted.
func (c *Config) PartyIDs() party.IDSlice {
	ids := make([]party.ID, 0, len(c.Public))
	for id := range c.Public {
		ids = append(ids, id)
	}
	return party.NewIDSlice(ids)
}

// CanSign reports whether signers is a large enough, valid subset of this
// key's parties to reconstruct a signature: every ID must hold a share,
// with no duplicates, at least Threshold+1 of them, and this party's own ID
// must be among them.
func (c *Config) CanSign(signers []party.ID) bool {
	if len(signers) < c.Threshold+1 {
		return false
	}
	ids := party.NewIDSlice(signers)
	if !ids.Valid() {
		return false
	}
	selfIncluded := false
	for _, id := range ids {
		if _, ok := c.Public[id]; !ok {
			return false
		}
		if id == c.ID {
			selfIncluded = true
		}
	}
	return selfIncluded
}

// PublicPoint returns the full ECDSA public key X, interpolated at zero from
// every party's public share: X = sum_j lambda_j*X_j, with the Lagrange
// coefficients taken over all parties.
func (c *Config) PublicPoint() curve.Point {
	ids := c.PartyIDs()
	lagrange := polynomial.Lagrange(c.Group, ids)
	sum := c.Group.NewPoint()
	for _, id := range ids {
		sum = sum.Add(lagrange[id].Act(c.Public[id].ECDSA))
	}
	return sum
}

// Validate checks the internal consistency of this Config: that it holds
// its own public data, that the secret share's public point matches the
// advertised one, and that every ring-Pedersen parameter is well-formed.
func (c *Config) Validate() error {
	self, ok := c.Public[c.ID]
	if !ok {
		return fmt.Errorf("config: own ID %q missing from Public", c.ID)
	}
	if !c.ECDSA.ActOnBase().Equal(self.ECDSA) {
		return fmt.Errorf("config: secret share does not match public share")
	}
	for id, pub := range c.Public {
		if err := pub.Pedersen.Validate(); err != nil {
			return fmt.Errorf("config: party %q: %w", id, err)
		}
	}
	if c.Threshold < 0 || c.Threshold >= len(c.Public) {
		return fmt.Errorf("config: threshold %d invalid for %d parties", c.Threshold, len(c.Public))
	}
	return nil
}

// Clone returns a deep-enough copy of c safe to mutate independently.
func (c *Config) Clone() *Config {
	pub := make(map[party.ID]*Public, len(c.Public))
	for id, p := range c.Public {
		pub[id] = &Public{
			ECDSA:    p.ECDSA,
			Paillier: p.Paillier.Clone(),
			Pedersen: p.Pedersen,
		}
	}
	return &Config{
		Group:     c.Group,
		ID:        c.ID,
		Threshold: c.Threshold,
		RID:       c.RID,
		ChainKey:  c.ChainKey,
		ECDSA:     c.Group.NewScalar().Set(c.ECDSA),
		Paillier:  c.Paillier,
		Public:    pub,
	}
}

// WriteTo absorbs every field of c that downstream protocols need bound
// into their execution ID: which key, generated by whom, over what curve.
func (c *Config) WriteTo(w io.Writer) (int64, error) {
	total := int64(0)
	write := func(b []byte) error {
		n, err := w.Write(b)
		total += int64(n)
		return err
	}
	if err := write([]byte(c.Group.Name())); err != nil {
		return total, err
	}
	for _, id := range c.PartyIDs() {
		if err := write([]byte(id)); err != nil {
			return total, err
		}
		pub := c.Public[id]
		ecdsaBytes, err := pub.ECDSA.MarshalBinary()
		if err != nil {
			return total, err
		}
		if err := write(ecdsaBytes); err != nil {
			return total, err
		}
	}
	if err := write(c.RID[:]); err != nil {
		return total, err
	}
	return total, nil
}

// Domain implements hash.WriterToWithDomain.
func (c *Config) Domain() string { return "Config" }

var _ hash.WriterToWithDomain = (*Config)(nil)
