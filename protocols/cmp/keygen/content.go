package keygen

import (
	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/internal/types"
	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/zk/mod"
)

// broadcast1 carries party i's commitment to everything it will reveal in
// broadcast2: its rid/chain-key contribution, Feldman commitment, and
// Paillier/ring-Pedersen/ElGamal public material. Only the digest travels
// here; revealing the preimage one round later is what stops a party from
// picking its rid contribution after seeing everyone else's.
type broadcast1 struct {
	Commitment hash.Commitment
}

func (broadcast1) RoundNumber() round.Number { return 1 }

// broadcast2 opens the commitment from round1 and exposes the data every
// other party needs to verify VSS shares and the eventual Schnorr response:
// the rid/chain-key contribution, the Feldman exponent-commitment, this
// party's Paillier/ring-Pedersen/ElGamal public keys, and the Schnorr
// commitment A_i it will later prove knowledge of its share against.
// Everything revealed here was bound into round1's commitment, so a party
// cannot choose any of it after seeing anyone else's.
type broadcast2 struct {
	RID               types.RID
	ChainKey          types.RID
	VSSPolynomial     exponentWire
	PaillierN         []byte
	PedersenS         []byte
	PedersenT         []byte
	ElGamalPublic     []byte
	SchnorrCommitment []byte
	Decommitment      hash.Decommitment
}

func (broadcast2) RoundNumber() round.Number { return 3 }

// shareMessage is the pairwise VSS share f_i(j) party i sends party j,
// alongside broadcast2. It travels unencrypted: MultiHandler never
// broadcasts point-to-point content, so it's already only visible to the
// intended recipient.
type shareMessage struct {
	Share []byte
}

func (shareMessage) RoundNumber() round.Number { return 3 }

// broadcast3 carries the Pi_mod/Pi_prm proofs of correct Paillier/Pedersen
// setup.
type broadcast3 struct {
	Mod *mod.Proof
	Prm prmProofWire
}

func (broadcast3) RoundNumber() round.Number { return 4 }

// broadcast4 carries party i's Schnorr response z_i, proving knowledge of
// its final secret share x_i.
type broadcast4 struct {
	SchnorrResponse schProofWire
}

func (broadcast4) RoundNumber() round.Number { return 5 }
