package refresh

import (
	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/zk/mod"
)

type broadcast1 struct {
	Commitment hash.Commitment
}

func (broadcast1) RoundNumber() round.Number { return 1 }

type broadcast2 struct {
	PaillierN     []byte
	PedersenS     []byte
	PedersenT     []byte
	DeltaExponent exponentWire
	Decommitment  hash.Decommitment
}

func (broadcast2) RoundNumber() round.Number { return 3 }

type shareMessage struct {
	Share []byte
}

func (shareMessage) RoundNumber() round.Number { return 3 }

type broadcast3 struct {
	Mod *mod.Proof
	Prm prmProofWire
	Fac facProofWire
}

func (broadcast3) RoundNumber() round.Number { return 4 }
