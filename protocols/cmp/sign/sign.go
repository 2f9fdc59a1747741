package sign

import (
	"errors"
	"fmt"

	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/internal/types"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/math/polynomial"
	"github.com/cobaltss/cggmp21/pkg/paillier"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/pedersen"
	"github.com/cobaltss/cggmp21/pkg/pool"
	"github.com/cobaltss/cggmp21/pkg/protocol"
	"github.com/cobaltss/cggmp21/protocols/cmp/config"
)

// protocolSignID identifies the five-round signing protocol.
const (
	protocolSignID                  = "cmp/sign"
	protocolSignRounds round.Number = 5
)

func StartSign(config *config.Config, signers []party.ID, message []byte, pl *pool.Pool) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		group := config.Group

		// this could be used to indicate a pre-signature later on
		if len(message) == 0 {
			return nil, errors.New("sign.Create: message is nil")
		}

		info := round.Info{
			ProtocolID:       protocolSignID,
			FinalRoundNumber: protocolSignRounds,
			SelfID:           config.ID,
			PartyIDs:         signers,
			Threshold:        config.Threshold,
			Group:            config.Group,
		}

		helper, err := round.NewSession(info, sessionID, pl, config, types.SigningMessage(message))
		if err != nil {
			return nil, fmt.Errorf("sign.Create: %w", err)
		}

		if !config.CanSign(helper.PartyIDs()) {
			return nil, errors.New("sign.Create: signers is not a valid signing subset")
		}

		// Scale public data
		T := helper.N()
		ECDSA := make(map[party.ID]curve.Point, T)
		Paillier := make(map[party.ID]*paillier.PublicKey, T)
		Pedersen := make(map[party.ID]*pedersen.Parameters, T)
		PublicKey := group.NewPoint()
		lagrange := polynomial.Lagrange(group, signers)
		// Scale own secret
		SecretECDSA := group.NewScalar().Set(lagrange[config.ID]).Mul(config.ECDSA)
		SecretPaillier := config.Paillier
		for _, j := range helper.PartyIDs() {
			public := config.Public[j]
			// scale public key share
			ECDSA[j] = lagrange[j].Act(public.ECDSA)
			// Clone the Paillier public key to avoid race conditions
			Paillier[j] = public.Paillier.Clone()
			Pedersen[j] = public.Pedersen
			PublicKey = PublicKey.Add(ECDSA[j])
		}

		return &round1{
			session: &session{
				Helper:         helper,
				PublicKey:      PublicKey,
				SecretECDSA:    SecretECDSA,
				SecretPaillier: SecretPaillier,
				Paillier:       Paillier,
				Pedersen:       Pedersen,
				ECDSA:          ECDSA,
				Message:        message,
			},
			K: make(map[party.ID]*paillier.Ciphertext, T),
			G: make(map[party.ID]*paillier.Ciphertext, T),
		}, nil
	}
}
