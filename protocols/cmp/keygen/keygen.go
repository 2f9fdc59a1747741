// Package keygen implements distributed key generation for threshold ECDSA
// (spec components F and G): a five-round protocol that leaves every party
// holding an additive Shamir share of a freshly generated secret key, with
// no single party ever learning the whole thing.
//
// Passing threshold == 0 runs the full, non-threshold variant, where every
// one of the N parties must take part in every later signature; otherwise
// any threshold+1 of the N parties suffice.
package keygen

import (
	"fmt"

	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/pool"
	"github.com/cobaltss/cggmp21/pkg/protocol"
)

const (
	protocolKeygenID                  = "cmp/keygen"
	protocolKeygenRounds round.Number = 5
)

// StartKeygen begins a fresh key generation among partyIDs.
func StartKeygen(group curve.Curve, partyIDs []party.ID, threshold int, selfID party.ID, pl *pool.Pool) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		partyIDSlice := party.NewIDSlice(partyIDs)
		if !partyIDSlice.Valid() {
			return nil, fmt.Errorf("keygen.StartKeygen: party IDs invalid")
		}
		if !partyIDSlice.Contains(selfID) {
			return nil, fmt.Errorf("keygen.StartKeygen: selfID %q not among partyIDs", selfID)
		}
		if threshold < 0 || threshold >= len(partyIDSlice) {
			return nil, fmt.Errorf("keygen.StartKeygen: threshold %d invalid for %d parties", threshold, len(partyIDSlice))
		}

		info := round.Info{
			ProtocolID:       protocolKeygenID,
			FinalRoundNumber: protocolKeygenRounds,
			SelfID:           selfID,
			PartyIDs:         partyIDSlice,
			Threshold:        threshold,
			Group:            group,
		}

		helper, err := round.NewSession(info, sessionID, pl)
		if err != nil {
			return nil, fmt.Errorf("keygen.StartKeygen: %w", err)
		}

		return &round1{
			session:     &session{Helper: helper},
			Commitments: make(map[party.ID]hash.Commitment, helper.N()),
		}, nil
	}
}
