// Package refresh implements aux-info generation and key-refresh: every
// party replaces its Paillier keypair and ring-Pedersen parameters with a
// fresh set, and adds a zero-sum rerandomization to its additive ECDSA
// share, so that a leaked old share or Paillier key reveals nothing about
// the refreshed ones while the combined public key stays identical.
package refresh

import (
	"errors"
	"fmt"

	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/pool"
	"github.com/cobaltss/cggmp21/pkg/protocol"
	"github.com/cobaltss/cggmp21/protocols/cmp/config"
)

const (
	protocolRefreshID                  = "cmp/refresh"
	protocolRefreshRounds round.Number = 4
)

// StartRefresh runs aux-info generation and key-refresh over every party
// already holding a share of cfg. It always touches the full party set
// cfg was generated for; unlike signing, refresh has no notion of a
// signing subset.
func StartRefresh(cfg *config.Config, pl *pool.Pool) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		if cfg == nil {
			return nil, errors.New("refresh.Create: config is nil")
		}

		info := round.Info{
			ProtocolID:       protocolRefreshID,
			FinalRoundNumber: protocolRefreshRounds,
			SelfID:           cfg.ID,
			PartyIDs:         cfg.PartyIDs(),
			Threshold:        cfg.Threshold,
			Group:            cfg.Group,
		}

		helper, err := round.NewSession(info, sessionID, pl, cfg)
		if err != nil {
			return nil, fmt.Errorf("refresh.Create: %w", err)
		}

		return &round1{
			session: &session{
				Helper: helper,
				Old:    cfg,
			},
			Commitments: make(map[party.ID]hash.Commitment, helper.N()),
		}, nil
	}
}
