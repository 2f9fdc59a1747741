package keygen

import (
	"fmt"

	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/zk/sch"
	"github.com/cobaltss/cggmp21/protocols/cmp/config"
)

// round5 collects every party's proof of knowledge of its final secret
// share, checks each against the commitment opened back in round2, and
// assembles the resulting Config.
type round5 struct {
	*session

	Config             *config.Config
	SchnorrCommitments map[party.ID]curve.Point
	Responses          map[party.ID]*sch.Proof
}

func (r *round5) Number() round.Number { return 5 }

func (r *round5) BroadcastContent() round.BroadcastContent { return &broadcast4{} }

func (r *round5) MessageContent() round.Content { return nil }

func (r *round5) VerifyMessage(round.Message) error { return nil }

func (r *round5) StoreMessage(round.Message) error { return nil }

func (r *round5) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast4)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	proof, err := body.SchnorrResponse.toProof(r.Group())
	if err != nil {
		return fmt.Errorf("keygen round5: %w", err)
	}
	commitment, ok := r.SchnorrCommitments[msg.From]
	if !ok {
		return fmt.Errorf("keygen round5: unknown sender %q", msg.From)
	}
	if !proof.A.Equal(commitment) {
		return fmt.Errorf("keygen round5: party %q changed its Schnorr commitment", msg.From)
	}
	r.Responses[msg.From] = proof
	return nil
}

func (r *round5) Finalize(chan<- *round.Message) (round.Session, error) {
	transcript := r.Hash()
	if err := transcript.WriteAny(r.Config); err != nil {
		return r.AbortRound(err), nil
	}

	for _, j := range r.PartyIDs() {
		proof, ok := r.Responses[j]
		if !ok {
			return r.AbortRound(fmt.Errorf("keygen round5: missing Schnorr response from %q", j), j), nil
		}
		if !proof.Verify(transcript, r.Group(), nil, r.Config.Public[j].ECDSA) {
			return r.AbortRound(fmt.Errorf("keygen round5: invalid Schnorr response from %q", j), j), nil
		}
	}

	if err := r.Config.Validate(); err != nil {
		return r.AbortRound(err), nil
	}

	return r.ResultRound(r.Config), nil
}
