package keygen

import (
	"fmt"

	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/internal/types"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/math/polynomial"
	"github.com/cobaltss/cggmp21/pkg/paillier"
	"github.com/cobaltss/cggmp21/pkg/params"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/pedersen"
	"github.com/cobaltss/cggmp21/pkg/zk/mod"
	"github.com/cobaltss/cggmp21/pkg/zk/prm"
	"github.com/cobaltss/cggmp21/pkg/zk/sch"
	"github.com/cobaltss/cggmp21/protocols/cmp/config"
)

// round4 verifies every other party's Pi_mod/Pi_prm proof of correct
// Paillier/ring-Pedersen setup, then combines every collected VSS share and
// Feldman commitment into the group's single public key and this party's
// final additive secret share.
type round4 struct {
	*session

	RIDs               map[party.ID]types.RID
	ChainKeys          map[party.ID]types.RID
	VSSPolynomials     map[party.ID]*polynomial.Exponent
	PaillierPublic     map[party.ID]*paillier.PublicKey
	PedersenPublic     map[party.ID]*pedersen.Parameters
	ElGamalPublic      map[party.ID]curve.Point
	SchnorrCommitments map[party.ID]curve.Point
	SharesReceived     map[party.ID]curve.Scalar

	PaillierSecret *paillier.SecretKey
	SchnorrRand    *sch.Randomness
}

func (r *round4) Number() round.Number { return 4 }

func (r *round4) BroadcastContent() round.BroadcastContent { return &broadcast3{} }

func (r *round4) MessageContent() round.Content { return nil }

func (r *round4) VerifyMessage(round.Message) error { return nil }

func (r *round4) StoreMessage(round.Message) error { return nil }

func (r *round4) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast3)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	paillierPublic, ok := r.PaillierPublic[msg.From]
	if !ok {
		return fmt.Errorf("keygen round4: unknown sender %q", msg.From)
	}
	pedersenPublic, ok := r.PedersenPublic[msg.From]
	if !ok {
		return fmt.Errorf("keygen round4: unknown sender %q", msg.From)
	}

	sl := params.ReasonablySecure()
	transcript := r.Hash()

	if !body.Mod.Verify(sl, transcript, mod.Public{N: paillierPublic.N()}) {
		return fmt.Errorf("keygen round4: invalid Pi_mod proof from %q", msg.From)
	}
	if !body.Prm.toProof().Verify(sl, transcript, prm.Public{Aux: pedersenPublic}) {
		return fmt.Errorf("keygen round4: invalid Pi_prm proof from %q", msg.From)
	}
	return nil
}

func (r *round4) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()

	combinedRID := r.RIDs[r.SelfID()]
	combinedChainKey := r.ChainKeys[r.SelfID()]
	for _, j := range r.OtherPartyIDs() {
		combinedRID = combinedRID.XOR(r.RIDs[j])
		combinedChainKey = combinedChainKey.XOR(r.ChainKeys[j])
	}

	finalShare := group.NewScalar()
	for _, share := range r.SharesReceived {
		finalShare = finalShare.Add(share)
	}

	exponents := make([]*polynomial.Exponent, 0, len(r.VSSPolynomials))
	for _, j := range r.PartyIDs() {
		exponents = append(exponents, r.VSSPolynomials[j])
	}
	combined, err := polynomial.Sum(exponents)
	if err != nil {
		return r, fmt.Errorf("keygen round4: %w", err)
	}

	public := make(map[party.ID]*config.Public, r.N())
	for _, j := range r.PartyIDs() {
		public[j] = &config.Public{
			ECDSA:    combined.Evaluate(j.Scalar(group)),
			Paillier: r.PaillierPublic[j],
			Pedersen: r.PedersenPublic[j],
		}
	}

	cfg := &config.Config{
		Group:     group,
		ID:        r.SelfID(),
		Threshold: r.Threshold(),
		RID:       combinedRID,
		ChainKey:  combinedChainKey,
		ECDSA:     finalShare,
		Paillier:  r.PaillierSecret,
		Public:    public,
	}

	transcript := r.Hash()
	if err := transcript.WriteAny(cfg); err != nil {
		return r, fmt.Errorf("keygen round4: %w", err)
	}
	proof := sch.NewProof(transcript, r.SchnorrRand, cfg.Public[r.SelfID()].ECDSA, finalShare)

	if err := r.BroadcastMessage(out, &broadcast4{SchnorrResponse: wireFromSchProof(proof)}); err != nil {
		return r, err
	}

	return &round5{
		session:            r.session,
		Config:             cfg,
		SchnorrCommitments: r.SchnorrCommitments,
		Responses:          map[party.ID]*sch.Proof{r.SelfID(): proof},
	}, nil
}
