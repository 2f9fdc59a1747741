package refresh

import (
	"fmt"

	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/math/polynomial"
	"github.com/cobaltss/cggmp21/pkg/paillier"
	"github.com/cobaltss/cggmp21/pkg/params"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/pedersen"
	"github.com/cobaltss/cggmp21/pkg/zk/fac"
	"github.com/cobaltss/cggmp21/pkg/zk/mod"
	"github.com/cobaltss/cggmp21/pkg/zk/prm"
	"github.com/cobaltss/cggmp21/protocols/cmp/config"
)

// round4 verifies every other party's Pi_mod/Pi_prm/Pi_fac proof of
// correct new-Paillier/new-Pedersen setup, then folds every collected
// rerandomization share and exponent-commitment into the refreshed
// Config: the combined public key stays exactly what it was, but every
// party's additive secret share and aux info are now independent of the
// pre-refresh ones.
type round4 struct {
	*session

	PaillierPublic map[party.ID]*paillier.PublicKey
	PedersenPublic map[party.ID]*pedersen.Parameters
	DeltaExponents map[party.ID]*polynomial.Exponent
	SharesReceived map[party.ID]curve.Scalar

	PaillierSecret *paillier.SecretKey
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
		return fmt.Errorf("refresh round4: unknown sender %q", msg.From)
	}
	pedersenPublic, ok := r.PedersenPublic[msg.From]
	if !ok {
		return fmt.Errorf("refresh round4: unknown sender %q", msg.From)
	}

	sl := params.ReasonablySecure()
	transcript := r.Hash()

	if !body.Mod.Verify(sl, transcript, mod.Public{N: paillierPublic.N()}) {
		return fmt.Errorf("refresh round4: invalid Pi_mod proof from %q", msg.From)
	}
	if !body.Prm.toProof().Verify(sl, transcript, prm.Public{Aux: pedersenPublic}) {
		return fmt.Errorf("refresh round4: invalid Pi_prm proof from %q", msg.From)
	}
	// The Pi_fac blinding aux is the sender's own ring-Pedersen key here
	// (the same self-referential convention as Pi_prm above), not a
	// verifier-chosen one: there is no separate per-recipient aux to draw
	// on in a broadcast-only round.
	if !body.Fac.toProof().Verify(sl, transcript, fac.Public{N: paillierPublic.N(), Aux: pedersenPublic}) {
		return fmt.Errorf("refresh round4: invalid Pi_fac proof from %q", msg.From)
	}
	return nil
}

func (r *round4) Finalize(chan<- *round.Message) (round.Session, error) {
	group := r.Group()
	old := r.Old

	newECDSA := group.NewScalar().Set(old.ECDSA)
	for _, share := range r.SharesReceived {
		newECDSA = newECDSA.Add(share)
	}

	public := make(map[party.ID]*config.Public, r.N())
	for _, k := range r.PartyIDs() {
		oldPublic, ok := old.Public[k]
		if !ok {
			return r.AbortRound(fmt.Errorf("refresh round4: old config missing party %q", k)), nil
		}
		point := oldPublic.ECDSA
		for _, i := range r.PartyIDs() {
			point = point.Add(r.DeltaExponents[i].Evaluate(k.Scalar(group)))
		}
		public[k] = &config.Public{
			ECDSA:    point,
			Paillier: r.PaillierPublic[k],
			Pedersen: r.PedersenPublic[k],
		}
	}

	cfg := &config.Config{
		Group:     group,
		ID:        r.SelfID(),
		Threshold: r.Threshold(),
		RID:       old.RID,
		ChainKey:  old.ChainKey,
		ECDSA:     newECDSA,
		Paillier:  r.PaillierSecret,
		Public:    public,
	}

	if err := cfg.Validate(); err != nil {
		return r.AbortRound(err), nil
	}

	return r.ResultRound(cfg), nil
}
