package refresh

import (
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/math/polynomial"
	"github.com/cobaltss/cggmp21/pkg/paillier"
	"github.com/cobaltss/cggmp21/pkg/params"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/pedersen"
	"github.com/cobaltss/cggmp21/pkg/zk/fac"
	"github.com/cobaltss/cggmp21/pkg/zk/mod"
	"github.com/cobaltss/cggmp21/pkg/zk/prm"
)

// round3 opens every other party's round1 commitment and stores the
// rerandomization share they sent alongside it. It is simultaneously a
// BroadcastRound (collecting the decommit) and an ordinary message round
// (collecting the share), both tagged with this round's own number.
type round3 struct {
	*session

	Commitments    map[party.ID]hash.Commitment
	PaillierPublic map[party.ID]*paillier.PublicKey
	PedersenPublic map[party.ID]*pedersen.Parameters
	DeltaExponents map[party.ID]*polynomial.Exponent
	SharesReceived map[party.ID]curve.Scalar

	PaillierSecret *paillier.SecretKey
	PedersenLambda *saferith.Nat
}

func (r *round3) Number() round.Number { return 3 }

func (r *round3) BroadcastContent() round.BroadcastContent { return &broadcast2{} }

func (r *round3) MessageContent() round.Content { return &shareMessage{} }

func (r *round3) VerifyMessage(msg round.Message) error {
	if _, ok := msg.Content.(*shareMessage); !ok {
		return round.ErrInvalidContent
	}
	return nil
}

func (r *round3) StoreMessage(msg round.Message) error {
	body, ok := msg.Content.(*shareMessage)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	share := r.Group().NewScalar()
	if err := share.UnmarshalBinary(body.Share); err != nil {
		return fmt.Errorf("refresh round3: invalid share from %q: %w", msg.From, err)
	}
	r.SharesReceived[msg.From] = share
	return nil
}

func (r *round3) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast2)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	commitment, ok := r.Commitments[msg.From]
	if !ok {
		return fmt.Errorf("refresh round3: no commitment recorded for %q", msg.From)
	}

	deltaExponent, err := body.DeltaExponent.toExponent(r.Group())
	if err != nil {
		return fmt.Errorf("refresh round3: %w", err)
	}
	if deltaExponent.Degree() != r.Threshold() {
		return fmt.Errorf("refresh round3: party %q committed to the wrong polynomial degree", msg.From)
	}
	if !deltaExponent.Constant().IsIdentity() {
		return fmt.Errorf("refresh round3: party %q submitted a non-zero-sum rerandomization", msg.From)
	}

	paillierPublic := paillier.NewPublicKey(natFromBytes(body.PaillierN))
	pedersenPublic := pedersen.NewParameters(paillierPublic.N(), natFromBytes(body.PedersenS), natFromBytes(body.PedersenT))

	if !r.Hash().Decommit(commitment, body.Decommitment, commitmentItems(paillierPublic, pedersenPublic, deltaExponent)...) {
		return fmt.Errorf("refresh round3: commitment mismatch from %q", msg.From)
	}

	if err := pedersenPublic.Validate(); err != nil {
		return fmt.Errorf("refresh round3: party %q: %w", msg.From, err)
	}

	r.PaillierPublic[msg.From] = paillierPublic
	r.PedersenPublic[msg.From] = pedersenPublic
	r.DeltaExponents[msg.From] = deltaExponent
	return nil
}

func (r *round3) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()

	for _, j := range r.OtherPartyIDs() {
		deltaExponent, ok := r.DeltaExponents[j]
		if !ok {
			return r.AbortRound(fmt.Errorf("refresh round3: missing rerandomization polynomial from %q", j), j), nil
		}
		share, ok := r.SharesReceived[j]
		if !ok {
			return r.AbortRound(fmt.Errorf("refresh round3: missing share from %q", j), j), nil
		}
		expected := deltaExponent.Evaluate(r.SelfID().Scalar(group))
		if !share.ActOnBase().Equal(expected) {
			return r.AbortRound(fmt.Errorf("refresh round3: share from %q does not match its commitment", j), j), nil
		}
	}

	sl := params.ReasonablySecure()
	transcript := r.Hash()

	paillierPublic := r.PaillierSecret.PublicKey()
	modProof := mod.NewProof(sl, transcript, mod.Public{N: paillierPublic.N()}, mod.Private{
		P:   r.PaillierSecret.P().Big(),
		Q:   r.PaillierSecret.Q().Big(),
		Phi: r.PaillierSecret.Phi().Big(),
	})
	prmProof := prm.NewProof(sl, transcript, prm.Public{Aux: r.PedersenPublic[r.SelfID()]}, prm.Private{
		Lambda: r.PedersenLambda,
		Phi:    r.PaillierSecret.Phi(),
	})
	facProof := fac.NewProof(sl, transcript, fac.Public{N: paillierPublic.N(), Aux: r.PedersenPublic[r.SelfID()]}, fac.Private{
		P: r.PaillierSecret.P(),
		Q: r.PaillierSecret.Q(),
	})

	if err := r.BroadcastMessage(out, &broadcast3{
		Mod: modProof,
		Prm: wireFromPrmProof(prmProof),
		Fac: wireFromFacProof(facProof),
	}); err != nil {
		return r, err
	}

	return &round4{
		session:        r.session,
		PaillierPublic: r.PaillierPublic,
		PedersenPublic: r.PedersenPublic,
		DeltaExponents: r.DeltaExponents,
		SharesReceived: r.SharesReceived,
		PaillierSecret: r.PaillierSecret,
	}, nil
}
