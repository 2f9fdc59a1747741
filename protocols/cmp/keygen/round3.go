package keygen

import (
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/internal/types"
	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/math/polynomial"
	"github.com/cobaltss/cggmp21/pkg/paillier"
	"github.com/cobaltss/cggmp21/pkg/params"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/pedersen"
	"github.com/cobaltss/cggmp21/pkg/zk/mod"
	"github.com/cobaltss/cggmp21/pkg/zk/prm"
	"github.com/cobaltss/cggmp21/pkg/zk/sch"
)

// round3 opens every other party's round1 commitment and stores the pairwise
// VSS share they sent alongside it. It is simultaneously a BroadcastRound
// (collecting the decommit) and an ordinary message round (collecting the
// share), both tagged with this round's own number: the handler delivers
// both to the same round instance.
type round3 struct {
	*session

	Commitments        map[party.ID]hash.Commitment
	RIDs               map[party.ID]types.RID
	ChainKeys          map[party.ID]types.RID
	VSSPolynomials     map[party.ID]*polynomial.Exponent
	PaillierPublic     map[party.ID]*paillier.PublicKey
	PedersenPublic     map[party.ID]*pedersen.Parameters
	ElGamalPublic      map[party.ID]curve.Point
	SchnorrCommitments map[party.ID]curve.Point
	SharesReceived     map[party.ID]curve.Scalar

	PaillierSecret *paillier.SecretKey
	PedersenLambda *saferith.Nat
	SchnorrRand    *sch.Randomness
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
		return fmt.Errorf("keygen round3: invalid share from %q: %w", msg.From, err)
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
		return fmt.Errorf("keygen round3: no commitment recorded for %q", msg.From)
	}
	if err := body.RID.Validate(); err != nil {
		return fmt.Errorf("keygen round3: %w", err)
	}
	if err := body.ChainKey.Validate(); err != nil {
		return fmt.Errorf("keygen round3: %w", err)
	}
	vssPolynomial, err := body.VSSPolynomial.toExponent(r.Group())
	if err != nil {
		return fmt.Errorf("keygen round3: %w", err)
	}
	if vssPolynomial.Degree() != r.Threshold() {
		return fmt.Errorf("keygen round3: party %q committed to the wrong VSS degree", msg.From)
	}

	paillierPublic := paillier.NewPublicKey(natFromBytes(body.PaillierN))
	pedersenPublic := pedersen.NewParameters(paillierPublic.N(), natFromBytes(body.PedersenS), natFromBytes(body.PedersenT))
	elgamalPublic, err := pointFromBytes(r.Group(), body.ElGamalPublic)
	if err != nil {
		return fmt.Errorf("keygen round3: %w", err)
	}
	schnorrCommitment, err := pointFromBytes(r.Group(), body.SchnorrCommitment)
	if err != nil {
		return fmt.Errorf("keygen round3: %w", err)
	}

	if !r.Hash().Decommit(commitment, body.Decommitment, commitmentItems(
		body.RID, body.ChainKey, vssPolynomial, paillierPublic, pedersenPublic, elgamalPublic, schnorrCommitment,
	)...) {
		return fmt.Errorf("keygen round3: commitment mismatch from %q", msg.From)
	}

	if err := pedersenPublic.Validate(); err != nil {
		return fmt.Errorf("keygen round3: party %q: %w", msg.From, err)
	}

	r.RIDs[msg.From] = body.RID
	r.ChainKeys[msg.From] = body.ChainKey
	r.VSSPolynomials[msg.From] = vssPolynomial
	r.PaillierPublic[msg.From] = paillierPublic
	r.PedersenPublic[msg.From] = pedersenPublic
	r.ElGamalPublic[msg.From] = elgamalPublic
	r.SchnorrCommitments[msg.From] = schnorrCommitment
	return nil
}

func (r *round3) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()

	for _, j := range r.OtherPartyIDs() {
		vssPolynomial, ok := r.VSSPolynomials[j]
		if !ok {
			return r.AbortRound(fmt.Errorf("keygen round3: missing VSS polynomial from %q", j), j), nil
		}
		share, ok := r.SharesReceived[j]
		if !ok {
			return r.AbortRound(fmt.Errorf("keygen round3: missing share from %q", j), j), nil
		}
		expected := vssPolynomial.Evaluate(r.SelfID().Scalar(group))
		if !share.ActOnBase().Equal(expected) {
			return r.AbortRound(fmt.Errorf("keygen round3: share from %q does not match its VSS commitment", j), j), nil
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

	if err := r.BroadcastMessage(out, &broadcast3{Mod: modProof, Prm: wireFromPrmProof(prmProof)}); err != nil {
		return r, err
	}

	return &round4{
		session:            r.session,
		RIDs:               r.RIDs,
		ChainKeys:          r.ChainKeys,
		VSSPolynomials:     r.VSSPolynomials,
		PaillierPublic:     r.PaillierPublic,
		PedersenPublic:     r.PedersenPublic,
		ElGamalPublic:      r.ElGamalPublic,
		SchnorrCommitments: r.SchnorrCommitments,
		SharesReceived:     r.SharesReceived,
		PaillierSecret:     r.PaillierSecret,
		SchnorrRand:        r.SchnorrRand,
	}, nil
}
