package refresh

import (
	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/math/polynomial"
	"github.com/cobaltss/cggmp21/pkg/paillier"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/pedersen"
)

// round2 reveals this party's round1 decommitment and sends every other
// party its share of the zero-constant rerandomization polynomial, without
// waiting on anything of its own: round1's commitments are already fully
// collected by the time the handler invokes Finalize here.
type round2 struct {
	*session

	Commitments    map[party.ID]hash.Commitment
	DeltaPoly      *polynomial.Polynomial
	DeltaExponent  *polynomial.Exponent
	PaillierSecret *paillier.SecretKey
	PedersenPublic *pedersen.Parameters
	PedersenLambda *saferith.Nat
	Decommitment   hash.Decommitment
}

func (r *round2) Number() round.Number { return 2 }

func (r *round2) MessageContent() round.Content { return nil }

func (r *round2) VerifyMessage(round.Message) error { return nil }

func (r *round2) StoreMessage(round.Message) error { return nil }

func (r *round2) Finalize(out chan<- *round.Message) (round.Session, error) {
	paillierPublic := r.PaillierSecret.PublicKey()

	broadcast := &broadcast2{
		PaillierN:     natBytes(paillierPublic.N().Nat()),
		PedersenS:     natBytes(r.PedersenPublic.S()),
		PedersenT:     natBytes(r.PedersenPublic.T()),
		DeltaExponent: wireFromExponent(r.DeltaExponent),
		Decommitment:  r.Decommitment,
	}
	if err := r.BroadcastMessage(out, broadcast); err != nil {
		return r, err
	}

	for _, j := range r.OtherPartyIDs() {
		share := r.DeltaPoly.Evaluate(j.Scalar(r.Group()))
		shareBytes, err := share.MarshalBinary()
		if err != nil {
			return r, err
		}
		if err := r.SendMessage(out, &shareMessage{Share: shareBytes}, j); err != nil {
			return r, err
		}
	}

	selfShare := r.DeltaPoly.Evaluate(r.SelfID().Scalar(r.Group()))

	return &round3{
		session:        r.session,
		Commitments:    r.Commitments,
		PaillierPublic: map[party.ID]*paillier.PublicKey{r.SelfID(): paillierPublic},
		PedersenPublic: map[party.ID]*pedersen.Parameters{r.SelfID(): r.PedersenPublic},
		DeltaExponents: map[party.ID]*polynomial.Exponent{r.SelfID(): r.DeltaExponent},
		SharesReceived: map[party.ID]curve.Scalar{r.SelfID(): selfShare},
		PaillierSecret: r.PaillierSecret,
		PedersenLambda: r.PedersenLambda,
	}, nil
}
