package keygen

import (
	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/internal/types"
	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/math/polynomial"
	"github.com/cobaltss/cggmp21/pkg/paillier"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/pedersen"
	"github.com/cobaltss/cggmp21/pkg/zk/sch"
)

// round2 holds this party's own round1 secrets and immediately turns them
// into the decommitment broadcast plus the pairwise VSS shares, without
// waiting on anything of its own: round1's commitments are already fully
// collected by the time the handler invokes Finalize here.
type round2 struct {
	*session

	Commitments    map[party.ID]hash.Commitment
	VSSSecret      *polynomial.Polynomial
	VSSPolynomial  *polynomial.Exponent
	RID            types.RID
	ChainKey       types.RID
	PaillierSecret *paillier.SecretKey
	PedersenPublic *pedersen.Parameters
	PedersenLambda *saferith.Nat
	ElGamalSecret  curve.Scalar
	ElGamalPublic  curve.Point
	SchnorrRand    *sch.Randomness
	Decommitment   hash.Decommitment
}

func (r *round2) Number() round.Number { return 2 }

func (r *round2) MessageContent() round.Content { return nil }

func (r *round2) VerifyMessage(round.Message) error { return nil }

func (r *round2) StoreMessage(round.Message) error { return nil }

func (r *round2) Finalize(out chan<- *round.Message) (round.Session, error) {
	paillierPublic := r.PaillierSecret.PublicKey()

	broadcast := &broadcast2{
		RID:               r.RID,
		ChainKey:          r.ChainKey,
		VSSPolynomial:     wireFromExponent(r.VSSPolynomial),
		PaillierN:         natBytes(paillierPublic.N().Nat()),
		PedersenS:         natBytes(r.PedersenPublic.S()),
		PedersenT:         natBytes(r.PedersenPublic.T()),
		ElGamalPublic:     pointBytes(r.ElGamalPublic),
		SchnorrCommitment: pointBytes(r.SchnorrRand.Commitment()),
		Decommitment:      r.Decommitment,
	}
	if err := r.BroadcastMessage(out, broadcast); err != nil {
		return r, err
	}

	for _, j := range r.OtherPartyIDs() {
		share := r.VSSSecret.Evaluate(j.Scalar(r.Group()))
		shareBytes, err := share.MarshalBinary()
		if err != nil {
			return r, err
		}
		if err := r.SendMessage(out, &shareMessage{Share: shareBytes}, j); err != nil {
			return r, err
		}
	}

	selfShare := r.VSSSecret.Evaluate(r.SelfID().Scalar(r.Group()))

	return &round3{
		session:            r.session,
		Commitments:        r.Commitments,
		RIDs:               map[party.ID]types.RID{r.SelfID(): r.RID},
		ChainKeys:          map[party.ID]types.RID{r.SelfID(): r.ChainKey},
		VSSPolynomials:     map[party.ID]*polynomial.Exponent{r.SelfID(): r.VSSPolynomial},
		PaillierPublic:     map[party.ID]*paillier.PublicKey{r.SelfID(): paillierPublic},
		PedersenPublic:     map[party.ID]*pedersen.Parameters{r.SelfID(): r.PedersenPublic},
		ElGamalPublic:      map[party.ID]curve.Point{r.SelfID(): r.ElGamalPublic},
		SchnorrCommitments: map[party.ID]curve.Point{r.SelfID(): r.SchnorrRand.Commitment()},
		SharesReceived:     map[party.ID]curve.Scalar{r.SelfID(): selfShare},
		PaillierSecret:     r.PaillierSecret,
		PedersenLambda:     r.PedersenLambda,
		SchnorrRand:        r.SchnorrRand,
	}, nil
}
