package refresh

import (
	"crypto/rand"
	"fmt"

	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/math/polynomial"
	"github.com/cobaltss/cggmp21/pkg/paillier"
	"github.com/cobaltss/cggmp21/pkg/params"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/pedersen"
)

// round1 samples a fresh Paillier keypair and ring-Pedersen parameters to
// replace this party's aux info, plus a zero-constant Feldman polynomial
// whose evaluations at every other party rerandomize their additive ECDSA
// share without moving the combined public key. Only a commitment to all
// of it is broadcast here; round2 reveals the preimage.
type round1 struct {
	*session

	// Commitments collects every party's round1 commitment, self included
	// (seeded directly by Finalize, as in keygen's round1).
	Commitments map[party.ID]hash.Commitment
}

func (r *round1) Number() round.Number { return 1 }

func (r *round1) BroadcastContent() round.BroadcastContent { return &broadcast1{} }

func (r *round1) MessageContent() round.Content { return nil }

func (r *round1) VerifyMessage(round.Message) error { return nil }

func (r *round1) StoreMessage(round.Message) error { return nil }

func (r *round1) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast1)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	r.Commitments[msg.From] = body.Commitment
	return nil
}

func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()
	degree := r.Threshold()

	sl := params.ReasonablySecure()
	paillierSecret, paillierPublic := paillier.KeyGen(rand.Reader, sl.PaillierBitsPerPrime())
	pedersenPublic, pedersenLambda := pedersen.GenerateParameters(rand.Reader, paillierPublic.N(), paillierSecret.Phi())

	deltaPoly := polynomial.NewPolynomial(group, degree, group.NewScalar())
	deltaExponent := polynomial.NewPolynomialExponent(deltaPoly)

	commitment, decommitment, err := r.Hash().Commit(commitmentItems(paillierPublic, pedersenPublic, deltaExponent)...)
	if err != nil {
		return r, fmt.Errorf("refresh round1: %w", err)
	}

	r.Commitments[r.SelfID()] = commitment

	if err := r.BroadcastMessage(out, &broadcast1{Commitment: commitment}); err != nil {
		return r, err
	}

	return &round2{
		session:        r.session,
		Commitments:    r.Commitments,
		DeltaPoly:      deltaPoly,
		DeltaExponent:  deltaExponent,
		PaillierSecret: paillierSecret,
		PedersenPublic: pedersenPublic,
		PedersenLambda: pedersenLambda,
		Decommitment:   decommitment,
	}, nil
}
