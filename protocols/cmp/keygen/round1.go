package keygen

import (
	"crypto/rand"
	"fmt"

	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/internal/types"
	"github.com/cobaltss/cggmp21/pkg/hash"
	"github.com/cobaltss/cggmp21/pkg/math/polynomial"
	"github.com/cobaltss/cggmp21/pkg/math/sample"
	"github.com/cobaltss/cggmp21/pkg/paillier"
	"github.com/cobaltss/cggmp21/pkg/params"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/pedersen"
	"github.com/cobaltss/cggmp21/pkg/zk/sch"
)

// round1 samples every piece of this party's key material: its Feldman
// polynomial, Paillier and ring-Pedersen keys, an auxiliary ElGamal pair,
// rid and chain-key contributions, and the Schnorr randomness it will later
// use to prove knowledge of its final secret share. Only a hash commitment
// to all of it is broadcast here; round2 reveals the preimage, so no party
// can bias its own contribution after learning anyone else's.
//
// As in sign, the reliability check (catching a party that broadcasts
// divergent commitments to different peers) is handled generically by
// protocol.MultiHandler rather than by a dedicated round here.
type round1 struct {
	*session

	// Commitments collects every party's round1 commitment, self included
	// (seeded directly by Finalize, since the handler never calls
	// StoreBroadcastMessage for our own outgoing message).
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

	selfShare := sample.Scalar(rand.Reader, group)
	vssSecret := polynomial.NewPolynomial(group, degree, selfShare)
	vssPolynomial := polynomial.NewPolynomialExponent(vssSecret)

	rid, err := types.NewRID(rand.Reader)
	if err != nil {
		return r, fmt.Errorf("keygen round1: %w", err)
	}
	chainKey, err := types.NewRID(rand.Reader)
	if err != nil {
		return r, fmt.Errorf("keygen round1: %w", err)
	}

	sl := params.ReasonablySecure()
	paillierSecret, paillierPublic := paillier.KeyGen(rand.Reader, sl.PaillierBitsPerPrime())
	pedersenPublic, pedersenLambda := pedersen.GenerateParameters(rand.Reader, paillierPublic.N(), paillierSecret.Phi())

	elgamalSecret, elgamalPublic := sample.ScalarPointPair(rand.Reader, group)

	schnorrRand := sch.NewRandomness(rand.Reader, group, nil)

	commitment, decommitment, err := r.Hash().Commit(commitmentItems(
		rid, chainKey, vssPolynomial, paillierPublic, pedersenPublic, elgamalPublic, schnorrRand.Commitment(),
	)...)
	if err != nil {
		return r, fmt.Errorf("keygen round1: %w", err)
	}

	r.Commitments[r.SelfID()] = commitment

	if err := r.BroadcastMessage(out, &broadcast1{Commitment: commitment}); err != nil {
		return r, err
	}

	return &round2{
		session:        r.session,
		Commitments:    r.Commitments,
		VSSSecret:      vssSecret,
		VSSPolynomial:  vssPolynomial,
		RID:            rid,
		ChainKey:       chainKey,
		PaillierSecret: paillierSecret,
		PedersenPublic: pedersenPublic,
		PedersenLambda: pedersenLambda,
		ElGamalSecret:  elgamalSecret,
		ElGamalPublic:  elgamalPublic,
		SchnorrRand:    schnorrRand,
		Decommitment:   decommitment,
	}, nil
}
