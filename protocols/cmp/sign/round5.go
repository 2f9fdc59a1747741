package sign

import (
	"math/big"

	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/pkg/ecdsa"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/party"
)

// round5 collects every party's signature share sigma_i, sums them into the
// final s component, and outputs the normalized ECDSA signature.
type round5 struct {
	*session

	RScalar curve.Scalar
	Sigma   map[party.ID]curve.Scalar
}

func (r *round5) Number() round.Number { return 5 }

func (r *round5) BroadcastContent() round.BroadcastContent { return &broadcast5{} }

func (r *round5) MessageContent() round.Content { return nil }

func (r *round5) VerifyMessage(round.Message) error { return nil }

func (r *round5) StoreMessage(round.Message) error { return nil }

func (r *round5) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast5)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	r.Sigma[msg.From] = scalarFromInt(r.Group(), bigAsSignedInt(new(big.Int).SetBytes(body.Sigma)))
	return nil
}

func (r *round5) Finalize(chan<- *round.Message) (round.Session, error) {
	s := sumScalars(r.Group(), r.Sigma)
	sig := (&ecdsa.Signature{R: r.RScalar, S: s}).NormalizeS()
	if !sig.Verify(r.PublicKey, r.Message) {
		return r.AbortRound(errSignatureInvalid), nil
	}
	return r.ResultRound(sig), nil
}
