package sign

import (
	"crypto/rand"
	"errors"

	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/pkg/math/sample"
	"github.com/cobaltss/cggmp21/pkg/paillier"
	"github.com/cobaltss/cggmp21/pkg/party"
)

// round1 samples this party's nonce share k_i and multiplicative blind
// gamma_i, and broadcasts them encrypted under its own Paillier key.
//
// The reliability round (each party broadcasting H(all Round-1a
// messages) and aborting on divergence) is implemented generically in
// protocol.MultiHandler rather than as a dedicated round here: every
// round's outgoing messages already carry the sender's hash of the
// previous round's broadcast set (MultiHandler.checkBroadcastHash), so
// round2's messages are the first to carry round1's reliability hash,
// and a sender who equivocated on broadcast1 is caught there and
// reported via round.ErrReliabilityMismatch, naming the diverging
// sender as culprit.
type round1 struct {
	*session

	// K and G collect every party's encrypted k_i, gamma_i (self included,
	// seeded directly by Finalize since the handler never calls
	// StoreBroadcastMessage for our own outgoing message). round2 onward
	// is handed the same map so stragglers collected after advancing past
	// round1 are still visible.
	K map[party.ID]*paillier.Ciphertext
	G map[party.ID]*paillier.Ciphertext
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
	K := paillier.CiphertextFromBytes(body.K)
	G := paillier.CiphertextFromBytes(body.G)
	pub, ok := r.Paillier[msg.From]
	if !ok {
		return errors.New("sign round1: unknown sender")
	}
	if !pub.ValidateCiphertexts(K, G) {
		return errors.New("sign round1: malformed ciphertext")
	}
	r.K[msg.From] = K
	r.G[msg.From] = G
	return nil
}

func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	kScalar := sample.Scalar(rand.Reader, r.Group())
	gammaScalar := sample.Scalar(rand.Reader, r.Group())

	pub := r.SecretPaillier.PublicKey()
	K, rhoK := pub.Enc(intFromScalar(kScalar))
	G, rhoG := pub.Enc(intFromScalar(gammaScalar))

	r.K[r.SelfID()] = K
	r.G[r.SelfID()] = G

	if err := r.BroadcastMessage(out, &broadcast1{K: K.Bytes(), G: G.Bytes()}); err != nil {
		return r, err
	}

	return &round2{
		session: r.session,
		K:       r.K,
		G:       r.G,
		k:       kScalar,
		gamma:   gammaScalar,
		rhoK:    rhoK,
		rhoG:    rhoG,
		Gamma:   gammaScalar.ActOnBase(),
	}, nil
}
