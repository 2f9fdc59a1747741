package sign

import (
	"crypto/rand"

	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/math/sample"
	"github.com/cobaltss/cggmp21/pkg/paillier"
	"github.com/cobaltss/cggmp21/pkg/params"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/zk/affg"
	"github.com/cobaltss/cggmp21/pkg/zk/enc"
)

// round2 holds this party's own nonce/blind shares and immediately turns
// them into pairwise MtA messages for every other signer, without waiting
// on anything of its own: round1's broadcasts are already fully collected
// into K/G by the time this round runs (the handler invokes Finalize as
// soon as it advances here, before any round2-tagged message exists).
type round2 struct {
	*session

	K map[party.ID]*paillier.Ciphertext
	G map[party.ID]*paillier.Ciphertext

	k     curve.Scalar
	gamma curve.Scalar
	rhoK  *saferith.Nat
	rhoG  *saferith.Nat

	// Gamma is this party's own [gamma_i]G.
	Gamma curve.Point
}

func (r *round2) Number() round.Number { return 2 }

func (r *round2) MessageContent() round.Content { return nil }

func (r *round2) VerifyMessage(round.Message) error { return nil }

func (r *round2) StoreMessage(round.Message) error { return nil }

func (r *round2) Finalize(out chan<- *round.Message) (round.Session, error) {
	sl := params.ReasonablySecure()

	gammaMap := map[party.ID]curve.Point{r.SelfID(): r.Gamma}
	deltaShares := map[party.ID]*saferith.Int{}
	chiShares := map[party.ID]*saferith.Int{}
	betas := map[party.ID]*saferith.Int{}
	betahats := map[party.ID]*saferith.Int{}

	selfK := r.K[r.SelfID()]
	kInt := intFromScalar(r.k)
	xInt := intFromScalar(r.SecretECDSA)
	transcript := r.Hash()

	for _, j := range r.OtherPartyIDs() {
		Kj := r.K[j]
		receiver := r.Paillier[j]
		sender := r.SecretPaillier.PublicKey()
		aux := r.Pedersen[j]

		encProof := enc.NewProof(sl, transcript, enc.Public{
			K:      selfK,
			Prover: sender,
			Aux:    aux,
		}, enc.Private{K: kInt, Rho: r.rhoK})

		beta := sample.IntervalLEps(rand.Reader, sl.EllPrime, sl.Epsilon)
		betaInt := bigAsSignedInt(beta)
		rD := sample.UnitModN(rand.Reader, receiver.N())
		rY := sample.UnitModN(rand.Reader, sender.N())
		D := receiver.Add(receiver.Mul(Kj, intFromScalar(r.gamma)), receiver.EncWithNonce(betaInt, rD))
		Y := sender.EncWithNonce(betaInt, rY)
		deltaProof := affg.NewProof(sl, transcript, affg.Public{
			C: Kj, D: D, Y: Y, X: r.Gamma,
			Receiver: receiver, Sender: sender, Aux: aux, Group: r.Group(),
		}, affg.Private{X: intFromScalar(r.gamma), Y: betaInt, RhoD: rD, RhoY: rY})
		betas[j] = negateInt(betaInt)

		betahat := sample.IntervalLEps(rand.Reader, sl.EllPrime, sl.Epsilon)
		betahatInt := bigAsSignedInt(betahat)
		rDhat := sample.UnitModN(rand.Reader, receiver.N())
		rYhat := sample.UnitModN(rand.Reader, sender.N())
		Dhat := receiver.Add(receiver.Mul(Kj, xInt), receiver.EncWithNonce(betahatInt, rDhat))
		Yhat := sender.EncWithNonce(betahatInt, rYhat)
		chiProof := affg.NewProof(sl, transcript, affg.Public{
			C: Kj, D: Dhat, Y: Yhat, X: r.ECDSA[r.SelfID()],
			Receiver: receiver, Sender: sender, Aux: aux, Group: r.Group(),
		}, affg.Private{X: xInt, Y: betahatInt, RhoD: rDhat, RhoY: rYhat})
		betahats[j] = negateInt(betahatInt)

		content := &p2p2{
			EncProof:   wireFromEncProof(encProof),
			Gamma:      pointBytes(r.Gamma),
			DeltaD:     D.Bytes(),
			DeltaY:     Y.Bytes(),
			DeltaProof: wireFromAffgProof(deltaProof),
			ChiD:       Dhat.Bytes(),
			ChiY:       Yhat.Bytes(),
			ChiProof:   wireFromAffgProof(chiProof),
		}
		if err := r.SendMessage(out, content, j); err != nil {
			return r, err
		}
	}

	return &round3{
		session:     r.session,
		K:           r.K,
		k:           r.k,
		gamma:       r.gamma,
		rhoK:        r.rhoK,
		Gamma:       gammaMap,
		DeltaShares: deltaShares,
		ChiShares:   chiShares,
		betas:       betas,
		betahats:    betahats,
	}, nil
}
