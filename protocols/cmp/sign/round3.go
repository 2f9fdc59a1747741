package sign

import (
	"errors"

	"github.com/cronokirby/saferith"
	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/paillier"
	"github.com/cobaltss/cggmp21/pkg/params"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/zk/affg"
	"github.com/cobaltss/cggmp21/pkg/zk/enc"
	"github.com/cobaltss/cggmp21/pkg/zk/logstar"
)

// round3 collects every pairwise MtA message produced in round2, decrypts
// its own additive shares out of them, and turns the result into the
// broadcast consistency check of round4.
type round3 struct {
	*session

	K     map[party.ID]*paillier.Ciphertext
	k     curve.Scalar
	gamma curve.Scalar
	rhoK  *saferith.Nat

	Gamma       map[party.ID]curve.Point
	DeltaShares map[party.ID]*saferith.Int
	ChiShares   map[party.ID]*saferith.Int

	// betas/betahats are this party's own blinding contributions from
	// round2, kept with a negative sign so they can be summed directly
	// alongside the shares decrypted from peers.
	betas    map[party.ID]*saferith.Int
	betahats map[party.ID]*saferith.Int
}

func (r *round3) Number() round.Number { return 3 }

func (r *round3) MessageContent() round.Content { return &p2p2{} }

func (r *round3) VerifyMessage(msg round.Message) error {
	body, ok := msg.Content.(*p2p2)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	sl := params.ReasonablySecure()
	transcript := r.Hash()

	senderPub := r.Paillier[msg.From]
	selfPub := r.SecretPaillier.PublicKey()
	aux := r.Pedersen[r.SelfID()]
	selfK := r.K[r.SelfID()]

	encProof := body.EncProof.toProof()
	if !encProof.Verify(sl, transcript, enc.Public{K: r.K[msg.From], Prover: senderPub, Aux: aux}) {
		return errors.New("sign round3: invalid enc proof")
	}

	Gamma, err := pointFromBytes(r.Group(), body.Gamma)
	if err != nil {
		return err
	}
	deltaProof, err := body.DeltaProof.toProof(r.Group())
	if err != nil {
		return err
	}
	DeltaD := paillier.CiphertextFromBytes(body.DeltaD)
	DeltaY := paillier.CiphertextFromBytes(body.DeltaY)
	if !deltaProof.Verify(sl, transcript, affg.Public{
		C: selfK, D: DeltaD, Y: DeltaY, X: Gamma,
		Receiver: selfPub, Sender: senderPub, Aux: aux, Group: r.Group(),
	}) {
		return errors.New("sign round3: invalid delta affg proof")
	}

	chiProof, err := body.ChiProof.toProof(r.Group())
	if err != nil {
		return err
	}
	ChiD := paillier.CiphertextFromBytes(body.ChiD)
	ChiY := paillier.CiphertextFromBytes(body.ChiY)
	if !chiProof.Verify(sl, transcript, affg.Public{
		C: selfK, D: ChiD, Y: ChiY, X: r.ECDSA[msg.From],
		Receiver: selfPub, Sender: senderPub, Aux: aux, Group: r.Group(),
	}) {
		return errors.New("sign round3: invalid chi affg proof")
	}

	return nil
}

func (r *round3) StoreMessage(msg round.Message) error {
	body, ok := msg.Content.(*p2p2)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	Gamma, err := pointFromBytes(r.Group(), body.Gamma)
	if err != nil {
		return err
	}
	DeltaD := paillier.CiphertextFromBytes(body.DeltaD)
	alphaDelta, err := r.SecretPaillier.Dec(DeltaD)
	if err != nil {
		return err
	}
	ChiD := paillier.CiphertextFromBytes(body.ChiD)
	alphaChi, err := r.SecretPaillier.Dec(ChiD)
	if err != nil {
		return err
	}
	r.Gamma[msg.From] = Gamma
	r.DeltaShares[msg.From] = alphaDelta
	r.ChiShares[msg.From] = alphaChi
	return nil
}

func (r *round3) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()
	delta := r.k.Mul(r.gamma)
	chi := r.k.Mul(r.SecretECDSA)
	for j := range r.DeltaShares {
		delta = delta.Add(scalarFromInt(group, r.DeltaShares[j])).Add(scalarFromInt(group, r.betas[j]))
		chi = chi.Add(scalarFromInt(group, r.ChiShares[j])).Add(scalarFromInt(group, r.betahats[j]))
	}

	Gamma := sumPoints(group, r.Gamma)
	DeltaPoint := r.k.Act(Gamma)

	sl := params.ReasonablySecure()
	// Aux here is the prover's own ring-Pedersen parameters rather than a
	// verifier-specific set: a single broadcast cannot carry n-1 distinct
	// per-verifier proofs without turning this into a P2P round.
	proof := logstar.NewProof(sl, r.Hash(), logstar.Public{
		C: r.K[r.SelfID()], X: DeltaPoint, Prover: r.SecretPaillier.PublicKey(),
		Aux: r.Pedersen[r.SelfID()], Group: group, Gen: Gamma,
	}, logstar.Private{X: intFromScalar(r.k), Rho: r.rhoK})

	deltas := map[party.ID]curve.Scalar{r.SelfID(): delta}
	chis := map[party.ID]curve.Scalar{r.SelfID(): chi}
	deltaPoints := map[party.ID]curve.Point{r.SelfID(): DeltaPoint}

	if err := r.BroadcastMessage(out, &broadcast4{
		Delta:      delta.Nat().Big().Bytes(),
		DeltaPoint: pointBytes(DeltaPoint),
		Proof:      wireFromLogstarProof(proof),
	}); err != nil {
		return r, err
	}

	return &round4{
		session:      r.session,
		k:            r.k,
		Gamma:        Gamma,
		Delta:        deltaPoints,
		DeltaScalars: deltas,
		ChiScalars:   chis,
	}, nil
}
