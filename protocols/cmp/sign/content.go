package sign

import (
	"errors"

	"github.com/cobaltss/cggmp21/internal/round"
)

var errSignatureInvalid = errors.New("sign: assembled signature failed verification")

// broadcast1 carries party i's encrypted nonce share K_i = Enc(k_i) and
// encrypted multiplicative blind G_i = Enc(gamma_i), broadcast at the very
// start of signing. Neither is accompanied by a range proof here: that
// would need a verifier-specific ring-Pedersen modulus, so it travels
// instead as part of round2's pairwise messages.
type broadcast1 struct {
	K []byte
	G []byte
}

func (broadcast1) RoundNumber() round.Number { return 1 }

// p2p2 is the pairwise message sent by party i to party j in round2: the
// MtA ciphertexts converting gamma_i*k_j and x_i*k_j into additive shares,
// each with its Π_aff-g proof, plus a Π_enc proof that K_i is well-formed
// (checked against j's own ring-Pedersen parameters).
type p2p2 struct {
	EncProof encProofWire

	Gamma      []byte
	DeltaD     []byte
	DeltaY     []byte
	DeltaProof affgProofWire

	ChiD     []byte
	ChiY     []byte
	ChiProof affgProofWire
}

func (p2p2) RoundNumber() round.Number { return 3 }

// broadcast4 carries party i's additive share delta_i of k*gamma (in the
// clear; it's a one-time pad and reveals nothing on its own) together with
// the point Delta_i = [k_i]Gamma and a Π_log* proof that Delta_i's discrete
// logarithm with respect to Gamma is the k_i encrypted in K_i.
type broadcast4 struct {
	Delta      []byte
	DeltaPoint []byte
	Proof      logstarProofWire
}

func (broadcast4) RoundNumber() round.Number { return 4 }

// broadcast5 carries party i's partial signature sigma_i = k_i*m + r*chi_i.
type broadcast5 struct {
	Sigma []byte
}

func (broadcast5) RoundNumber() round.Number { return 5 }
