package sign

import (
	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/paillier"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/pedersen"
)

// session bundles everything about the signers and the key that stays
// fixed for the whole protocol run. Every round embeds it directly rather
// than the previous round's struct, so that a round's BroadcastRound
// methods (or lack of them) are never accidentally inherited through
// embedding from a round that happens to need them for a different
// purpose.
type session struct {
	*round.Helper

	PublicKey      curve.Point
	SecretECDSA    curve.Scalar
	SecretPaillier *paillier.SecretKey
	Paillier       map[party.ID]*paillier.PublicKey
	Pedersen       map[party.ID]*pedersen.Parameters
	ECDSA          map[party.ID]curve.Point
	Message        []byte
}
