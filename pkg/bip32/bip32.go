// Package bip32 implements unhardened child-key derivation for a
// threshold-shared secp256k1 key: given the aggregate public key and a
// chain code, it derives the scalar tweak and new chain code for child
// index i, the same linear-algebra trick BIP-0032 uses for single-party
// keys (https://github.com/bitcoin/bips/blob/master/bip-0032.mediawiki),
// adapted to use a keyed BLAKE3 derivation instead of HMAC-SHA512.
package bip32

import (
	"encoding/binary"
	"errors"

	"github.com/cronokirby/saferith"
	"github.com/zeebo/blake3"
	"github.com/cobaltss/cggmp21/internal/types"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
)

// HardenedBit marks an index as requesting hardened derivation, which
// needs the private key and is therefore impossible to do non-interactively
// against a public point alone.
const HardenedBit = uint32(1) << 31

// DeriveScalar computes the child tweak and chain code for child index i
// of the key whose aggregate public point is public and whose current
// chain code is chainKey. It panics if i requests hardened derivation,
// since that's not attempted on a threshold key: reaching it means a
// caller bug, not a runtime condition to recover from.
func DeriveScalar(group curve.Curve, public curve.Point, chainKey types.RID, i uint32) (curve.Scalar, types.RID, error) {
	if i&HardenedBit != 0 {
		panic("bip32: hardened derivation requested on a public point")
	}
	pointBytes, err := public.MarshalBinary()
	if err != nil {
		return nil, types.RID{}, err
	}

	var idxBytes [4]byte
	binary.BigEndian.PutUint32(idxBytes[:], i)

	input := make([]byte, 0, len(pointBytes)+len(idxBytes))
	input = append(input, pointBytes...)
	input = append(input, idxBytes[:]...)

	out := blake3.DeriveKey("cggmp21 bip32 v1 "+string(chainKey[:]), input, make([]byte, 64))

	tweakBytes := out[:32]
	var newChainKey types.RID
	copy(newChainKey[:], out[32:64])

	tweakNat := new(saferith.Nat).SetBytes(tweakBytes)
	tweak := group.NewScalar().SetNat(tweakNat)
	if tweak.IsZero() {
		return nil, types.RID{}, errors.New("bip32: derived a zero tweak, pick a different index")
	}
	return tweak, newChainKey, nil
}
